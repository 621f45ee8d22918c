// Package macro is the built-in macro oscillator engine and the resonant
// filter of the instrument. Both implement the narrow contracts in the root
// package and can be swapped for other engines without touching the voice
// pipeline.
package macro

import (
	"github.com/chewxy/math32"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

const (
	twoPi = 2 * math32.Pi

	// Oscillator output headroom; full-scale int16 would leave the mix bus
	// nothing to sum into.
	outputGain = 0.8 * 32767
)

// Oscillator is a phase-accumulator implementation of the macro oscillator
// contract. Timbre and color morph each shape in a shape-specific way:
//
//	Sine:   timbre folds the wave, color adds phase feedback
//	Trisaw: timbre morphs triangle into saw, color drives a soft clipper
//	Pulse:  timbre narrows the pulse width, color detunes a second pulse
type Oscillator struct {
	sampleRate float32
	shape      picosynth.Shape
	phase      float32
	phase2     float32 // secondary phase for the detuned pulse
	increment  float32
	timbre     float32 // 0..1
	color      float32 // 0..1
}

func NewOscillator() *Oscillator {
	return &Oscillator{}
}

func (o *Oscillator) Init(sampleRate float32) {
	o.sampleRate = sampleRate
	o.phase = 0
	o.phase2 = 0
}

func (o *Oscillator) SetShape(shape picosynth.Shape) {
	if shape < 0 || shape >= picosynth.NumShapes {
		return
	}
	o.shape = shape
}

// SetPitch sets the oscillator frequency from a pitch in 1/128ths of a
// semitone, 128*69 being A4 = 440 Hz.
func (o *Oscillator) SetPitch(pitch int32) {
	note := float32(pitch) * (1.0 / 128.0)
	freq := 440 * math32.Exp2((note-69)/12)
	o.increment = freq / o.sampleRate
}

func (o *Oscillator) SetParameters(timbre, color uint16) {
	o.timbre = float32(timbre) * (1.0 / 32767.0)
	o.color = float32(color) * (1.0 / 32767.0)
}

// Strike restarts the waveform, giving retriggered notes a deterministic
// transient.
func (o *Oscillator) Strike() {
	o.phase = 0
	o.phase2 = 0
}

func (o *Oscillator) Render(sync []bool, out []int16) {
	switch o.shape {
	case picosynth.Sine:
		o.renderSine(out)
	case picosynth.Trisaw:
		o.renderTrisaw(out)
	case picosynth.Pulse:
		o.renderPulse(out)
	}
}

func (o *Oscillator) renderSine(out []int16) {
	fold := 1 + o.timbre*3
	feedback := o.color * 1.5
	for i := range out {
		s := math32.Sin(twoPi*o.phase + feedback*math32.Sin(twoPi*o.phase))
		s = math32.Sin(s * fold)
		out[i] = int16(s * outputGain)
		o.phase = stepPhase(o.phase, o.increment)
	}
}

func (o *Oscillator) renderTrisaw(out []int16) {
	// The triangle's apex slides from 0.5 (triangle) towards 1 (saw) with
	// timbre.
	apex := 0.5 + o.timbre*0.49
	drive := 1 + o.color*4
	for i := range out {
		var s float32
		if o.phase < apex {
			s = 2*o.phase/apex - 1
		} else {
			s = 1 - 2*(o.phase-apex)/(1-apex)
		}
		s = softClip(s * drive)
		out[i] = int16(s * outputGain)
		o.phase = stepPhase(o.phase, o.increment)
	}
}

func (o *Oscillator) renderPulse(out []int16) {
	width := 0.5 - o.timbre*0.45
	detune := 1 + o.color*0.01
	for i := range out {
		s := pulseValue(o.phase, width) + pulseValue(o.phase2, width)
		out[i] = int16(s * 0.5 * outputGain)
		o.phase = stepPhase(o.phase, o.increment)
		o.phase2 = stepPhase(o.phase2, o.increment*detune)
	}
}

func pulseValue(phase, width float32) float32 {
	if phase < width {
		return 1
	}
	return -1
}

func stepPhase(phase, increment float32) float32 {
	phase += increment
	if phase >= 1 {
		phase -= 1
	}
	return phase
}

func softClip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s * (1.5 - 0.5*s*s)
}
