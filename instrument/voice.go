package instrument

import (
	picosynth "github.com/tixicoo/vija-pico-synth"
)

// Voice is one polyphonic slot. The oscillator handle is owned exclusively
// by the voice; allocation never moves it between slots. A voice is eligible
// for reuse only once it is neither held nor sustained and its envelope has
// decayed to exactly zero, which certifies the amplitude is inaudible.
type Voice struct {
	osc              picosynth.Oscillator
	pitch            byte
	velocity         float32
	velocitySmoothed float32
	active           bool
	sustained        bool
	envLevel         float32
	lastTriggered    bool
	age              uint32
	renderBuf        [picosynth.BlockSize]int16
}

func (v *Voice) free() bool {
	return !v.active && !v.sustained && v.envLevel == 0
}

// VoicePool is the fixed arena of voices with a free-first, then oldest-age
// allocation policy. Voice indices are stable across a block's render pass.
// All methods run on the audio context only; the control context reaches the
// pool exclusively through broker messages.
type VoicePool struct {
	voices  [picosynth.NumVoices]Voice
	nextAge uint32
}

func NewVoicePool(newOscillator func() picosynth.Oscillator) *VoicePool {
	p := &VoicePool{nextAge: 1}
	for i := range p.voices {
		osc := newOscillator()
		osc.Init(picosynth.SampleRate)
		p.voices[i].osc = osc
	}
	return p
}

// Allocate claims a slot for a held note and returns its index. A voice
// satisfying the free invariant is preferred; when none exists, the voice
// with the smallest age is stolen, which causes an audible retrigger. It
// never fails.
func (p *VoicePool) Allocate(pitch, velocity byte) int {
	chosen := -1
	var oldestAge uint32
	for i := range p.voices {
		v := &p.voices[i]
		if v.free() {
			chosen = i
			break
		}
		if chosen == -1 || v.age < oldestAge {
			chosen = i
			oldestAge = v.age
		}
	}
	v := &p.voices[chosen]
	v.pitch = pitch
	v.velocity = float32(velocity) * (1.0 / 127.0)
	v.active = true
	v.sustained = false
	v.age = p.nextAge
	p.nextAge++
	// clearing the trigger edge makes the next render block restrike the
	// oscillator even when the slot was stolen from a still-active note
	v.lastTriggered = false
	return chosen
}

// FindByPitch returns the first active voice holding pitch. When overlapping
// note-ons share a pitch, only the first is found; the remainder release via
// stealing or a later matching note-off.
func (p *VoicePool) FindByPitch(pitch byte) (int, bool) {
	for i := range p.voices {
		if p.voices[i].active && p.voices[i].pitch == pitch {
			return i, true
		}
	}
	return 0, false
}

// Release ends the held phase of a voice. With the sustain pedal down the
// voice keeps sounding as sustained; otherwise its release decay begins.
func (p *VoicePool) Release(index int, sustainHeld bool) {
	v := &p.voices[index]
	v.active = false
	v.sustained = sustainHeld
}

// SustainReleaseAll begins the release decay of every sustained voice.
// Invoked when the sustain pedal is lifted.
func (p *VoicePool) SustainReleaseAll() {
	for i := range p.voices {
		if p.voices[i].sustained {
			p.voices[i].active = false
			p.voices[i].sustained = false
		}
	}
}

// Silence hard-stops every voice without a release phase.
func (p *VoicePool) Silence() {
	for i := range p.voices {
		v := &p.voices[i]
		v.active = false
		v.sustained = false
		v.envLevel = 0
		v.lastTriggered = false
	}
}

// Ages returns the allocation counters, lower is older.
func (p *VoicePool) Ages() [picosynth.NumVoices]uint32 {
	var ages [picosynth.NumVoices]uint32
	for i := range p.voices {
		ages[i] = p.voices[i].age
	}
	return ages
}

// renderControls is the per-block output of the modulation router plus the
// envelope coefficients, resolved once per block before voices render.
type renderControls struct {
	fm           float32 // -1..1, pitch modulation
	timbre       float32 // 0..1
	color        float32 // 0..1
	shape        picosynth.Shape
	attackCoeff  float32
	releaseCoeff float32
	gain         float32 // per-voice mix gain
}

// RenderBlock runs every audible voice through its oscillator and envelope
// and accumulates the result into mix, which must be BlockSize long.
func (p *VoicePool) RenderBlock(mix []float32, rc renderControls) {
	timbre := uint16(clamp01(rc.timbre) * 32767)
	color := uint16(clamp01(rc.color) * 32767)
	for i := range p.voices {
		v := &p.voices[i]
		if v.free() {
			v.lastTriggered = false
			continue
		}
		v.velocitySmoothed += (v.velocity - v.velocitySmoothed) * velSmoothRate
		v.osc.SetShape(rc.shape)
		v.osc.SetPitch(int32(v.pitch)*128 + int32(rc.fm*1536))
		v.osc.SetParameters(timbre, color)
		if v.active && !v.lastTriggered {
			v.osc.Strike()
		}
		v.lastTriggered = v.active
		v.osc.Render(nil, v.renderBuf[:])
		gate := v.active || v.sustained
		coeff, target := rc.releaseCoeff, float32(0)
		if gate {
			coeff, target = rc.attackCoeff, 1
		}
		scale := v.velocitySmoothed * rc.gain * (1.0 / 32768.0)
		for s := range mix {
			v.envLevel += (target - v.envLevel) * coeff
			if !gate && v.envLevel < envZeroClamp {
				v.envLevel = 0
			}
			mix[s] += float32(v.renderBuf[s]) * v.envLevel * scale
		}
	}
}

// Levels returns the current envelope levels for display.
func (p *VoicePool) Levels() [picosynth.NumVoices]float32 {
	var levels [picosynth.NumVoices]float32
	for i := range p.voices {
		levels[i] = p.voices[i].envLevel
	}
	return levels
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
