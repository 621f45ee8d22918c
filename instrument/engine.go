package instrument

import (
	"github.com/viterin/vek/vek32"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

const (
	cutoffSlewRate    = 0.1
	resonanceSlewRate = 0.1
	filterMixSlewRate = 0.02

	// dry path attenuation in the crossfade, leaves headroom against the
	// resonant wet path
	dryScale = 0.9

	// per-voice gain into the mix bus
	voiceGain = 0.25
)

// Engine is the audio context: a producer that renders exactly one fixed-size
// block per call, reading the latest parameter snapshot and note messages
// from the broker at block boundaries. It owns all voice, envelope, router,
// filter and scope-front state, never blocks and never allocates on the
// render path. The output device pulls from it through Read, so the "render
// only when the device has space" policy is the device's own pacing.
type Engine struct {
	broker *Broker
	pool   *VoicePool
	filter picosynth.Filter
	params picosynth.Params
	router router
	scope  Scope
	vu     vuAnalyzer

	sustainHeld bool

	// envelope coefficients, recomputed only when the times change
	attackTime   float32
	releaseTime  float32
	attackCoeff  float32
	releaseCoeff float32

	// smoothed filter stage controls, 0..1
	cutoff    float32
	resonance float32
	filterMix float32

	mix [picosynth.BlockSize]float32
	sum [picosynth.BlockSize]float32

	stage   [picosynth.BlockSize * 4]byte
	block   [picosynth.BlockSize][2]float32
	pending []byte
}

func NewEngine(broker *Broker, newOscillator func() picosynth.Oscillator, filter picosynth.Filter) *Engine {
	e := &Engine{
		broker: broker,
		pool:   NewVoicePool(newOscillator),
		filter: filter,
		params: picosynth.DefaultParams(),
		vu:     newVuAnalyzer(),
	}
	e.filter.Init()
	e.filter.SetMode(picosynth.FilterLowPass)
	e.updateEnvelopeCoefficients()
	e.cutoff = float32(e.params.Cutoff) / 127
	e.resonance = float32(e.params.Resonance) / 127
	return e
}

// Scope exposes the waveform mailbox for the display side.
func (e *Engine) Scope() *Scope { return &e.scope }

// ProcessBlock renders one block into out, which must be BlockSize long.
func (e *Engine) ProcessBlock(out picosynth.AudioBuffer) {
	e.processMessages()
	e.router.resolve(&e.params)
	vek32.Zeros_Into(e.mix[:], picosynth.BlockSize)
	e.pool.RenderBlock(e.mix[:], renderControls{
		fm:           e.router.fm,
		timbre:       e.router.timbre,
		color:        e.router.color,
		shape:        e.params.Engine,
		attackCoeff:  e.attackCoeff,
		releaseCoeff: e.releaseCoeff,
		gain:         voiceGain,
	})
	e.renderFilterStage(out)
	if e.params.ScopeEnabled {
		e.scope.capture(e.sum[:])
	}
	TrySend(e.broker.ToModel, MsgToModel{
		HasVoiceLevels: true,
		VoiceLevels:    e.pool.Levels(),
		Volume:         e.vu.analyze(e.sum[:]),
	})
}

// renderFilterStage smooths the filter controls, crossfades the dry mix with
// the filtered signal and writes the clamped result to both channels.
func (e *Engine) renderFilterStage(out picosynth.AudioBuffer) {
	p := &e.params
	e.cutoff = deadZoneSlew(e.cutoff, float32(p.Cutoff)/127, cutoffSlewRate)
	e.resonance = deadZoneSlew(e.resonance, float32(p.Resonance)/127, resonanceSlewRate)
	// filter mode is what puts the filter in the signal path: the crossfade
	// chases fully wet while it is active, and the stored mix elsewhere
	mixTarget := p.FilterMix
	if p.Mode == picosynth.ModeFilter {
		mixTarget = 1
	}
	e.filterMix = deadZoneSlew(e.filterMix, mixTarget, filterMixSlewRate)
	e.filter.SetFrequency(uint16(e.cutoff * 65535))
	e.filter.SetResonance(uint16(e.resonance * 65535))

	vek32.MulNumber_Into(e.sum[:], e.mix[:], (1-e.filterMix)*dryScale)
	for s := range e.mix {
		wet := float32(e.filter.Process(int32(e.mix[s]*32768))) * (1.0 / 32768.0)
		e.sum[s] += wet * e.filterMix
	}
	vek32.MulNumber_Inplace(e.sum[:], p.Volume)
	for s := range out {
		v := e.sum[s]
		if v < -1 {
			v = -1
		} else if v > 1 {
			v = 1
		}
		e.sum[s] = v
		out[s][0] = v
		out[s][1] = v
	}
}

// processMessages drains the control channel without ever blocking. Unknown
// messages are ignored.
func (e *Engine) processMessages() {
loop:
	for {
		select {
		case msg := <-e.broker.ToEngine:
			switch m := msg.(type) {
			case picosynth.Params:
				e.params = m
				if m.Attack != e.attackTime || m.Release != e.releaseTime {
					e.updateEnvelopeCoefficients()
				}
			case NoteOnMsg:
				e.pool.Allocate(m.Pitch, m.Velocity)
			case NoteOffMsg:
				if i, ok := e.pool.FindByPitch(m.Pitch); ok {
					e.pool.Release(i, e.sustainHeld)
				}
			case SustainMsg:
				e.sustainHeld = m.Held
				if !m.Held {
					e.pool.SustainReleaseAll()
				}
			case PanicMsg:
				e.sustainHeld = false
				e.pool.Silence()
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

func (e *Engine) updateEnvelopeCoefficients() {
	e.attackTime = e.params.Attack
	e.releaseTime = e.params.Release
	e.attackCoeff = onePoleCoefficient(e.attackTime, picosynth.SampleRate)
	e.releaseCoeff = onePoleCoefficient(e.releaseTime, picosynth.SampleRate)
}

// Read implements io.Reader, producing 16-bit little-endian interleaved
// stereo samples one block at a time. This is the pull entry point of the
// audio output device; the goroutine calling it is the audio context.
func (e *Engine) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(e.pending) == 0 {
			e.ProcessBlock(e.block[:])
			for s := range e.block {
				l := clampToWire(e.block[s][0])
				r := clampToWire(e.block[s][1])
				e.stage[s*4] = byte(l)
				e.stage[s*4+1] = byte(l >> 8)
				e.stage[s*4+2] = byte(r)
				e.stage[s*4+3] = byte(r >> 8)
			}
			e.pending = e.stage[:]
		}
		c := copy(p[n:], e.pending)
		n += c
		e.pending = e.pending[c:]
	}
	return n, nil
}

func clampToWire(v float32) int16 {
	s := int32(v * 32767)
	if s < -32768 {
		return -32768
	}
	if s > 32767 {
		return 32767
	}
	return int16(s)
}
