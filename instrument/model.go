package instrument

import (
	"time"

	"github.com/chewxy/math32"

	picosynth "github.com/tixicoo/vija-pico-synth"
	"github.com/tixicoo/vija-pico-synth/midi"
)

const (
	// a locked parameter hands control back to the pot once the pot is this
	// close to the CC-written value
	takeoverTolerance = 0.03

	attackMinSeconds  = 0.001
	attackMaxSeconds  = 2.0
	releaseMinSeconds = 0.01
	releaseMaxSeconds = 3.0

	uiIdleRevert = 5 * time.Second

	// UIPages is the number of encoder menu pages the display cycles through.
	UIPages = 4
)

// takeover implements soft takeover: after a CC writes a parameter directly,
// the physical input is ignored until it converges to the written value, so
// control authority hands back without a jump discontinuity.
type takeover struct {
	locked bool
	value  float32
}

func (t *takeover) engage(v float32) {
	t.locked = true
	t.value = v
}

// admit reports whether the physical input currently has authority, releasing
// the lock when the input has converged.
func (t *takeover) admit(pot float32) bool {
	if !t.locked {
		return true
	}
	if math32.Abs(pot-t.value) <= takeoverTolerance {
		t.locked = false
		return true
	}
	return false
}

// Secondary identifies one of the two secondary physical inputs, whose
// meaning depends on the operating mode.
type Secondary int

const (
	SecondaryA Secondary = iota
	SecondaryB
)

// Model is the control context: it owns the authoritative parameter state,
// dispatches decoded MIDI, routes the physical inputs by operating mode and
// drives the UI state. Every change is pushed to the engine as a whole
// Params snapshot over the broker, so the audio side never sees a torn
// update. All methods must be called from a single goroutine; the model has
// no real-time deadline beyond perceptual responsiveness.
type Model struct {
	broker *Broker
	scope  *Scope
	params picosynth.Params

	uiPage    int
	lastInput time.Time

	takeoverTimbre takeover
	takeoverColor  takeover

	voiceLevels [picosynth.NumVoices]float32
	volume      Volume

	alert      Alert
	alertUntil time.Time

	// canonical bytes of the last persisted snapshot, nil before any save
	lastSaved []byte

	waveform [ScopeSize]float32
}

var _ midi.Dispatcher = (*Model)(nil)

func NewModel(broker *Broker, scope *Scope) *Model {
	return &Model{
		broker:    broker,
		scope:     scope,
		params:    picosynth.DefaultParams(),
		lastInput: time.Now(),
	}
}

// Params returns the current authoritative parameter state.
func (m *Model) Params() picosynth.Params { return m.params }

// Channel returns the configured 1-based MIDI channel.
func (m *Model) Channel() int { return m.params.Channel }

// ApplySettings replaces the live parameters with a loaded snapshot and
// pushes the result to the engine.
func (m *Model) ApplySettings(s picosynth.Settings) {
	m.params = s.Params()
	m.uiPage = s.UIPage
	m.pushParams()
}

// Settings returns the persistable snapshot of the live parameters.
func (m *Model) Settings() picosynth.Settings {
	return picosynth.SettingsFromParams(m.params, m.uiPage)
}

func (m *Model) pushParams() {
	TrySend(m.broker.ToEngine, any(m.params))
}

// NoteOn implements midi.Dispatcher.
func (m *Model) NoteOn(pitch, velocity byte) {
	TrySend(m.broker.ToEngine, any(NoteOnMsg{Pitch: pitch, Velocity: velocity}))
}

// NoteOff implements midi.Dispatcher.
func (m *Model) NoteOff(pitch byte) {
	TrySend(m.broker.ToEngine, any(NoteOffMsg{Pitch: pitch}))
}

// ControlChange implements midi.Dispatcher, mapping the fixed controller
// table onto parameters. Timbre and color CCs act only in MIDI-modulation
// mode and engage the soft-takeover lock for their pot.
func (m *Model) ControlChange(controller, value byte) {
	switch controller {
	case midi.CCSustain:
		TrySend(m.broker.ToEngine, any(SustainMsg{Held: value >= 64}))
		return
	case midi.CCVolume:
		m.params.Volume = float32(value) / 127
	case midi.CCEngine:
		m.params.Engine = picosynth.Shape(int(value) * int(picosynth.NumShapes) / 128)
	case midi.CCTimbre:
		if m.params.Mode != picosynth.ModeMIDI {
			return
		}
		m.params.MidiTimbre = float32(value) / 127
		m.takeoverTimbre.engage(m.params.MidiTimbre)
	case midi.CCColor:
		if m.params.Mode != picosynth.ModeMIDI {
			return
		}
		m.params.MidiColor = float32(value) / 127
		m.takeoverColor.engage(m.params.MidiColor)
	case midi.CCAttack:
		m.params.Attack = attackMinSeconds + float32(value)/127*(attackMaxSeconds-attackMinSeconds)
	case midi.CCRelease:
		m.params.Release = releaseMinSeconds + float32(value)/127*(releaseMaxSeconds-releaseMinSeconds)
	case midi.CCCutoff:
		m.params.Cutoff = value
	case midi.CCResonance:
		m.params.Resonance = value
	case midi.CCFMDepth:
		m.params.FMDepth = signedControl(value)
	case midi.CCTimbreModDepth:
		m.params.TimbreModDepth = signedControl(value)
	case midi.CCColorModDepth:
		m.params.ColorModDepth = signedControl(value)
	case midi.CCFilterMix:
		m.params.FilterMix = float32(value) / 127
	default:
		return
	}
	m.pushParams()
}

// ProgramChange implements midi.Dispatcher; programs beyond the engine count
// are ignored.
func (m *Model) ProgramChange(program byte) {
	if int(program) >= int(picosynth.NumShapes) {
		return
	}
	m.params.Engine = picosynth.Shape(program)
	m.pushParams()
}

// PitchBend implements midi.Dispatcher. Bend has no destination in this
// instrument; the message is accepted and dropped.
func (m *Model) PitchBend(bend int16) {}

// SetTimbre routes the primary timbre input. In MIDI-modulation mode the pot
// is subject to soft takeover.
func (m *Model) SetTimbre(value float32) {
	m.touch()
	value = clamp01(value)
	if m.params.Mode == picosynth.ModeMIDI {
		if !m.takeoverTimbre.admit(value) {
			return
		}
		m.params.MidiTimbre = value
	}
	m.params.Timbre = value
	m.pushParams()
}

// SetColor routes the primary color input, with soft takeover like SetTimbre.
func (m *Model) SetColor(value float32) {
	m.touch()
	value = clamp01(value)
	if m.params.Mode == picosynth.ModeMIDI {
		if !m.takeoverColor.admit(value) {
			return
		}
		m.params.MidiColor = value
	}
	m.params.Color = value
	m.pushParams()
}

// SetSecondary routes one of the two secondary inputs according to the
// active operating mode.
func (m *Model) SetSecondary(which Secondary, value float32) {
	m.touch()
	value = clamp01(value)
	switch m.params.Mode {
	case picosynth.ModeFilter:
		if which == SecondaryA {
			m.params.Cutoff = uint8(value * 127)
		} else {
			m.params.Resonance = uint8(value * 127)
		}
	case picosynth.ModeCV:
		if which == SecondaryA {
			m.params.TimbreModDepth = value*2 - 1
		} else {
			m.params.ColorModDepth = value*2 - 1
		}
	case picosynth.ModeMIDI:
		// secondary inputs are idle while CCs own timbre and color
		return
	case picosynth.ModeFree:
		if which == SecondaryA {
			engine := picosynth.Shape(value * float32(picosynth.NumShapes))
			if engine >= picosynth.NumShapes {
				engine = picosynth.NumShapes - 1
			}
			m.params.Engine = engine
		} else {
			m.params.FMDepth = value*2 - 1
		}
	}
	m.pushParams()
}

// SetModSource updates the external modulation input sampled by the control
// context.
func (m *Model) SetModSource(value float32) {
	if value < -1 {
		value = -1
	} else if value > 1 {
		value = 1
	}
	m.params.ModSource = value
	m.pushParams()
}

// ToggleMode switches operating modes through the mode transition function;
// toggling the active mode falls back to the default filter mode.
func (m *Model) ToggleMode(target picosynth.Mode) {
	m.touch()
	m.params.Mode = m.params.Mode.Toggle(target)
	m.pushParams()
}

// SetChannel sets the 1-based MIDI receive channel.
func (m *Model) SetChannel(channel int) {
	if channel < 1 || channel > 16 {
		return
	}
	m.params.Channel = channel
	m.pushParams()
}

// SetScopeEnabled switches the oscilloscope capture on or off.
func (m *Model) SetScopeEnabled(enabled bool) {
	m.params.ScopeEnabled = enabled
	m.pushParams()
}

// Panic silences the engine.
func (m *Model) Panic() {
	TrySend(m.broker.ToEngine, any(PanicMsg{}))
}

// NextPage advances the encoder UI page.
func (m *Model) NextPage() {
	m.touch()
	m.uiPage = (m.uiPage + 1) % UIPages
}

// Page returns the current encoder UI page.
func (m *Model) Page() int { return m.uiPage }

// Tick runs the cooperative UI timers: after idling, the menu reverts to the
// front page. Called from the control loop at frame rate.
func (m *Model) Tick(now time.Time) {
	if m.uiPage != 0 && now.Sub(m.lastInput) > uiIdleRevert {
		m.uiPage = 0
	}
}

func (m *Model) touch() {
	m.lastInput = time.Now()
}

// ProcessMessages drains everything the engine sent since the last control
// frame.
func (m *Model) ProcessMessages() {
loop:
	for {
		select {
		case msg := <-m.broker.ToModel:
			if msg.HasVoiceLevels {
				m.voiceLevels = msg.VoiceLevels
				m.volume = msg.Volume
			}
			if a, ok := msg.Data.(Alert); ok {
				m.setAlert(a)
			}
		default:
			break loop
		}
	}
}

// VoiceLevels returns the latest per-voice envelope levels for the display.
func (m *Model) VoiceLevels() [picosynth.NumVoices]float32 {
	return m.voiceLevels
}

// Volume returns the latest output level measurement for the display.
func (m *Model) Volume() Volume {
	return m.volume
}

// Waveform copies the most recent oscilloscope capture into the model's
// display buffer and returns it; ok is false when no new capture arrived.
func (m *Model) Waveform() (data [ScopeSize]float32, ok bool) {
	if m.scope != nil && m.scope.Latest(m.waveform[:]) {
		ok = true
	}
	return m.waveform, ok
}

func (m *Model) setAlert(a Alert) {
	if a.Duration == 0 {
		a.Duration = defaultAlertDuration
	}
	m.alert = a
	m.alertUntil = time.Now().Add(a.Duration)
}

// Alert returns the alert currently on display, e.g. the transient "saved"
// flag.
func (m *Model) Alert(now time.Time) (Alert, bool) {
	if now.Before(m.alertUntil) {
		return m.alert, true
	}
	return Alert{}, false
}

func signedControl(value byte) float32 {
	return (float32(value) - 64) / 64
}
