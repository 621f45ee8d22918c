package picosynth

// Mode is the operating mode of the modulation router. Exactly one mode is
// active at a time; the control context switches modes only through Toggle so
// the mutual exclusion cannot be broken by flag combinations.
type Mode int

const (
	// ModeFilter is the default: the secondary inputs steer filter cutoff and
	// resonance.
	ModeFilter Mode = iota
	// ModeCV: the secondary inputs scale modulation depths applied to timbre
	// and color from the external modulation source.
	ModeCV
	// ModeMIDI: timbre and color follow MIDI CCs, with soft takeover against
	// the physical inputs.
	ModeMIDI
	// ModeFree: the secondary inputs select the oscillator engine and drive
	// pitch-FM directly.
	ModeFree
)

func (m Mode) String() string {
	switch m {
	case ModeFilter:
		return "Filter"
	case ModeCV:
		return "CV"
	case ModeMIDI:
		return "MIDI"
	case ModeFree:
		return "Free"
	}
	return "Unknown"
}

// Toggle returns the mode that results from toggling target: selecting the
// already-active mode falls back to ModeFilter, anything else switches to
// target.
func (m Mode) Toggle(target Mode) Mode {
	if m == target {
		return ModeFilter
	}
	return target
}

// Params is the complete shared parameter state read by the audio context
// every block. The control context keeps the authoritative copy and sends the
// whole struct by value over the broker whenever anything changes, so the
// audio side always sees a consistent snapshot; stale snapshots are tolerated
// and self-correct on the next send.
type Params struct {
	Volume  float32 // output gain, 0..1
	Attack  float32 // envelope attack time constant, seconds
	Release float32 // envelope release time constant, seconds

	Engine Shape // macro oscillator algorithm
	Mode   Mode

	Timbre float32 // base timbre, 0..1
	Color  float32 // base color, 0..1

	MidiTimbre float32 // last CC-written timbre, 0..1 (ModeMIDI)
	MidiColor  float32 // last CC-written color, 0..1 (ModeMIDI)

	FMDepth        float32 // pitch-FM amount, -1..1 (ModeFree)
	TimbreModDepth float32 // modulation depth applied to timbre, -1..1 (ModeCV)
	ColorModDepth  float32 // modulation depth applied to color, -1..1 (ModeCV)
	ModSource      float32 // external modulation input, -1..1

	Cutoff    uint8   // raw filter cutoff, 0..127
	Resonance uint8   // raw filter resonance, 0..127
	FilterMix float32 // wet amount of the filter stage, 0..1; ModeFilter overrides it to fully wet

	Channel      int // MIDI channel, 1-based
	ScopeEnabled bool
}

// DefaultParams returns the compiled-in parameter state, also used as the
// fallback when no persisted settings can be loaded.
func DefaultParams() Params {
	return Params{
		Volume:    0.8,
		Attack:    0.005,
		Release:   0.2,
		Engine:    Sine,
		Mode:      ModeFilter,
		Timbre:    0.5,
		Color:     0.5,
		Cutoff:    127,
		Resonance: 0,
		FilterMix: 0,
		Channel:   1,
	}
}
