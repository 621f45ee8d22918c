package instrument

import (
	"time"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

type (
	// Broker is the message hub between the two execution contexts of the
	// instrument: the Engine (audio) and the Model (control). Communication
	// is one bounded channel per recipient and every send from the audio
	// side is non-blocking, so the Engine can never dead-lock or stall past
	// its block deadline waiting for the control side.
	Broker struct {
		ToEngine chan any
		ToModel  chan MsgToModel
	}

	// MsgToModel is a message sent to the Model. The frequently sent voice
	// levels are not boxed, to avoid allocations; everything infrequent goes
	// in Data as a pointer or small value.
	MsgToModel struct {
		HasVoiceLevels bool
		VoiceLevels    [picosynth.NumVoices]float32
		Volume         Volume

		Data any
	}

	// NoteOnMsg asks the engine to allocate a voice for a held note.
	NoteOnMsg struct {
		Pitch    byte
		Velocity byte
	}

	// NoteOffMsg asks the engine to release the voice holding Pitch, honoring
	// the engine's current sustain pedal state.
	NoteOffMsg struct {
		Pitch byte
	}

	// SustainMsg updates the sustain pedal state; releasing the pedal frees
	// every sustained voice into its release phase.
	SustainMsg struct {
		Held bool
	}

	// PanicMsg silences every voice immediately.
	PanicMsg struct{}

	// Alert is a transient user-visible notification, e.g. the "saved" flag
	// after a settings write.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
		Duration time.Duration
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func NewBroker() *Broker {
	return &Broker{
		ToEngine: make(chan any, 1024),
		ToModel:  make(chan MsgToModel, 1024),
	}
}

// TrySend sends a value to a channel if it is not full. It is guaranteed to
// be non-blocking. Returns true if the value was sent. Note that sends to
// ToEngine must wrap the message as any(...) at the call site, so T is
// inferred consistently from both arguments.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
