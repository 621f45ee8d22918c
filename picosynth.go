package picosynth

import "io"

// Statically configured format of the instrument. The voice pool, the block
// loop and the wire format all assume these; they are not runtime options.
const (
	SampleRate = 32000
	BlockSize  = 32
	NumVoices  = 8
)

// AudioBuffer is a buffer of stereo samples of the form [][2]float32, where
// buffer[t][0] is the left channel and buffer[t][1] the right channel at
// sample t. The instrument is mono-summed, so both channels always carry the
// same value, but the device wire format is stereo.
type AudioBuffer [][2]float32

// Shape selects the macro oscillator algorithm of a voice.
type Shape int

const (
	Sine Shape = iota
	Trisaw
	Pulse
	NumShapes
)

func (s Shape) String() string {
	switch s {
	case Sine:
		return "Sine"
	case Trisaw:
		return "Trisaw"
	case Pulse:
		return "Pulse"
	}
	return "Unknown"
}

// Oscillator is the macro oscillator engine behind one voice. The voice pool
// treats it as a black box: it owns the internal phase/shape state and is
// never shared between voices.
//
// Pitch is given in 1/128ths of a semitone, 128*60 being middle C. Timbre and
// color are in [0, 32767]. Render fills out with one block of raw samples;
// sync, if non-nil, carries per-sample hard sync flags, which implementations
// may ignore.
type Oscillator interface {
	Init(sampleRate float32)
	SetShape(shape Shape)
	SetPitch(pitch int32)
	SetParameters(timbre, color uint16)
	Strike()
	Render(sync []bool, out []int16)
}

// FilterMode selects the filter response.
type FilterMode int

const (
	FilterLowPass FilterMode = iota
)

// Filter is the resonant filter shared by the mix bus, processing one sample
// at a time in a signed 16-bit fixed-point domain. Frequency and resonance
// are in [0, 65535].
type Filter interface {
	Init()
	SetMode(mode FilterMode)
	SetFrequency(value uint16)
	SetResonance(value uint16)
	Process(in int32) int32
}

// AudioContext is the audio output device. Play starts pulling 16-bit
// little-endian interleaved stereo samples from the reader until the returned
// CloserWaiter is closed.
type AudioContext interface {
	Play(r io.Reader) CloserWaiter
	Close() error
}

type CloserWaiter interface {
	Close() error
	Wait()
}
