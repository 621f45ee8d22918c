package macro

import (
	"testing"

	"github.com/chewxy/math32"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

func renderShape(shape picosynth.Shape, timbre, color uint16) []int16 {
	o := NewOscillator()
	o.Init(picosynth.SampleRate)
	o.SetShape(shape)
	o.SetPitch(69 * 128) // A4
	o.SetParameters(timbre, color)
	o.Strike()
	out := make([]int16, 1024)
	o.Render(nil, out)
	return out
}

func TestOscillatorShapes(t *testing.T) {
	for shape := picosynth.Shape(0); shape < picosynth.NumShapes; shape++ {
		t.Run(shape.String(), func(t *testing.T) {
			out := renderShape(shape, 16000, 16000)
			var positive, negative bool
			for _, s := range out {
				if s > 0 {
					positive = true
				}
				if s < 0 {
					negative = true
				}
				if s > 27000 || s < -27000 {
					t.Fatalf("sample %d exceeds the output headroom", s)
				}
			}
			if !positive || !negative {
				t.Fatal("waveform does not cross zero")
			}
		})
	}
}

func TestOscillatorStrikeIsDeterministic(t *testing.T) {
	o := NewOscillator()
	o.Init(picosynth.SampleRate)
	o.SetShape(picosynth.Trisaw)
	o.SetPitch(60 * 128)
	o.SetParameters(8000, 8000)

	a := make([]int16, 256)
	b := make([]int16, 256)
	o.Strike()
	o.Render(nil, a)
	o.Strike()
	o.Render(nil, b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs after restrike: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestOscillatorPitch(t *testing.T) {
	o := NewOscillator()
	o.Init(picosynth.SampleRate)
	o.SetPitch(69 * 128)
	want := float32(440) / picosynth.SampleRate
	if math32.Abs(o.increment-want) > 1e-6 {
		t.Errorf("A4 increment %v, want %v", o.increment, want)
	}
	o.SetPitch(81 * 128) // one octave up
	if math32.Abs(o.increment-2*want) > 1e-6 {
		t.Errorf("A5 increment %v, want %v", o.increment, 2*want)
	}
	o.SetPitch(69*128 + 64) // a quarter tone of fm offset raises the pitch
	if o.increment <= want {
		t.Errorf("positive fm offset did not raise the frequency: %v", o.increment)
	}
}

func TestOscillatorRejectsInvalidShape(t *testing.T) {
	o := NewOscillator()
	o.Init(picosynth.SampleRate)
	o.SetShape(picosynth.Pulse)
	o.SetShape(picosynth.NumShapes)
	o.SetShape(-1)
	if o.shape != picosynth.Pulse {
		t.Fatalf("shape = %v", o.shape)
	}
}

func TestSVFPassesDC(t *testing.T) {
	// the maximum cutoff is where the integrator coefficient is largest, so
	// this doubles as the stability check for a wide open filter
	for _, resonance := range []uint16{0, 32768, 65535} {
		f := NewSVF()
		f.Init()
		f.SetFrequency(65535)
		f.SetResonance(resonance)
		var out int32
		for i := 0; i < 2000; i++ {
			out = f.Process(10000)
		}
		if out < 9000 || out > 11000 {
			t.Fatalf("resonance %d: DC through a wide open lowpass came out as %d", resonance, out)
		}
	}
}

func TestSVFAttenuatesAboveCutoff(t *testing.T) {
	f := NewSVF()
	f.Init()
	f.SetFrequency(0) // cutoff at the bottom of the range
	f.SetResonance(0)
	// a fast square wave, far above 20 Hz
	var peak int32
	for i := 0; i < 4000; i++ {
		in := int32(10000)
		if i%8 >= 4 {
			in = -10000
		}
		out := f.Process(in)
		if out < 0 {
			out = -out
		}
		if i > 2000 && out > peak {
			peak = out
		}
	}
	if peak > 2000 {
		t.Fatalf("high frequency content passed a closed lowpass, peak %d", peak)
	}
}

func TestSVFStaysBounded(t *testing.T) {
	for _, frequency := range []uint16{0, 40000, 65535} {
		for _, resonance := range []uint16{0, 32768, 65535} {
			f := NewSVF()
			f.Init()
			f.SetFrequency(frequency)
			f.SetResonance(resonance)
			for i := 0; i < 10000; i++ {
				in := int32((i%64 - 32) * 1000)
				out := f.Process(in)
				if out < -32768 || out > 32767 {
					t.Fatalf("freq %d res %d: output %d left the sample domain", frequency, resonance, out)
				}
			}
			if math32.IsNaN(f.ic1) || math32.IsNaN(f.ic2) || math32.Abs(f.ic2) > 100 {
				t.Fatalf("freq %d res %d: filter state diverged: ic1 %v ic2 %v", frequency, resonance, f.ic1, f.ic2)
			}
		}
	}
}
