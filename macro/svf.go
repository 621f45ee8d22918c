package macro

import (
	"github.com/chewxy/math32"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

const (
	svfMinFreq = 20
	svfMaxFreq = 6000
)

// SVF is a topology-preserving-transform state-variable filter on the mix
// bus. The control values map exponentially onto cutoff frequency and onto
// damping, and the sample interface is the signed 16-bit fixed-point domain
// of the mix stage. The trapezoidal integrator update is stable over the
// whole cutoff range, the top of it included.
type SVF struct {
	mode picosynth.FilterMode
	g    float32 // integrator coefficient, tan(pi*fc/fs)
	k    float32 // 1/Q
	a1   float32
	a2   float32
	a3   float32
	ic1  float32
	ic2  float32
}

func NewSVF() *SVF {
	return &SVF{}
}

func (s *SVF) Init() {
	s.ic1 = 0
	s.ic2 = 0
	s.SetFrequency(65535)
	s.SetResonance(0)
}

func (s *SVF) SetMode(mode picosynth.FilterMode) {
	s.mode = mode
}

func (s *SVF) SetFrequency(value uint16) {
	octaves := math32.Log2(svfMaxFreq / svfMinFreq)
	fc := svfMinFreq * math32.Exp2(float32(value)/65535*octaves)
	s.g = math32.Tan(math32.Pi * fc / picosynth.SampleRate)
	s.updateCoefficients()
}

func (s *SVF) SetResonance(value uint16) {
	// k = 1/Q, from 2 (no resonance) down to 0.05 (Q = 20)
	s.k = 2 - float32(value)/65535*1.95
	s.updateCoefficients()
}

func (s *SVF) updateCoefficients() {
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

func (s *SVF) Process(in int32) int32 {
	x := float32(in) * (1.0 / 32768.0)
	v3 := x - s.ic2
	v1 := s.a1*s.ic1 + s.a2*v3
	v2 := s.ic2 + s.a2*s.ic1 + s.a3*v3
	s.ic1 = 2*v1 - s.ic1
	s.ic2 = 2*v2 - s.ic2
	out := v2 // FilterLowPass is the only mode
	v := int32(out * 32768)
	if v < -32768 {
		v = -32768
	}
	if v > 32767 {
		v = 32767
	}
	return v
}
