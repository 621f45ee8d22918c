package instrument

import (
	"github.com/chewxy/math32"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

// Volume is an average and peak level measurement in decibels, 0 dB being a
// full-scale signal.
type Volume struct {
	Average float32
	Peak    float32
}

// minVolume is a hard floor for the measurements, in decibels, preventing
// negative infinities on silence.
const minVolume = -100

// vuAnalyzer smooths the rendered mix into average and peak decibel readings
// for the level display. The average is an exponentially decaying mean of the
// decibel values; the peak uses separate attack and release time constants,
// attack much faster than release, so transients register but the needle
// falls back slowly.
type vuAnalyzer struct {
	volume       Volume
	alphaAverage float32
	alphaAttack  float32
	alphaRelease float32
}

func newVuAnalyzer() vuAnalyzer {
	return vuAnalyzer{
		volume:       Volume{Average: minVolume, Peak: minVolume},
		alphaAverage: onePoleCoefficient(0.3, picosynth.SampleRate),
		alphaAttack:  onePoleCoefficient(1.5e-3, picosynth.SampleRate),
		alphaRelease: onePoleCoefficient(1.5, picosynth.SampleRate),
	}
}

// analyze folds one block of the mono mix into the running measurement and
// returns the current reading. Audio context only.
func (v *vuAnalyzer) analyze(buffer []float32) Volume {
	for _, s := range buffer {
		dB := 10 * math32.Log10(s*s)
		if math32.IsNaN(dB) || dB < minVolume {
			dB = minVolume
		}
		v.volume.Average += (dB - v.volume.Average) * v.alphaAverage
		alphaPeak := v.alphaAttack
		if dB < v.volume.Peak {
			alphaPeak = v.alphaRelease
		}
		v.volume.Peak += (dB - v.volume.Peak) * alphaPeak
	}
	return v.volume
}
