package instrument

import (
	"github.com/chewxy/math32"
)

const (
	slewHoldBand  = 0.005
	slewZeroBand  = 0.01
	slewSnapBand  = 0.001
	envZeroClamp  = 1e-4
	velSmoothRate = 0.1
)

// onePoleCoefficient converts a time constant in seconds into the per-sample
// coefficient of a one-pole filter. Callers gate the call behind a dirty
// flag; it is not meant to run every sample.
func onePoleCoefficient(timeConstant, sampleRate float32) float32 {
	return 1 - math32.Exp(-1/(sampleRate*timeConstant))
}

// deadZoneSlew steps current towards target with a tolerance band that holds
// instead of oscillating around the target. A target of exactly zero snaps to
// zero inside a wider band, guaranteeing convergence to full silence rather
// than an asymptotic approach through denormal territory.
func deadZoneSlew(current, target, rate float32) float32 {
	gap := math32.Abs(target - current)
	if target == 0 && gap < slewZeroBand {
		return 0
	}
	if gap < slewSnapBand {
		return target
	}
	if gap < slewHoldBand {
		return current
	}
	return current + (target-current)*rate
}
