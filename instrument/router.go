package instrument

import (
	picosynth "github.com/tixicoo/vija-pico-synth"
)

// Slew rates per block; pitch-FM reacts fastest, timbre and color move
// slowly enough to stay free of zipper noise.
const (
	fmSlewRate     = 0.25
	timbreSlewRate = 0.05
	colorSlewRate  = 0.05
)

// router resolves the active operating mode into the three per-block
// modulation targets and chases them through the dead-zone slew limiter. It
// runs on the audio context; the mode and its source values arrive in the
// Params snapshot.
type router struct {
	fm     float32
	timbre float32
	color  float32
}

func (r *router) resolve(p *picosynth.Params) {
	var fmTarget float32
	var timbreTarget, colorTarget float32
	switch p.Mode {
	case picosynth.ModeFilter:
		// secondary inputs steer the filter instead; timbre/color stay on
		// their bases
		timbreTarget = p.Timbre
		colorTarget = p.Color
	case picosynth.ModeCV:
		timbreTarget = clamp01(p.Timbre + p.TimbreModDepth*p.ModSource)
		colorTarget = clamp01(p.Color + p.ColorModDepth*p.ModSource)
	case picosynth.ModeMIDI:
		timbreTarget = p.MidiTimbre
		colorTarget = p.MidiColor
	case picosynth.ModeFree:
		fmTarget = p.FMDepth
		timbreTarget = p.Timbre
		colorTarget = p.Color
	}
	r.fm = deadZoneSlew(r.fm, fmTarget, fmSlewRate)
	r.timbre = deadZoneSlew(r.timbre, timbreTarget, timbreSlewRate)
	r.color = deadZoneSlew(r.color, colorTarget, colorSlewRate)
}
