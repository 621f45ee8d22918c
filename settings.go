package picosynth

// Settings is the flat snapshot of every persisted parameter. It is
// marshaled to YAML and compared byte-for-byte against the last persisted
// copy before any write, so an unchanged snapshot never touches the storage
// device.
type Settings struct {
	Volume         float32 `yaml:"volume"`
	Attack         float32 `yaml:"attack"`
	Release        float32 `yaml:"release"`
	Engine         int     `yaml:"engine"`
	Mode           int     `yaml:"mode"`
	Timbre         float32 `yaml:"timbre"`
	Color          float32 `yaml:"color"`
	FMDepth        float32 `yaml:"fmdepth"`
	TimbreModDepth float32 `yaml:"timbremoddepth"`
	ColorModDepth  float32 `yaml:"colormoddepth"`
	Cutoff         uint8   `yaml:"cutoff"`
	Resonance      uint8   `yaml:"resonance"`
	FilterMix      float32 `yaml:"filtermix"`
	Channel        int     `yaml:"channel"`
	UIPage         int     `yaml:"uipage"`
	ScopeEnabled   bool    `yaml:"scope"`
}

// DefaultSettings returns the compiled-in defaults. Loading merges a partial
// or missing persisted record over these, so every absent field keeps its
// default.
func DefaultSettings() Settings {
	p := DefaultParams()
	return SettingsFromParams(p, 0)
}

// SettingsFromParams builds a persistable snapshot from live parameters and
// the current encoder UI page.
func SettingsFromParams(p Params, uiPage int) Settings {
	return Settings{
		Volume:         p.Volume,
		Attack:         p.Attack,
		Release:        p.Release,
		Engine:         int(p.Engine),
		Mode:           int(p.Mode),
		Timbre:         p.Timbre,
		Color:          p.Color,
		FMDepth:        p.FMDepth,
		TimbreModDepth: p.TimbreModDepth,
		ColorModDepth:  p.ColorModDepth,
		Cutoff:         p.Cutoff,
		Resonance:      p.Resonance,
		FilterMix:      p.FilterMix,
		Channel:        p.Channel,
		UIPage:         uiPage,
		ScopeEnabled:   p.ScopeEnabled,
	}
}

// Params converts the snapshot back into live parameters, clamping fields
// that could have been corrupted in storage into their valid ranges.
func (s Settings) Params() Params {
	p := DefaultParams()
	p.Volume = clampUnit(s.Volume)
	if s.Attack > 0 && s.Attack <= 10 {
		p.Attack = s.Attack
	}
	if s.Release > 0 && s.Release <= 10 {
		p.Release = s.Release
	}
	if e := Shape(s.Engine); e >= 0 && e < NumShapes {
		p.Engine = e
	}
	if m := Mode(s.Mode); m >= ModeFilter && m <= ModeFree {
		p.Mode = m
	}
	p.Timbre = clampUnit(s.Timbre)
	p.Color = clampUnit(s.Color)
	p.FMDepth = clampSigned(s.FMDepth)
	p.TimbreModDepth = clampSigned(s.TimbreModDepth)
	p.ColorModDepth = clampSigned(s.ColorModDepth)
	if s.Cutoff <= 127 {
		p.Cutoff = s.Cutoff
	}
	if s.Resonance <= 127 {
		p.Resonance = s.Resonance
	}
	p.FilterMix = clampUnit(s.FilterMix)
	if s.Channel >= 1 && s.Channel <= 16 {
		p.Channel = s.Channel
	}
	p.ScopeEnabled = s.ScopeEnabled
	return p
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSigned(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
