package picosynth_test

import (
	"testing"

	"gopkg.in/yaml.v3"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

func TestSettingsYAMLRoundTrip(t *testing.T) {
	in := picosynth.Settings{
		Volume:         0.75,
		Attack:         0.125,
		Release:        1.5,
		Engine:         int(picosynth.Pulse),
		Mode:           int(picosynth.ModeCV),
		Timbre:         0.25,
		Color:          0.5,
		FMDepth:        -0.5,
		TimbreModDepth: 0.5,
		ColorModDepth:  -0.25,
		Cutoff:         100,
		Resonance:      64,
		FilterMix:      0.5,
		Channel:        7,
		UIPage:         2,
		ScopeEnabled:   true,
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out picosynth.Settings
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if in != out {
		t.Fatalf("round trip changed the snapshot:\nin  %+v\nout %+v", in, out)
	}
}

func TestSettingsPartialRecordKeepsDefaults(t *testing.T) {
	s := picosynth.DefaultSettings()
	if err := yaml.Unmarshal([]byte("channel: 5\nvolume: 0.5\n"), &s); err != nil {
		t.Fatal(err)
	}
	p := s.Params()
	if p.Channel != 5 || p.Volume != 0.5 {
		t.Errorf("overridden fields: channel %d volume %v", p.Channel, p.Volume)
	}
	def := picosynth.DefaultParams()
	if p.Attack != def.Attack || p.Cutoff != def.Cutoff {
		t.Errorf("absent fields lost their defaults: %+v", p)
	}
}

func TestSettingsParamsClampsCorruptValues(t *testing.T) {
	s := picosynth.Settings{
		Volume:  2,
		Attack:  -1,
		Release: 100,
		Engine:  42,
		Mode:    -3,
		Timbre:  -0.5,
		FMDepth: 7,
		Cutoff:  200,
		Channel: 99,
	}
	p := s.Params()
	def := picosynth.DefaultParams()
	if p.Volume != 1 {
		t.Errorf("volume %v", p.Volume)
	}
	if p.Attack != def.Attack || p.Release != def.Release {
		t.Errorf("out-of-range envelope times accepted: %v %v", p.Attack, p.Release)
	}
	if p.Engine != def.Engine || p.Mode != def.Mode {
		t.Errorf("invalid enums accepted: %v %v", p.Engine, p.Mode)
	}
	if p.Timbre != 0 {
		t.Errorf("timbre %v", p.Timbre)
	}
	if p.FMDepth != 1 {
		t.Errorf("fm depth %v", p.FMDepth)
	}
	if p.Cutoff != def.Cutoff {
		t.Errorf("cutoff %v", p.Cutoff)
	}
	if p.Channel != def.Channel {
		t.Errorf("channel %v", p.Channel)
	}
}

func TestModeToggle(t *testing.T) {
	for _, tt := range []struct {
		current, target, want picosynth.Mode
	}{
		{picosynth.ModeFilter, picosynth.ModeCV, picosynth.ModeCV},
		{picosynth.ModeCV, picosynth.ModeCV, picosynth.ModeFilter},
		{picosynth.ModeCV, picosynth.ModeMIDI, picosynth.ModeMIDI},
		{picosynth.ModeFilter, picosynth.ModeFilter, picosynth.ModeFilter},
		{picosynth.ModeFree, picosynth.ModeFree, picosynth.ModeFilter},
	} {
		if got := tt.current.Toggle(tt.target); got != tt.want {
			t.Errorf("%v.Toggle(%v) = %v, want %v", tt.current, tt.target, got, tt.want)
		}
	}
}
