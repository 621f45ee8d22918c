package instrument

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

const savedFlagDuration = 2 * time.Second

// SettingsStore is the persistent store behind the settings snapshot. Load
// returns (nil, nil) when no record exists.
type SettingsStore interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore persists the settings snapshot as a YAML file.
type FileStore struct {
	Path string
}

func (f FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f FileStore) Save(data []byte) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(f.Path, data, 0644)
}

// LoadSettings reads the persisted snapshot and applies it over the
// compiled-in defaults. Any failure, a missing record included, silently
// keeps the defaults and never writes back.
func (m *Model) LoadSettings(store SettingsStore) {
	m.lastSaved = nil
	data, err := store.Load()
	if err != nil || data == nil {
		m.ApplySettings(picosynth.DefaultSettings())
		return
	}
	settings := picosynth.DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		m.ApplySettings(picosynth.DefaultSettings())
		return
	}
	m.ApplySettings(settings)
	// remember the canonical form so an immediate unchanged save is a no-op
	if canonical, err := yaml.Marshal(settings); err == nil {
		m.lastSaved = canonical
	}
}

// SaveSettings persists the live snapshot. The marshaled bytes are compared
// against the last persisted copy and an identical snapshot skips the write
// entirely, sparing the storage device. A successful write raises the
// transient "saved" flag.
func (m *Model) SaveSettings(store SettingsStore) {
	data, err := yaml.Marshal(m.Settings())
	if err != nil {
		m.setAlert(Alert{Name: "SaveFailed", Message: err.Error(), Priority: Error})
		return
	}
	if bytes.Equal(data, m.lastSaved) {
		return
	}
	if err := store.Save(data); err != nil {
		m.setAlert(Alert{Name: "SaveFailed", Message: err.Error(), Priority: Warning})
		return
	}
	m.lastSaved = data
	m.setAlert(Alert{Name: "Saved", Message: "Settings saved", Priority: Info, Duration: savedFlagDuration})
}
