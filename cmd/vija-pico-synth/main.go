package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	picosynth "github.com/tixicoo/vija-pico-synth"
	"github.com/tixicoo/vija-pico-synth/instrument"
	"github.com/tixicoo/vija-pico-synth/instrument/gomidi"
	"github.com/tixicoo/vija-pico-synth/macro"
	"github.com/tixicoo/vija-pico-synth/midi"
	"github.com/tixicoo/vija-pico-synth/oto"
	"github.com/tixicoo/vija-pico-synth/version"
)

func main() {
	listFlag := flag.Bool("l", false, "List available MIDI inputs and exit.")
	midiInput := flag.String("m", "", "Open the first MIDI input whose name starts with this prefix. By default the first available input is used.")
	channel := flag.Int("c", 0, "MIDI channel (1-16); overrides the persisted setting.")
	settingsPath := flag.String("settings", defaultSettingsPath(), "Path of the persisted settings file.")
	wavOut := flag.String("w", "", "Render a demo sequence to this .wav file instead of playing live.")
	rawOut := flag.String("r", "", "Render a demo sequence to this .raw file instead of playing live.")
	seconds := flag.Float64("seconds", 4, "Length of the demo render.")
	pcm := flag.Bool("pcm", true, "Render 16-bit signed PCM instead of 32-bit float.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}

	broker := instrument.NewBroker()
	engine := instrument.NewEngine(broker, newOscillator, macro.NewSVF())
	model := instrument.NewModel(broker, engine.Scope())
	store := instrument.FileStore{Path: *settingsPath}
	model.LoadSettings(store)
	if *channel != 0 {
		model.SetChannel(*channel)
	}

	if *wavOut != "" || *rawOut != "" {
		if err := renderDemo(broker, engine, *wavOut, *rawOut, *seconds, *pcm); err != nil {
			fmt.Fprintf(os.Stderr, "could not render: %v\n", err)
			os.Exit(1)
		}
		return
	}

	midiContext := gomidi.NewContext()
	defer midiContext.Close()
	if *listFlag {
		for device := range midiContext.InputDevices {
			fmt.Println(device.String())
		}
		return
	}
	if err := midiContext.TryToOpenBy(*midiInput, *midiInput == ""); err != nil {
		fmt.Fprintf(os.Stderr, "no MIDI input: %v\n", err)
	}

	audioContext, err := oto.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioContext.Close()
	playWaiter := audioContext.Play(engine)
	defer playWaiter.Close()

	decoder := midi.NewStreamDecoder(model, model.Channel())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			model.Panic()
			model.SaveSettings(store)
			return
		case raw := <-midiContext.Events():
			decoder.Write(raw)
		case <-ticker.C:
			model.ProcessMessages()
			model.Tick(time.Now())
		}
	}
}

func newOscillator() picosynth.Oscillator {
	return macro.NewOscillator()
}

// renderDemo plays a short arpeggio through the full pipeline offline and
// writes the result to disk.
func renderDemo(broker *instrument.Broker, engine *instrument.Engine, wavPath, rawPath string, seconds float64, pcm bool) error {
	notes := []byte{48, 60, 63, 67, 70, 72}
	noteSpacing := picosynth.SampleRate / 2
	noteLength := picosynth.SampleRate * 2 / 5

	total := int(seconds * picosynth.SampleRate)
	buffer := make(picosynth.AudioBuffer, 0, total)
	block := make(picosynth.AudioBuffer, picosynth.BlockSize)
	note := 0
	for t := 0; t < total; t += picosynth.BlockSize {
		if t%noteSpacing == 0 && note < len(notes) {
			instrument.TrySend(broker.ToEngine, any(instrument.NoteOnMsg{Pitch: notes[note], Velocity: 100}))
			note++
		}
		for i := 0; i < note; i++ {
			off := i*noteSpacing + noteLength
			if t <= off && off < t+picosynth.BlockSize {
				instrument.TrySend(broker.ToEngine, any(instrument.NoteOffMsg{Pitch: notes[i]}))
			}
		}
		engine.ProcessBlock(block)
		buffer = append(buffer, block...)
	}

	if wavPath != "" {
		data, err := picosynth.Wav(buffer, pcm)
		if err != nil {
			return err
		}
		if err := os.WriteFile(wavPath, data, 0644); err != nil {
			return fmt.Errorf("could not write %v: %w", wavPath, err)
		}
	}
	if rawPath != "" {
		data, err := picosynth.Raw(buffer, pcm)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rawPath, data, 0644); err != nil {
			return fmt.Errorf("could not write %v: %w", rawPath, err)
		}
	}
	return nil
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vija-pico-synth.yml"
	}
	return filepath.Join(dir, "vija-pico-synth", "settings.yml")
}
