package instrument

import (
	"testing"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

// fakeFilter passes the signal through untouched.
type fakeFilter struct {
	frequency uint16
	resonance uint16
}

func (f *fakeFilter) Init()                              {}
func (f *fakeFilter) SetMode(mode picosynth.FilterMode)  {}
func (f *fakeFilter) SetFrequency(value uint16)          { f.frequency = value }
func (f *fakeFilter) SetResonance(value uint16)          { f.resonance = value }
func (f *fakeFilter) Process(in int32) int32             { return in }

func newTestEngine() (*Engine, *Broker) {
	broker := NewBroker()
	engine := NewEngine(broker, func() picosynth.Oscillator {
		return &fakeOscillator{level: 16384}
	}, &fakeFilter{})
	return engine, broker
}

func peak(out picosynth.AudioBuffer) float32 {
	var p float32
	for _, s := range out {
		v := s[0]
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

func TestEngineNoteLifecycle(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	engine.ProcessBlock(out)
	if peak(out) != 0 {
		t.Fatal("engine produced sound with no note held")
	}

	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}
	for i := 0; i < 20; i++ {
		engine.ProcessBlock(out)
	}
	if peak(out) == 0 {
		t.Fatal("held note produced no sound")
	}

	broker.ToEngine <- NoteOffMsg{Pitch: 60}
	for i := 0; i < 4000; i++ {
		engine.ProcessBlock(out)
	}
	if peak(out) != 0 {
		t.Fatalf("released note never decayed to silence, peak %v", peak(out))
	}
}

func TestEngineSustainPedal(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}
	engine.ProcessBlock(out)
	broker.ToEngine <- SustainMsg{Held: true}
	broker.ToEngine <- NoteOffMsg{Pitch: 60}
	engine.ProcessBlock(out)

	sustained := -1
	for i := range engine.pool.voices {
		if engine.pool.voices[i].sustained {
			sustained = i
			break
		}
	}
	if sustained == -1 {
		t.Fatal("no voice sustained after note-off with pedal down")
	}

	broker.ToEngine <- SustainMsg{Held: false}
	engine.ProcessBlock(out)
	v := &engine.pool.voices[sustained]
	if v.sustained || v.active {
		t.Fatal("voice still held after pedal lift")
	}
}

func TestEnginePanicSilencesImmediately(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}
	for i := 0; i < 10; i++ {
		engine.ProcessBlock(out)
	}
	broker.ToEngine <- PanicMsg{}
	engine.ProcessBlock(out)
	if peak(out) != 0 {
		t.Fatalf("output not silent right after panic, peak %v", peak(out))
	}
}

func TestEngineVolumeParameter(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	p := picosynth.DefaultParams()
	p.Volume = 0
	broker.ToEngine <- p
	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}
	for i := 0; i < 10; i++ {
		engine.ProcessBlock(out)
	}
	if peak(out) != 0 {
		t.Fatalf("zero volume still produced output, peak %v", peak(out))
	}
}

func TestEngineScopeHandoff(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	p := picosynth.DefaultParams()
	p.ScopeEnabled = true
	broker.ToEngine <- p
	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}

	// one capture needs ScopeSize decimated samples
	blocks := ScopeSize * scopeDecimation / picosynth.BlockSize
	for i := 0; i < blocks; i++ {
		engine.ProcessBlock(out)
	}
	var dst [ScopeSize]float32
	if !engine.Scope().Latest(dst[:]) {
		t.Fatal("no capture available after a full scope window")
	}
	if engine.Scope().Latest(dst[:]) {
		t.Fatal("capture handed out twice")
	}
	nonzero := false
	for _, v := range dst {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Fatal("capture of a sounding note is all zeros")
	}
}

// mutingFilter swallows the signal, so whatever leaks through is the dry path.
type mutingFilter struct {
	fakeFilter
}

func (f *mutingFilter) Process(in int32) int32 { return 0 }

func TestEngineFilterStageCarriesSignalInFilterMode(t *testing.T) {
	broker := NewBroker()
	engine := NewEngine(broker, func() picosynth.Oscillator {
		return &fakeOscillator{level: 16384}
	}, &mutingFilter{})
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	// default mode is filter mode: the crossfade must reach the wet path on
	// its own, with no control input beyond the held note
	broker.ToEngine <- any(NoteOnMsg{Pitch: 60, Velocity: 127})
	for i := 0; i < 400; i++ {
		engine.ProcessBlock(out)
	}
	if engine.filterMix < 0.99 {
		t.Fatalf("filter mix stuck at %v in filter mode", engine.filterMix)
	}
	if p := peak(out); p > 0.02 {
		t.Fatalf("muted wet path still leaves peak %v, the filter is not in the signal path", p)
	}

	// leaving filter mode follows the stored mix again, here the default 0
	p := picosynth.DefaultParams()
	p.Mode = picosynth.ModeFree
	broker.ToEngine <- any(p)
	for i := 0; i < 400; i++ {
		engine.ProcessBlock(out)
	}
	if engine.filterMix != 0 {
		t.Fatalf("filter mix %v after leaving filter mode", engine.filterMix)
	}
	if peak(out) < 0.05 {
		t.Fatal("dry path silent outside filter mode")
	}
}

func TestEngineVoiceLevelsReported(t *testing.T) {
	engine, broker := newTestEngine()
	out := make(picosynth.AudioBuffer, picosynth.BlockSize)

	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}
	engine.ProcessBlock(out)
	engine.ProcessBlock(out)

	got := false
	for len(broker.ToModel) > 0 {
		msg := <-broker.ToModel
		if msg.HasVoiceLevels && msg.VoiceLevels[0] > 0 {
			got = true
		}
	}
	if !got {
		t.Fatal("engine never reported a nonzero voice level")
	}
}

func TestEngineRead(t *testing.T) {
	engine, broker := newTestEngine()
	broker.ToEngine <- NoteOnMsg{Pitch: 60, Velocity: 127}

	// 16-bit stereo, so one block is BlockSize*4 bytes; read across the
	// block boundary in uneven chunks
	buf := make([]byte, picosynth.BlockSize*4+100)
	n, err := engine.Read(buf[:100])
	if n != 100 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	n, err = engine.Read(buf[100:])
	if n != len(buf)-100 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	nonzero := false
	for _, b := range buf[picosynth.BlockSize*4:] {
		if b != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Fatal("second block of a held note is all zero bytes")
	}
}
