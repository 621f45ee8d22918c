package picosynth_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

func testBuffer() picosynth.AudioBuffer {
	buffer := make(picosynth.AudioBuffer, 100)
	for i := range buffer {
		buffer[i][0] = float32(i) / 100
		buffer[i][1] = -float32(i) / 100
	}
	return buffer
}

func TestWavPCM16(t *testing.T) {
	data, err := picosynth.Wav(testBuffer(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("bad RIFF header: % x", data[0:12])
	}
	if want := 44 + 100*2*2; len(data) != want {
		t.Fatalf("file length %d, want %d", len(data), want)
	}
	var rate uint32
	binary.Read(bytes.NewReader(data[24:28]), binary.LittleEndian, &rate)
	if rate != picosynth.SampleRate {
		t.Fatalf("sample rate %d", rate)
	}
}

func TestWavFloat(t *testing.T) {
	data, err := picosynth.Wav(testBuffer(), false)
	if err != nil {
		t.Fatal(err)
	}
	// float format carries an fmt extension and a fact chunk
	if want := 58 + 100*2*4; len(data) != want {
		t.Fatalf("file length %d, want %d", len(data), want)
	}
	var format uint16
	binary.Read(bytes.NewReader(data[20:22]), binary.LittleEndian, &format)
	if format != 3 {
		t.Fatalf("wave format %d, want 3 (IEEE float)", format)
	}
}

func TestRawPCM16Clamps(t *testing.T) {
	buffer := picosynth.AudioBuffer{{2, -2}}
	data, err := picosynth.Raw(buffer, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4 {
		t.Fatalf("raw length %d", len(data))
	}
	var samples [2]int16
	binary.Read(bytes.NewReader(data), binary.LittleEndian, &samples)
	if samples[0] != 32767 || samples[1] != -32768 {
		t.Fatalf("clipped samples %v", samples)
	}
}
