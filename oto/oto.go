// Package oto adapts the oto/v3 audio device to the instrument's
// AudioContext contract. The device pulls 16-bit little-endian stereo
// samples from the reader it is given; handing it the engine makes the
// device's pull goroutine the audio context.
package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	picosynth "github.com/tixicoo/vija-pico-synth"
)

type Context struct {
	ctx *oto.Context
}

// NewContext initializes the audio device at the instrument's fixed format.
// The device buffer is kept short; latency past a few blocks defeats a
// playable instrument.
func NewContext() (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   picosynth.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   10 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Play starts pulling samples from r until the returned CloserWaiter is
// closed.
func (c *Context) Play(r io.Reader) picosynth.CloserWaiter {
	player := c.ctx.NewPlayer(r)
	player.Play()
	return playerCloserWaiter{player: player}
}

func (c *Context) Close() error {
	// oto contexts cannot be closed; suspending stops the device callbacks
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

type playerCloserWaiter struct {
	player *oto.Player
}

func (p playerCloserWaiter) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (p playerCloserWaiter) Wait() {
	for p.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}
