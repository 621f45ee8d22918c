// Package gomidi connects a hardware MIDI input to the instrument's
// byte-stream decoder via the rtmidi driver. Received messages are forwarded
// as raw wire bytes over a bounded channel, so the control loop can feed them
// to the decoder at its own pace; when the channel is full, messages are
// dropped rather than blocking the driver callback.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	Context struct {
		driver             *rtmididrv.Driver
		currentIn          drivers.In
		inputDevices       []Device
		devicesInitialized bool
		events             chan []byte
	}

	Device struct {
		context *Context
		in      drivers.In
	}
)

// NewContext opens the rtmidi driver. A nil driver simply means no MIDI
// input is available; the instrument still runs.
func NewContext() *Context {
	c := &Context{events: make(chan []byte, 1024)}
	c.driver, _ = rtmididrv.New()
	return c
}

// Events is the stream of raw MIDI wire bytes, one message per element.
func (c *Context) Events() <-chan []byte { return c.events }

// InputDevices iterates over the available MIDI inputs. The device list is
// queried from the driver once, in full, before anything is yielded, so an
// early break never caches a truncated list.
func (c *Context) InputDevices(yield func(Device) bool) {
	if !c.devicesInitialized {
		if c.driver == nil {
			return
		}
		ins, err := c.driver.Ins()
		if err != nil {
			return
		}
		for _, in := range ins {
			c.inputDevices = append(c.inputDevices, Device{context: c, in: in})
		}
		c.devicesInitialized = true
	}
	for _, device := range c.inputDevices {
		if !yield(device) {
			return
		}
	}
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// the first available input when takeFirst is set.
func (c *Context) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	var opened error = errors.New("no matching MIDI input found")
	for device := range c.InputDevices {
		if takeFirst || strings.HasPrefix(device.String(), namePrefix) {
			opened = device.Open()
			break
		}
	}
	return opened
}

// Open opens an input device, closing the currently open one if necessary.
func (d Device) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, c.handleMessage); err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d Device) String() string { return d.in.String() }

func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	raw := make([]byte, len(msg))
	copy(raw, msg)
	select {
	case c.events <- raw: // if the channel is full, just drop the message
	default:
	}
}
