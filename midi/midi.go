// Package midi triggers drum voices from a hardware MIDI input. Notes map to
// synth types roughly along General MIDI percussion and fire immediately at
// the current clock time, bypassing the step scheduler entirely.
package midi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/korvet-audio/korvet"
	"github.com/korvet-audio/korvet/seq"
)

type (
	// Context owns the rtmidi driver and at most one open input device.
	Context struct {
		driver     *rtmididrv.Driver
		currentIn  drivers.In
		stopListen func()
		clock      seq.Clock
		dispatcher seq.Dispatcher
	}

	// Device is one enumerated MIDI input, openable through its Context.
	Device struct {
		context *Context
		in      drivers.In
	}
)

// noteKinds maps General MIDI percussion keys to synth types. Unmapped keys
// are ignored.
var noteKinds = map[uint8]korvet.SynthKind{
	35: korvet.Kick, // acoustic bass drum
	36: korvet.Kick,
	37: korvet.Rim,
	38: korvet.Snare,
	39: korvet.Clap,
	40: korvet.Snare, // electric snare
	41: korvet.Tom,   // low floor tom
	42: korvet.HiHat, // closed
	43: korvet.Tom,
	45: korvet.Tom,
	46: korvet.HiHat, // open
	47: korvet.Tom,
	48: korvet.Tom,
	49: korvet.Perc1, // crash, nearest we have
	50: korvet.Tom,
	51: korvet.Perc2, // ride
	56: korvet.Perc1, // cowbell
	63: korvet.Perc2, // open hi conga
}

// NewContext opens the rtmidi driver. Incoming note-ons are dispatched to
// the given target at the clock's current time. A nil driver (no MIDI
// support on this system) is tolerated; Open then fails per device.
func NewContext(clock seq.Clock, dispatcher seq.Dispatcher) *Context {
	c := &Context{clock: clock, dispatcher: dispatcher}
	// no driver just means no devices to enumerate
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices iterates over the available MIDI inputs.
func (c *Context) InputDevices(yield func(Device) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(Device{context: c, in: in}) {
			break
		}
	}
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// the first input of any name if takeFirst is set. Returns an error if no
// device matched or opening failed.
func (c *Context) TryToOpenBy(namePrefix string, takeFirst bool) error {
	var opened error
	found := false
	for device := range c.InputDevices {
		if takeFirst || strings.HasPrefix(device.String(), namePrefix) {
			found = true
			opened = device.Open()
			break
		}
	}
	if !found {
		if takeFirst {
			return errors.New("no MIDI inputs available")
		}
		return fmt.Errorf("no MIDI input starting with %q", namePrefix)
	}
	return opened
}

// Open the input device, closing the currently open one if necessary.
func (d Device) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.handleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn = d.in
	c.stopListen = stop
	return nil
}

func (d Device) String() string {
	return d.in.String()
}

// HasDeviceOpen reports whether an input is currently open.
func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// Close stops listening and releases the driver.
func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

func (c *Context) closeCurrent() {
	if c.stopListen != nil {
		c.stopListen()
		c.stopListen = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

// handleMessage runs on the driver's listener goroutine. Note-offs are
// meaningless for one-shot drum voices and are dropped.
func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	if !msg.GetNoteOn(&channel, &key, &velocity) {
		return
	}
	kind, ok := noteKinds[key]
	if !ok {
		return
	}
	c.dispatcher.Trigger(kind, c.clock.CurrentTime(), float64(velocity)/127, nil)
}
