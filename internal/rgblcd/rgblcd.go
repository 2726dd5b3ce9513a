// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package rgblcd drives the 16x2 character display of an Adafruit RGB LCD
// plate. Bytes written to a Device are rendered as text with a subset of
// the VT100 cursor and erase sequences; see (*Device).Write.
package rgblcd

import (
	"errors"
	"fmt"
	"sync"

	"github.com/platinasystems/log"
	"github.com/platinasystems/rgblcd/internal/mcp23017"
	"github.com/platinasystems/rgblcd/internal/plate"
)

const (
	Rows = 2
	Cols = 16

	DefaultBusyRetries = 10

	// Stream writes hold the device for at most this many bytes.
	PageSize = 4096
)

var (
	ErrNoDevice          = errors.New("no such device")
	ErrResourceExhausted = errors.New("device table full")
)

// logPrint may be replaced by tests.
var logPrint = log.Print

// InitError is returned by New when a bring-up step fails.
type InitError struct {
	Step string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

type Config struct {
	// Name prefixes log messages, e.g. "i2c-1@0x20".
	Name string
	// BusyRetries bounds each busy-flag wait; zero means
	// DefaultBusyRetries.
	BusyRetries int
}

// Device is the state of one attached plate. Its exported methods
// serialize on the device.
type Device struct {
	mutex  sync.Mutex
	id     int
	name   string
	bus    mcp23017.Bus
	closed bool

	retries int

	iodir mcp23017.Cache
	gppu  mcp23017.Cache
	olat  mcp23017.Cache
	gpio  mcp23017.Cache

	color    Color
	row, col int
	esc      escape
}

// New brings up the plate on bus. On error, the device is unusable and
// the error is an *InitError.
func New(bus mcp23017.Bus, cfg Config) (*Device, error) {
	d := &Device{
		id:      -1,
		name:    cfg.Name,
		bus:     bus,
		retries: cfg.BusyRetries,
		iodir:   mcp23017.NewCache(mcp23017.IODIR),
		gppu:    mcp23017.NewCache(mcp23017.GPPU),
		olat:    mcp23017.NewCache(mcp23017.OLAT),
		gpio:    mcp23017.NewCache(mcp23017.GPIO),
	}
	if len(d.name) == 0 {
		d.name = "rgblcd"
	}
	if d.retries <= 0 {
		d.retries = DefaultBusyRetries
	}
	read := func(c *mcp23017.Cache) func() error {
		return func() error {
			_, err := c.Read(d.bus)
			return err
		}
	}
	write := func(c *mcp23017.Cache, p plate.Pins) func() error {
		return func() error { return c.Write(d.bus, p.Value()) }
	}
	command := func(c byte) func() error {
		return func() error { return d.command(c) }
	}
	for _, x := range []struct {
		step string
		do   func() error
	}{
		{"read pin directions", read(&d.iodir)},
		// buttons in; display, backlight, and control out
		{"initialize pin directions", write(&d.iodir, plate.ButtonMask)},
		{"read pin pullup resistors", read(&d.gppu)},
		{"initialize pin pullup resistors", write(&d.gppu, plate.ButtonMask)},
		{"read pin outputs", read(&d.olat)},
		{"initialize pin outputs", write(&d.olat, 0)},
		{"read pin inputs", read(&d.gpio)},
		{"enable LCD backlight", func() error { return d.setBacklight(On) }},
		{"run init sequence step 1", command(0x33)},
		{"run init sequence step 2", command(0x32)},
		{"change LCD function mode", command(functionSet | twoLine)},
		{"clear LCD", command(clearDisplay)},
		{"change LCD entry mode", command(entryModeSet | entryLeft)},
		{"change LCD options", command(displayControl | displayOn |
			cursorOn | blinkOn)},
	} {
		if err := x.do(); err != nil {
			logPrint("err", d.name, ": failed to ", x.step, ": ", err)
			return nil, &InitError{x.step, err}
		}
	}
	return d, nil
}

// ID is the identifier assigned by the Table, -1 if not registered.
func (d *Device) ID() int { return d.id }

func (d *Device) String() string { return d.name }

// Close blanks the display and turns it and its backlight off. Every
// step is attempted; the first failure is returned.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	var first error
	for _, x := range []struct {
		step string
		do   func() error
	}{
		{"clear display", func() error { return d.command(clearDisplay) }},
		{"turn display off", func() error {
			return d.command(displayControl)
		}},
		{"disable LCD backlight", func() error {
			return d.setBacklight(Off)
		}},
	} {
		if err := x.do(); err != nil {
			logPrint("err", d.name, ": failed to ", x.step, ": ", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Write renders p. It returns the number of bytes applied before the
// first bus failure. Each PageSize chunk is applied with the device held.
func (d *Device) Write(p []byte) (n int, err error) {
	for n < len(p) {
		chunk := p[n:]
		if len(chunk) > PageSize {
			chunk = chunk[:PageSize]
		}
		i, err := d.writeChunk(chunk)
		n += i
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (d *Device) writeChunk(p []byte) (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return 0, ErrNoDevice
	}
	for i, b := range p {
		if err := d.put(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Cursor returns the modeled cursor position.
func (d *Device) Cursor() (row, col int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.row, d.col
}
