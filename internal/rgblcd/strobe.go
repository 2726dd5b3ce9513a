// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

import "github.com/platinasystems/rgblcd/internal/plate"

// HD44780 instructions
const (
	clearDisplay   = 0x01
	returnHome     = 0x02
	entryModeSet   = 0x04
	displayControl = 0x08
	functionSet    = 0x20
	setDDRAMAddr   = 0x80

	entryLeft = 0x02

	displayOn = 0x04
	cursorOn  = 0x02
	blinkOn   = 0x01

	twoLine = 0x08
)

// command writes an instruction. Clear and home run long enough that
// the next write must poll the busy flag, so they leave the data pins
// as inputs.
func (d *Device) command(c byte) error {
	if err := d.write(false, c); err != nil {
		return err
	}
	if c == clearDisplay || c == returnHome {
		return d.releaseData()
	}
	return nil
}

// write clocks b into the controller as two nibbles, high first. Each
// step goes through the latch cache so unchanged steps cost nothing.
func (d *Device) write(isChar bool, b byte) error {
	if err := d.waitUntilReady(); err != nil {
		return err
	}
	mode := d.latch().
		With(plate.ReadWrite, false).
		With(plate.RegisterSelect, isChar)
	hi := mode.WithData(b >> 4)
	lo := mode.WithData(b)
	for _, p := range []plate.Pins{
		mode,
		hi.With(plate.Enable, true),
		hi.With(plate.Enable, false),
		lo.With(plate.Enable, true),
		lo.With(plate.Enable, false),
	} {
		if err := d.olat.Write(d.bus, p.Value()); err != nil {
			logPrint("err", d.name, ": failed to update OLAT during strobe: ", err)
			return err
		}
	}
	return nil
}

// dataDriven is true while the expander drives the LCD data pins; that
// is, right after bring-up or after a completed wait, when the
// controller can't be mid-instruction.
func (d *Device) dataDriven() bool {
	return plate.Pins(d.iodir.Value())&plate.DataMask == 0
}

func (d *Device) releaseData() error {
	return d.iodir.Write(d.bus,
		(plate.Pins(d.iodir.Value()) | plate.DataMask).Value())
}

func (d *Device) driveData() error {
	return d.iodir.Write(d.bus,
		(plate.Pins(d.iodir.Value()) &^ plate.DataMask).Value())
}

func (d *Device) latch() plate.Pins { return plate.Pins(d.olat.Value()) }

// waitUntilReady polls the busy flag with a bounded number of status
// reads. A flag that never clears is logged and ignored. Bus errors
// return at once with the data pins left as inputs, so the next write
// waits again before driving them.
func (d *Device) waitUntilReady() error {
	if d.dataDriven() {
		return nil
	}
	if err := d.releaseData(); err != nil {
		return err
	}
	idle := d.latch().
		WithData(0).
		With(plate.Enable, false).
		With(plate.ReadWrite, true).
		With(plate.RegisterSelect, false)
	strobe := idle.With(plate.Enable, true)
	if err := d.olat.Write(d.bus, idle.Value()); err != nil {
		return err
	}
	polls, busy := 0, true
	for busy && polls < d.retries {
		polls++
		// busy flag and high address nibble
		if err := d.olat.Write(d.bus, strobe.Value()); err != nil {
			return err
		}
		v, err := d.gpio.Read(d.bus)
		if err != nil {
			return err
		}
		if err = d.olat.Write(d.bus, idle.Value()); err != nil {
			return err
		}
		// low address nibble
		if err = d.olat.Write(d.bus, strobe.Value()); err != nil {
			return err
		}
		if err = d.olat.Write(d.bus, idle.Value()); err != nil {
			return err
		}
		busy = plate.Pins(v).IsBusy()
	}
	if busy {
		logPrint("warn", d.name, ": timed out waiting for write, ",
			"continuing anyways...")
	} else if polls > 4 {
		logPrint("info", d.name, ": waited ", polls, " times for write")
	}
	if err := d.olat.Write(d.bus,
		idle.With(plate.ReadWrite, false).Value()); err != nil {
		return err
	}
	return d.driveData()
}
