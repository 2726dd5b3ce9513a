// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package plate describes how the Adafruit RGB LCD plate wires its
// HD44780 character display, RGB backlight, and five buttons to the
// pins of the MCP23017 expander.
//
//	GPA0..GPA4	select, right, down, up, left buttons (active low)
//	GPA6, GPA7	red, green backlight (active low)
//	GPB0		blue backlight (active low)
//	GPB1..GPB4	LCD DB7, DB6, DB5, DB4
//	GPB5, GPB6, GPB7	LCD E, R/W, RS
package plate

import "github.com/platinasystems/rgblcd/internal/mcp23017"

// Pins is a named-field view of a 16-bit register pair value.
type Pins uint16

const (
	ButtonMask Pins = 0x1f << buttonShift
	ColorMask  Pins = 0x7 << colorShift
	DataMask   Pins = 0xf << dataShift

	// DB7 doubles as the controller's busy flag on status reads.
	Busy           Pins = 1 << dataShift
	Enable         Pins = 1 << 13
	ReadWrite      Pins = 1 << 14
	RegisterSelect Pins = 1 << 15
)

const (
	buttonShift = 0
	colorShift  = 6
	dataShift   = 9
)

// The data pins are wired in reverse, DB7 on the lowest bit.
var flip = [16]uint8{
	0x0, 0x8, 0x4, 0xc,
	0x2, 0xa, 0x6, 0xe,
	0x1, 0x9, 0x5, 0xd,
	0x3, 0xb, 0x7, 0xf,
}

func (p Pins) Value() mcp23017.Value { return mcp23017.Value(p) }

// With sets or clears the given pins.
func (p Pins) With(mask Pins, on bool) Pins {
	if on {
		return p | mask
	}
	return p &^ mask
}

func (p Pins) Has(mask Pins) bool { return p&mask == mask }

// Data returns the DB7..DB4 nibble with DB7 as bit 3.
func (p Pins) Data() uint8 {
	return flip[uint8((p&DataMask)>>dataShift)]
}

// WithData drives the low four bits of nibble onto DB7..DB4.
func (p Pins) WithData(nibble uint8) Pins {
	return p&^DataMask | Pins(flip[nibble&0xf])<<dataShift
}

// Color returns the raw, active-low, 3-bit backlight field.
func (p Pins) Color() uint8 { return uint8((p & ColorMask) >> colorShift) }

func (p Pins) WithColor(bits uint8) Pins {
	return p&^ColorMask | Pins(bits&0x7)<<colorShift
}

// Buttons returns the raw, active-low, 5-bit button field.
func (p Pins) Buttons() uint8 { return uint8((p & ButtonMask) >> buttonShift) }

func (p Pins) WithButtons(bits uint8) Pins {
	return p&^ButtonMask | Pins(bits&0x1f)<<buttonShift
}

func (p Pins) IsBusy() bool { return p.Has(Busy) }
