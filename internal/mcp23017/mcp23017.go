// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mcp23017 provides cached access to the register pairs of a
// Microchip MCP23017 16-bit I/O expander in its power-on IOCON.BANK=0
// layout, where each A register is immediately followed by its B twin.
package mcp23017

import "fmt"

// Reg is the address of the A half of a register pair; B is Reg+1.
type Reg uint8

const (
	IODIR   Reg = 0x00
	IPOL    Reg = 0x02
	GPINTEN Reg = 0x04
	DEFVAL  Reg = 0x06
	INTCON  Reg = 0x08
	IOCON   Reg = 0x0a
	GPPU    Reg = 0x0c
	INTF    Reg = 0x0e
	INTCAP  Reg = 0x10
	GPIO    Reg = 0x12
	OLAT    Reg = 0x14
)

// Address is the expander's base slave address; A2..A0 select 0x20-0x27.
const Address = 0x20

func (reg Reg) String() string {
	if s, found := map[Reg]string{
		IODIR:   "IODIR",
		IPOL:    "IPOL",
		GPINTEN: "GPINTEN",
		DEFVAL:  "DEFVAL",
		INTCON:  "INTCON",
		IOCON:   "IOCON",
		GPPU:    "GPPU",
		INTF:    "INTF",
		INTCAP:  "INTCAP",
		GPIO:    "GPIO",
		OLAT:    "OLAT",
	}[reg]; found {
		return s
	}
	if s, found := map[Reg]string{
		IODIR + 1: "IODIRB",
		GPPU + 1:  "GPPUB",
		GPIO + 1:  "GPIOB",
		OLAT + 1:  "OLATB",
	}[reg]; found {
		return s
	}
	return fmt.Sprintf("0x%02x", uint8(reg))
}

// Bus is the SMBus transport to one expander. Words are little-endian:
// the low byte goes to (or comes from) reg and the high byte to reg+1.
type Bus interface {
	ReadByteData(reg uint8) (uint8, error)
	WriteByteData(reg, v uint8) error
	ReadWordData(reg uint8) (uint16, error)
	WriteWordData(reg uint8, v uint16) error
}

// Value is the 16-bit content of a register pair, A in the low byte.
type Value uint16

func MakeValue(a, b uint8) Value { return Value(a) | Value(b)<<8 }

func (v Value) A() uint8 { return uint8(v) }
func (v Value) B() uint8 { return uint8(v >> 8) }

// TransportError is returned for any failed bus transaction.
type TransportError struct {
	Op  string
	Reg Reg
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
