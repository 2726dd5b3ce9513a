// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sim emulates an RGB LCD plate, expander and controller, at the
// bus level. It decodes enable strobes into controller nibbles, keeps
// display memory, answers busy-flag reads, and records every transaction.
package sim

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/platinasystems/rgblcd/internal/mcp23017"
	"github.com/platinasystems/rgblcd/internal/plate"
)

var ErrInjected = errors.New("injected bus fault")

type OpKind int

const (
	ReadByte OpKind = iota
	WriteByte
	ReadWord
	WriteWord
)

func (k OpKind) String() string {
	return [...]string{"rb", "wb", "rw", "ww"}[k]
}

// Op is one completed bus transaction.
type Op struct {
	Kind  OpKind
	Reg   uint8
	Value uint16
}

func (op Op) String() string {
	return fmt.Sprintf("%v %v=%#x", op.Kind, mcp23017.Reg(op.Reg), op.Value)
}

const (
	clearDisplay   = 0x01
	setDDRAMAddr   = 0x80
	displayControl = 0x08
	displayOn      = 0x04
	ddramSize      = 0x80
	lineLen        = 0x28
)

// Plate is safe for concurrent use.
type Plate struct {
	mutex sync.Mutex

	// BusyPolls is the number of status reads that report busy after
	// each executed instruction.
	BusyPolls int
	// StuckBusy makes every status read report busy.
	StuckBusy bool

	regs [0x16]uint8
	ops  []Op
	fail int

	pressed uint8

	half     bool
	nibble   uint8
	readLow  bool
	busy     int
	addr     uint8
	ddram    [ddramSize]byte
	display  bool
	commands []byte
	chars    []byte
	// nibbles latched while the data pins weren't driven
	misdriven int
}

func New() *Plate {
	p := new(Plate)
	// power-on: all pins input
	p.regs[mcp23017.IODIR] = 0xff
	p.regs[mcp23017.IODIR+1] = 0xff
	for i := range p.ddram {
		p.ddram[i] = ' '
	}
	return p
}

// FailAfter lets n more transactions succeed; every one after that
// fails with ErrInjected until Heal.
func (p *Plate) FailAfter(n int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.fail = n + 1
}

func (p *Plate) Heal() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.fail = 0
}

func (p *Plate) faulted() bool {
	if p.fail == 0 {
		return false
	}
	if p.fail > 1 {
		p.fail--
		return false
	}
	return true
}

func (p *Plate) ReadByteData(reg uint8) (uint8, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.faulted() {
		return 0, ErrInjected
	}
	v := p.read(reg)
	p.ops = append(p.ops, Op{ReadByte, reg, uint16(v)})
	return v, nil
}

func (p *Plate) WriteByteData(reg, v uint8) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.faulted() {
		return ErrInjected
	}
	p.ops = append(p.ops, Op{WriteByte, reg, uint16(v)})
	p.write(reg, v)
	return nil
}

func (p *Plate) ReadWordData(reg uint8) (uint16, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.faulted() {
		return 0, ErrInjected
	}
	w := uint16(p.read(reg)) | uint16(p.read(reg+1))<<8
	p.ops = append(p.ops, Op{ReadWord, reg, w})
	return w, nil
}

func (p *Plate) WriteWordData(reg uint8, w uint16) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.faulted() {
		return ErrInjected
	}
	p.ops = append(p.ops, Op{WriteWord, reg, w})
	pins := p.pins(mcp23017.OLAT)
	p.store(reg, uint8(w))
	p.store(reg+1, uint8(w>>8))
	p.clock(pins)
	return nil
}

func (p *Plate) write(reg, v uint8) {
	pins := p.pins(mcp23017.OLAT)
	p.store(reg, v)
	p.clock(pins)
}

func (p *Plate) store(reg, v uint8) {
	if int(reg) >= len(p.regs) {
		return
	}
	// writing the port writes the latch
	if mcp23017.Reg(reg&^1) == mcp23017.GPIO {
		reg += uint8(mcp23017.OLAT - mcp23017.GPIO)
	}
	p.regs[reg] = v
}

func (p *Plate) read(reg uint8) uint8 {
	if int(reg) >= len(p.regs) {
		return 0
	}
	if mcp23017.Reg(reg&^1) == mcp23017.GPIO {
		v := p.port().Value()
		if reg&1 != 0 {
			return v.B()
		}
		return v.A()
	}
	return p.regs[reg]
}

func (p *Plate) pins(reg mcp23017.Reg) plate.Pins {
	return plate.Pins(mcp23017.MakeValue(p.regs[reg], p.regs[reg+1]))
}

// port is the level on every pin: latch for outputs, the outside
// world for inputs.
func (p *Plate) port() plate.Pins {
	dir := p.pins(mcp23017.IODIR)
	olat := p.pins(mcp23017.OLAT)
	ext := plate.Pins(0).WithButtons(^p.pressed)
	if olat.Has(plate.ReadWrite|plate.Enable) && !olat.Has(plate.RegisterSelect) {
		ext = ext.WithData(p.status())
	}
	return olat&^dir | ext&dir
}

func (p *Plate) status() uint8 {
	if p.readLow {
		return p.addr & 0xf
	}
	n := (p.addr >> 4) & 0x7
	if p.StuckBusy || p.busy > 0 {
		n |= 0x8
	}
	return n
}

// clock looks for a falling enable edge between the previous latch and
// the current one.
func (p *Plate) clock(prev plate.Pins) {
	cur := p.pins(mcp23017.OLAT)
	if !prev.Has(plate.Enable) || cur.Has(plate.Enable) {
		return
	}
	if prev.Has(plate.ReadWrite) {
		if p.readLow && p.busy > 0 {
			p.busy--
		}
		p.readLow = !p.readLow
		return
	}
	if p.pins(mcp23017.IODIR)&plate.DataMask != 0 {
		p.misdriven++
	}
	if !p.half {
		p.nibble = prev.Data()
		p.half = true
		return
	}
	p.half = false
	p.execute(prev.Has(plate.RegisterSelect), p.nibble<<4|prev.Data())
}

func (p *Plate) execute(isChar bool, b byte) {
	p.busy = p.BusyPolls
	if isChar {
		p.chars = append(p.chars, b)
		p.ddram[p.addr] = b
		p.advance()
		return
	}
	p.commands = append(p.commands, b)
	switch {
	case b&setDDRAMAddr != 0:
		p.addr = b &^ setDDRAMAddr
		if p.addr&0x3f >= lineLen {
			p.addr &= 0x40
		}
	case b&0xf8 == displayControl:
		p.display = b&displayOn != 0
	case b&0xfe == 0x02:
		p.addr = 0
	case b == clearDisplay:
		for i := range p.ddram {
			p.ddram[i] = ' '
		}
		p.addr = 0
	}
}

func (p *Plate) advance() {
	p.addr++
	switch p.addr {
	case lineLen:
		p.addr = 0x40
	case 0x40 + lineLen:
		p.addr = 0
	}
}

// Press holds down the given raw button bits, select being bit 0.
func (p *Plate) Press(bits uint8) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pressed |= bits & 0x1f
}

func (p *Plate) Release(bits uint8) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pressed &^= bits
}

// Line returns the visible columns of the given row.
func (p *Plate) Line(row, cols int) string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	base := 0
	if row != 0 {
		base = 0x40
	}
	return string(p.ddram[base : base+cols])
}

func (p *Plate) Lines(cols int) string {
	return strings.Join([]string{p.Line(0, cols), p.Line(1, cols)}, "\n")
}

// Addr returns the controller's address counter.
func (p *Plate) Addr() uint8 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.addr
}

func (p *Plate) DisplayOn() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.display
}

// Backlight returns the lit color bits, red being bit 0; pins that
// aren't outputs stay dark.
func (p *Plate) Backlight() uint8 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	dir := p.pins(mcp23017.IODIR)
	olat := p.pins(mcp23017.OLAT)
	return ^olat.Color() & ^dir.Color() & 0x7
}

// Pins returns the current content of the given register pair.
func (p *Plate) Pins(reg mcp23017.Reg) plate.Pins {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.pins(reg)
}

func (p *Plate) Ops() []Op {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]Op(nil), p.ops...)
}

func (p *Plate) Count(kind OpKind) (n int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, op := range p.ops {
		if op.Kind == kind {
			n++
		}
	}
	return
}

// Commands returns the instruction bytes executed by the controller.
func (p *Plate) Commands() []byte {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]byte(nil), p.commands...)
}

// Chars returns the character bytes written to the controller.
func (p *Plate) Chars() []byte {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]byte(nil), p.chars...)
}

// Misdriven counts nibbles latched while the data pins weren't outputs.
func (p *Plate) Misdriven() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.misdriven
}

// Reset forgets the recorded transactions, commands, and characters.
func (p *Plate) Reset() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.ops = p.ops[:0]
	p.commands = p.commands[:0]
	p.chars = p.chars[:0]
}
