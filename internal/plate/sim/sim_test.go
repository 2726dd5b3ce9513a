// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sim

import (
	"testing"

	"github.com/platinasystems/rgblcd/internal/mcp23017"
	"github.com/platinasystems/rgblcd/internal/plate"
	"github.com/platinasystems/rgblcd/internal/test"
)

const outputs = uint16(plate.ButtonMask)

func olat(t *testing.T, p *Plate, pins plate.Pins) {
	if err := p.WriteWordData(uint8(mcp23017.OLAT), uint16(pins)); err != nil {
		t.Fatal(err)
	}
}

// strobe clocks b into the controller, high nibble first.
func strobe(t *testing.T, p *Plate, rs bool, b byte) {
	base := plate.Pins(0).With(plate.RegisterSelect, rs)
	for _, n := range []uint8{b >> 4, b & 0xf} {
		olat(t, p, base.WithData(n)|plate.Enable)
		olat(t, p, base.WithData(n))
	}
}

// status reads both halves of the status register, returning the first.
func status(t *testing.T, p *Plate) plate.Pins {
	rw := plate.ReadWrite
	var first plate.Pins
	for i := 0; i < 2; i++ {
		olat(t, p, rw|plate.Enable)
		w, err := p.ReadWordData(uint8(mcp23017.GPIO))
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = plate.Pins(w)
		}
		olat(t, p, rw)
	}
	return first
}

func TestStrobes(t *testing.T) {
	assert := test.Assert{TB: t}
	p := New()
	assert.Nil(p.WriteWordData(uint8(mcp23017.IODIR), outputs))
	assert.False(p.DisplayOn())
	strobe(t, p, false, 0x80|0x41)
	strobe(t, p, true, 'A')
	strobe(t, p, false, 0x0c)
	assert.True(p.DisplayOn())
	assert.Equal(p.Line(1, 3), " A ")
	assert.Int(int(p.Addr()), 0x42)
	assert.Equal(string(p.Chars()), "A")
	assert.Equal(string(p.Commands()), "\xc1\x0c")
	assert.Int(p.Misdriven(), 0)
	assert.Int(int(p.Backlight()), 7)
	assert.Int(p.Count(WriteWord), 13)

	p.Reset()
	assert.Int(len(p.Ops()), 0)
	assert.Int(len(p.Chars()), 0)
	assert.Equal(p.Line(1, 3), " A ")
}

func TestBusy(t *testing.T) {
	assert := test.Assert{TB: t}
	p := New()
	p.BusyPolls = 1
	assert.Nil(p.WriteWordData(uint8(mcp23017.IODIR), outputs))
	strobe(t, p, true, 'x')
	assert.Nil(p.WriteWordData(uint8(mcp23017.IODIR),
		outputs|uint16(plate.DataMask)))
	assert.True(status(t, p).IsBusy())
	assert.False(status(t, p).IsBusy())

	p.StuckBusy = true
	assert.True(status(t, p).IsBusy())
	assert.True(status(t, p).IsBusy())

	// writing with the data pins released
	strobe(t, p, true, 'y')
	assert.Int(p.Misdriven(), 2)
}

func TestButtons(t *testing.T) {
	assert := test.Assert{TB: t}
	p := New()
	read := func() uint8 {
		w, err := p.ReadWordData(uint8(mcp23017.GPIO))
		assert.Nil(err)
		return plate.Pins(w).Buttons()
	}
	assert.Int(int(read()), 0x1f)
	p.Press(0x09)
	assert.Int(int(read()), 0x16)
	p.Release(0x01)
	assert.Int(int(read()), 0x17)
	// nothing lit while the color pins are inputs
	assert.Int(int(p.Backlight()), 0)
}

func TestFailAfter(t *testing.T) {
	assert := test.Assert{TB: t}
	p := New()
	p.FailAfter(1)
	assert.Nil(p.WriteByteData(uint8(mcp23017.GPPU), 0x1f))
	_, err := p.ReadByteData(uint8(mcp23017.GPPU))
	assert.Error(err, ErrInjected)
	assert.Error(p.WriteWordData(uint8(mcp23017.OLAT), 0), ErrInjected)
	p.Heal()
	v, err := p.ReadByteData(uint8(mcp23017.GPPU))
	assert.Nil(err)
	assert.Int(int(v), 0x1f)
	assert.Int(len(p.Ops()), 2)
}
