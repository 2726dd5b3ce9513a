// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/platinasystems/rgblcd/internal/mcp23017"
	"github.com/platinasystems/rgblcd/internal/plate"
	"github.com/platinasystems/rgblcd/internal/plate/sim"
	"github.com/platinasystems/rgblcd/internal/test"
)

// logs collects what the package would have sent to the system log.
var logs struct {
	sync.Mutex
	lines []string
}

func TestMain(m *testing.M) {
	logPrint = func(args ...interface{}) {
		logs.Lock()
		defer logs.Unlock()
		var pri string
		if len(args) > 0 {
			pri, _ = args[0].(string)
			args = args[1:]
		}
		logs.lines = append(logs.lines, pri+": "+fmt.Sprint(args...))
	}
	os.Exit(m.Run())
}

func resetLogs() {
	logs.Lock()
	defer logs.Unlock()
	logs.lines = logs.lines[:0]
}

func logged(prefix string) (n int) {
	logs.Lock()
	defer logs.Unlock()
	for _, line := range logs.lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return
}

// attach brings up a device on a fresh emulated plate and forgets the
// bring-up traffic.
func attach(t *testing.T, cfg Config) (*Device, *sim.Plate) {
	t.Helper()
	p := sim.New()
	d, err := New(p, cfg)
	if err != nil {
		t.Fatal(err)
	}
	p.Reset()
	resetLogs()
	return d, p
}

func write(t *testing.T, d *Device, s string) {
	t.Helper()
	n, err := d.Write([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	if n != len(s) {
		t.Fatalf("wrote %d of %d", n, len(s))
	}
}

func cursor(d *Device) string {
	row, col := d.Cursor()
	return fmt.Sprintf("%d,%d", row, col)
}

func TestBringUp(t *testing.T) {
	assert := test.Assert{TB: t}
	p := sim.New()
	d, err := New(p, Config{})
	assert.Nil(err)
	assert.Equal(d.String(), "rgblcd")
	assert.Int(d.ID(), -1)
	assert.Equal(fmt.Sprintf("% x", p.Commands()), "33 32 28 01 06 0f")
	assert.True(p.DisplayOn())
	assert.Int(int(p.Backlight()), int(On))
	assert.True(p.Pins(mcp23017.IODIR) == plate.ButtonMask)
	assert.True(p.Pins(mcp23017.GPPU) == plate.ButtonMask)
	assert.Int(p.Misdriven(), 0)
	assert.Equal(cursor(d), "0,0")
	assert.Equal(d.BacklightAttr(), "7\n")
}

func TestBringUpFailure(t *testing.T) {
	for i, step := range []string{
		"read pin directions",
		"initialize pin directions",
		"read pin pullup resistors",
		"initialize pin pullup resistors",
		// the latch is already zero so its write is skipped
		"read pin outputs",
		"read pin inputs",
		"run init sequence step 1",
	} {
		t.Run(step, func(t *testing.T) {
			assert := test.Assert{TB: t}
			resetLogs()
			p := sim.New()
			p.FailAfter(i)
			d, err := New(p, Config{Name: "i2c-0@0x20"})
			assert.True(d == nil)
			var ie *InitError
			assert.True(errors.As(err, &ie))
			assert.Equal(ie.Step, step)
			assert.Error(err, sim.ErrInjected)
			assert.Match(err.Error(), "^failed to "+step+": ")
			assert.Int(logged("err: i2c-0@0x20: failed to "+step), 1)
		})
	}
}

func TestChars(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "hello")
	assert.Equal(string(p.Chars()), "hello")
	assert.Int(len(p.Commands()), 0)
	assert.Equal(cursor(d), "0,5")
	write(t, d, "world")
	assert.Equal(string(p.Chars()), "helloworld")
	assert.Equal(cursor(d), "0,10")
	assert.Equal(p.Line(0, Cols), "helloworld      ")
	// no status reads while nothing slow ran
	assert.Int(p.Count(sim.ReadWord), 0)
	assert.Int(p.Misdriven(), 0)
}

func TestCharsDroppedPastLastColumn(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "0123456789abcdefXYZ")
	assert.Equal(string(p.Chars()), "0123456789abcdef")
	assert.Equal(cursor(d), "0,16")
	assert.Equal(p.Line(1, Cols), strings.Repeat(" ", Cols))
}

func TestCharStrobes(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "a")
	// mode, then two enable pulses, each on the second latch byte only
	assert.Int(p.Count(sim.WriteByte), 5)
	p.Reset()
	write(t, d, "b")
	// mode is unchanged from the previous character
	assert.Int(p.Count(sim.WriteByte), 4)
	assert.Int(p.Count(sim.WriteWord), 0)
}

func TestNewline(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "hello")
	p.Reset()
	write(t, d, "\n")
	assert.Equal(cursor(d), "1,0")
	assert.Equal(string(p.Chars()), strings.Repeat(" ", Cols))
	assert.Equal(fmt.Sprintf("% x", p.Commands()), "c0 c0")
	assert.Int(int(p.Addr()), 0x40)
	write(t, d, "there")
	assert.Equal(p.Lines(Cols), "hello           \nthere           ")
	write(t, d, "\n")
	assert.Equal(p.Lines(Cols), strings.Repeat(" ", Cols)+"\nthere           ")
	assert.Equal(cursor(d), "0,0")
}

func TestVerticalMoves(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	for _, x := range []struct {
		seq, expect string
	}{
		{"\x1b[3A", "1,0"},
		{"\x1b[2A", "1,0"},
		{"\x1b[A", "0,0"},
		{"\x1b[B", "1,0"},
		{"\x1b[1B", "0,0"},
		{"\x1b[4B", "0,0"},
	} {
		write(t, d, x.seq)
		assert.Equal(cursor(d), x.expect)
	}
	write(t, d, "abc\x1b[E")
	assert.Equal(cursor(d), "1,0")
	write(t, d, "de\x1b[F")
	assert.Equal(cursor(d), "0,0")
	assert.Int(int(p.Addr()), 0)
}

func TestHorizontalMoves(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	for _, x := range []struct {
		seq, expect string
	}{
		{"\x1b[C", "0,1"},
		{"\x1b[5C", "0,6"},
		{"\x1b[D", "0,5"},
		{"\x1b[9D", "0,0"},
		{"\x1b[99G", "0,16"},
		{"\x1b[3G", "0,2"},
		{"\x1b[G", "0,0"},
		{"\x1b[40C", "0,16"},
		{"\x1b[99999999999999C", "0,16"},
	} {
		write(t, d, x.seq)
		assert.Equal(cursor(d), x.expect)
	}
	assert.Int(int(p.Addr()), Cols)
}

func TestPosition(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	for _, x := range []struct {
		seq, expect string
		addr        int
	}{
		{"\x1b[2;5H", "1,4", 0x44},
		{"\x1b[H", "0,0", 0x00},
		{"\x1b[;3H", "0,2", 0x02},
		{"\x1b[2f", "1,0", 0x40},
		{"\x1b[9;99f", "1,16", 0x50},
		{"\x1b[1;2;3;4;5;6H", "0,1", 0x01},
	} {
		write(t, d, x.seq)
		assert.Equal(cursor(d), x.expect)
		assert.Int(int(p.Addr()), x.addr)
	}
}

func TestEraseDisplay(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "top\nbottom")
	p.Reset()
	write(t, d, "\x1b[2J")
	assert.Equal(fmt.Sprintf("% x", p.Commands()), "01")
	assert.Equal(cursor(d), "0,0")
	assert.Equal(p.Lines(Cols), strings.Repeat(" ", Cols)+"\n"+
		strings.Repeat(" ", Cols))
	write(t, d, "x")
	assert.Equal(p.Line(0, Cols), "x"+strings.Repeat(" ", Cols-1))
	assert.Int(p.Misdriven(), 0)
}

func TestEraseInLine(t *testing.T) {
	for _, x := range []struct {
		seq, line string
		blanks    int
	}{
		{"\x1b[1K", "          klmnop", 10},
		{"\x1b[2K", "                ", 16},
		{"\x1b[K", "abcdefghij      ", 6},
		{"\x1b[0K", "abcdefghij      ", 6},
	} {
		t.Run(fmt.Sprintf("%q", x.seq), func(t *testing.T) {
			assert := test.Assert{TB: t}
			d, p := attach(t, Config{})
			write(t, d, "abcdefghijklmnop\x1b[11G")
			assert.Equal(cursor(d), "0,10")
			p.Reset()
			write(t, d, x.seq)
			assert.Equal(p.Line(0, Cols), x.line)
			assert.Equal(string(p.Chars()), strings.Repeat(" ", x.blanks))
			assert.Equal(cursor(d), "0,10")
			assert.Int(int(p.Addr()), 10)
		})
	}
}

func TestDiscardedSequences(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "\x1b[5Z\x1bQa\x1b[12;34m\x1b[")
	assert.Equal(string(p.Chars()), "a")
	assert.Equal(cursor(d), "0,1")
	// the sequence left open above ends at the b
	write(t, d, "7b")
	assert.Equal(string(p.Chars()), "a")
	write(t, d, "c")
	assert.Equal(string(p.Chars()), "ac")
	assert.Int(len(p.Commands()), 0)
}

func TestBusyTimeout(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{BusyRetries: 3})
	p.StuckBusy = true
	write(t, d, "\x1b[J")
	p.Reset()
	write(t, d, "x")
	assert.Int(p.Count(sim.ReadWord), 3)
	assert.Int(logged("warn: rgblcd: timed out"), 1)
	assert.Equal(string(p.Chars()), "x")
	// the data pins are back to outputs, so no more waiting
	p.Reset()
	write(t, d, "y")
	assert.Int(p.Count(sim.ReadWord), 0)
	assert.Int(p.Misdriven(), 0)
}

func TestBusyWait(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	p.BusyPolls = 6
	write(t, d, "\x1b[J")
	p.Reset()
	write(t, d, "x")
	assert.Int(p.Count(sim.ReadWord), 7)
	assert.Int(logged("warn:"), 0)
	assert.Int(logged("info: rgblcd: waited 7 times"), 1)
	assert.Equal(string(p.Chars()), "x")
	assert.True(p.Pins(mcp23017.IODIR) == plate.ButtonMask)
}

func TestBusyWaitTransportError(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "\x1b[J")
	// the first status read fails after the idle and strobe latches
	p.FailAfter(2)
	n, err := d.Write([]byte("x"))
	assert.Int(n, 0)
	assert.Error(err, sim.ErrInjected)
	assert.True(p.Pins(mcp23017.IODIR)&plate.DataMask == plate.DataMask)
	p.Heal()
	write(t, d, "x")
	assert.Equal(p.Line(0, Cols), "x"+strings.Repeat(" ", Cols-1))
	assert.True(p.Pins(mcp23017.IODIR) == plate.ButtonMask)
	assert.Int(p.Misdriven(), 0)
}

func TestPartialWrite(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	// "a" takes five latch writes, "b" gets through two of its four
	p.FailAfter(7)
	n, err := d.Write([]byte("abc"))
	assert.Int(n, 1)
	assert.Error(err, sim.ErrInjected)
	assert.Equal(string(p.Chars()), "a")
	assert.Equal(cursor(d), "0,1")
}

func TestLargeWrite(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	b := []byte(strings.Repeat("z", PageSize+100))
	n, err := d.Write(b)
	assert.Nil(err)
	assert.Int(n, len(b))
	assert.Int(len(p.Chars()), Cols)
}

func TestBacklight(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	assert.Nil(d.SetBacklightAttr("red"))
	assert.Equal(d.BacklightAttr(), "1\n")
	assert.Int(int(p.Backlight()), 1)
	assert.Nil(d.SetBacklightAttr("7"))
	assert.Equal(d.BacklightAttr(), "7\n")
	p.Reset()
	err := d.SetBacklightAttr("purple")
	assert.Error(err, ErrInvalidColor)
	assert.Equal(d.BacklightAttr(), "7\n")
	assert.Int(len(p.Ops()), 0)
	assert.Nil(d.SetBacklightAttr(" Teal\n"))
	assert.True(d.Backlight() == Teal)
	assert.Int(int(p.Backlight()), 6)
	assert.Error(d.SetBacklight(Color(8)), ErrInvalidColor)
}

func TestBacklightCoalesce(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	assert.Nil(d.SetBacklight(On))
	assert.Int(len(p.Ops()), 0)
	// red and green pins on the first byte, blue on the second
	assert.Nil(d.SetBacklight(Red))
	assert.Int(p.Count(sim.WriteWord), 1)
	assert.Int(p.Count(sim.WriteByte), 0)
	p.Reset()
	assert.Nil(d.SetBacklight(Yellow))
	assert.Int(p.Count(sim.WriteWord), 0)
	assert.Int(p.Count(sim.WriteByte), 1)
	// display writes keep the color
	write(t, d, "hi")
	assert.Int(int(p.Backlight()), int(Yellow))
}

func TestParseColor(t *testing.T) {
	assert := test.Assert{TB: t}
	for _, x := range []struct {
		s      string
		expect Color
	}{
		{"off", Off}, {"0", Off},
		{"RED", Red}, {"1", Red},
		{"green", Green}, {"2", Green},
		{"yellow", Yellow}, {"3", Yellow},
		{"Blue", Blue}, {"4", Blue},
		{"violet", Violet}, {"5", Violet},
		{"teal", Teal}, {"6", Teal},
		{"on", On}, {"7\n", On},
	} {
		c, err := ParseColor(x.s)
		assert.Nil(err)
		assert.Equal(c.String(), x.expect.String())
	}
	for _, s := range []string{"", "8", "07", "purple", "re d"} {
		_, err := ParseColor(s)
		assert.Error(err, ErrInvalidColor)
	}
}

func TestButtons(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	b, err := d.Buttons()
	assert.Nil(err)
	assert.Equal(b.String(), "none")
	p.Press(uint8(Select | Up))
	b, err = d.Buttons()
	assert.Nil(err)
	assert.True(b == Select|Up)
	assert.Equal(b.String(), "select,up")
	p.Release(uint8(Select))
	p.Press(uint8(Left))
	b, _ = d.Buttons()
	assert.Equal(b.String(), "up,left")
}

func TestClose(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	write(t, d, "bye")
	assert.Nil(d.Close())
	assert.False(p.DisplayOn())
	assert.Int(int(p.Backlight()), int(Off))
	assert.Equal(p.Line(0, Cols), strings.Repeat(" ", Cols))
	_, err := d.Write([]byte("x"))
	assert.Error(err, ErrNoDevice)
	_, err = d.Buttons()
	assert.Error(err, ErrNoDevice)
	assert.Error(d.SetBacklight(Red), ErrNoDevice)
	assert.Nil(d.Close())
}

func TestCloseFailure(t *testing.T) {
	assert := test.Assert{TB: t}
	d, p := attach(t, Config{})
	p.FailAfter(0)
	assert.Error(d.Close(), sim.ErrInjected)
	for _, step := range []string{
		"clear display",
		"turn display off",
		"disable LCD backlight",
	} {
		assert.Int(logged("err: rgblcd: failed to "+step), 1)
	}
}
