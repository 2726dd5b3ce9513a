// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lcdsim

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/rgblcd/cmd"
	"github.com/platinasystems/rgblcd/internal/plate/sim"
	"github.com/platinasystems/rgblcd/internal/rgblcd"
	"github.com/platinasystems/rgblcd/lang"
)

const (
	Name    = "lcdsim"
	Apropos = "render an emulated RGB LCD plate on this terminal"
	Usage   = "lcdsim [-hold] [-busy N]"
	Man     = `
DESCRIPTION
	Attach an emulated plate and copy standard input to it, drawing the
	display and backlight on the terminal. The arrow keys and Enter
	press the corresponding plate button. Quit with q or Esc.

OPTIONS
	-hold	keep drawing after the end of input
	-busy N	report the controller busy for N polls per instruction

EXAMPLES
	printf 'hello\e[2;1H\e[31mworld' | lcdsim -hold`
)

var keyButtons = map[tcell.Key]rgblcd.Button{
	tcell.KeyEnter: rgblcd.Select,
	tcell.KeyRight: rgblcd.Right,
	tcell.KeyDown:  rgblcd.Down,
	tcell.KeyUp:    rgblcd.Up,
	tcell.KeyLeft:  rgblcd.Left,
}

// backlights is indexed by the lit color bits, red being bit 0.
var backlights = [8]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorTeal,
	tcell.ColorWhite,
}

type Command struct{}

func (Command) String() string { return Name }
func (Command) Usage() string  { return Usage }
func (Command) Kind() cmd.Kind { return cmd.CantPipe }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: Apropos,
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: Man,
	}
}

func (Command) Main(args ...string) error {
	flag, args := flags.New(args, "-hold")
	parm, args := parms.New(args, "-busy")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	p := sim.New()
	if s := parm.ByName["-busy"]; len(s) > 0 {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fmt.Errorf("-busy %s: invalid", s)
		}
		p.BusyPolls = n
	}
	d, err := rgblcd.New(p, rgblcd.Config{Name: Name})
	if err != nil {
		return err
	}
	defer d.Close()
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	var r io.Reader
	// the screen owns the terminal
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		r = os.Stdin
	}
	return run(screen, p, d, r, flag.ByName["-hold"])
}

// run redraws p until quit or, without hold, the end of r.
func run(screen tcell.Screen, p *sim.Plate, d *rgblcd.Device, r io.Reader,
	hold bool) error {
	if r != nil {
		go feed(screen, d, r)
	}
	status := "none"
	for {
		draw(screen, p, status)
		screen.Show()
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			err, ok := ev.Data().(error)
			if !ok {
				break
			}
			if err == io.EOF {
				if hold {
					break
				}
				return nil
			}
			return err
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				ev.Rune() == 'q' {
				return nil
			}
			b, found := keyButtons[ev.Key()]
			if !found {
				break
			}
			p.Press(uint8(b))
			held, err := d.Buttons()
			p.Release(uint8(b))
			if err != nil {
				status = err.Error()
			} else {
				status = held.String()
			}
		}
	}
}

// feed copies r to d, posting an interrupt after each write and the
// read error at the end.
func feed(screen tcell.Screen, d *rgblcd.Device, r io.Reader) {
	buf := make([]byte, rgblcd.PageSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := d.Write(buf[:n]); werr != nil {
				err = werr
			} else {
				screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
		if err != nil {
			screen.PostEventWait(tcell.NewEventInterrupt(err))
			return
		}
	}
}

// draw frames the display lines in the backlight color with the held
// buttons below.
func draw(screen tcell.Screen, p *sim.Plate, status string) {
	frame := tcell.StyleDefault
	lit := p.Backlight()
	lcd := tcell.StyleDefault.Background(backlights[lit&7])
	if lit == 0 {
		lcd = lcd.Foreground(tcell.ColorGray)
	} else {
		lcd = lcd.Foreground(tcell.ColorBlack)
	}
	screen.Clear()
	w := rgblcd.Cols + 1
	screen.SetContent(0, 0, tcell.RuneULCorner, nil, frame)
	screen.SetContent(w, 0, tcell.RuneURCorner, nil, frame)
	screen.SetContent(0, rgblcd.Rows+1, tcell.RuneLLCorner, nil, frame)
	screen.SetContent(w, rgblcd.Rows+1, tcell.RuneLRCorner, nil, frame)
	for x := 1; x < w; x++ {
		screen.SetContent(x, 0, tcell.RuneHLine, nil, frame)
		screen.SetContent(x, rgblcd.Rows+1, tcell.RuneHLine, nil, frame)
	}
	on := p.DisplayOn()
	for row := 0; row < rgblcd.Rows; row++ {
		y := row + 1
		screen.SetContent(0, y, tcell.RuneVLine, nil, frame)
		screen.SetContent(w, y, tcell.RuneVLine, nil, frame)
		line := p.Line(row, rgblcd.Cols)
		for col := 0; col < rgblcd.Cols; col++ {
			c := rune(line[col])
			if !on || c < ' ' || c > '~' {
				c = ' '
			}
			screen.SetContent(col+1, y, c, nil, lcd)
		}
	}
	for i, c := range "buttons: " + status {
		screen.SetContent(i, rgblcd.Rows+2, c, nil, frame)
	}
}
