// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lcd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/rgblcd/cmd/rgblcdd"
	"github.com/platinasystems/rgblcd/lang"
)

const (
	Name    = "lcd"
	Apropos = "write to an RGB LCD plate"
	Usage   = "lcd [-n] [-id ID] [-dir DIR] [TEXT]..."
	Man     = `
DESCRIPTION
	Clear the display of plate ID, default 0, then write the space
	separated TEXT. Without TEXT, copy standard input unless that's a
	terminal. TEXT may include the escape sequences and newline
	described in "man rgblcdd".

OPTIONS
	-n	don't clear the display first
	-dir	the daemon's device node directory

EXAMPLES
	lcd hello
	lcd -n -id 1 $'\e[2;1Hsecond row'
	date | lcd`

	clearDisplay = "\x1b[2J"
)

type Command struct{}

func (Command) String() string { return Name }
func (Command) Usage() string  { return Usage }

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
	flag, args := flags.New(args, "-n")
	parm, args := parms.New(args, "-id", "-dir")
	path, err := Path(parm.ByName["-dir"], parm.ByName["-id"])
	if err != nil {
		return err
	}
	var r io.Reader
	if len(args) > 0 {
		r = strings.NewReader(strings.Join(args, " "))
	} else if isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("TEXT: missing")
	} else {
		r = os.Stdin
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NOCTTY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f, r, !flag.ByName["-n"])
}

// Path returns the device node of the given plate; empty arguments
// select the defaults.
func Path(dir, id string) (string, error) {
	if len(dir) == 0 {
		dir = rgblcdd.DefaultDir
	}
	if len(id) == 0 {
		id = "0"
	}
	if i, err := strconv.Atoi(id); err != nil || i < 0 {
		return "", fmt.Errorf("-id %s: invalid", id)
	}
	return filepath.Join(dir, "lcd"+id), nil
}

func write(w io.Writer, r io.Reader, clear bool) error {
	if clear {
		if _, err := io.WriteString(w, clearDisplay); err != nil {
			return err
		}
	}
	_, err := io.Copy(w, r)
	return err
}
