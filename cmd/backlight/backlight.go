// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package backlight

import (
	"fmt"
	"os"
	"strconv"

	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/rgblcd/internal/rgblcd"
	"github.com/platinasystems/rgblcd/lang"
)

const (
	Name    = "backlight"
	Apropos = "get or set the color of an RGB LCD plate"
	Usage   = "backlight [-id ID] [COLOR]"
	Man     = `
DESCRIPTION
	Print or change the backlight of plate ID, default 0, through the
	rgblcdd redis fields. COLOR is one of,

		0, off
		1, red
		2, green
		3, yellow
		4, blue
		5, violet
		6, teal
		7, on`
)

var (
	hget = redis.Hget
	hset = redis.Hset
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
	parm, args := parms.New(args, "-id")
	id := parm.ByName["-id"]
	if len(id) == 0 {
		id = "0"
	}
	if i, err := strconv.Atoi(id); err != nil || i < 0 {
		return fmt.Errorf("-id %s: invalid", id)
	}
	field := "lcd." + id + ".backlight"
	switch len(args) {
	case 0:
		s, err := hget(redis.DefaultHash, field)
		if err != nil {
			return err
		}
		c, err := rgblcd.ParseColor(s)
		if err != nil {
			return fmt.Errorf("%s: %v", field, err)
		}
		fmt.Fprintln(os.Stdout, c)
		return nil
	case 1:
	default:
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	// reject here what the daemon would
	c, err := rgblcd.ParseColor(args[0])
	if err != nil {
		return err
	}
	_, err = hset(redis.DefaultHash, field, c.String())
	return err
}
