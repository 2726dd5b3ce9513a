// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is a goes machine of RGB LCD plate commands.
package main

import (
	"os"

	"github.com/platinasystems/log"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/rgblcd"
	"github.com/platinasystems/rgblcd/cmd/backlight"
	"github.com/platinasystems/rgblcd/cmd/lcd"
	"github.com/platinasystems/rgblcd/cmd/lcdsim"
	"github.com/platinasystems/rgblcd/cmd/rgblcdd"
	"github.com/platinasystems/rgblcd/lang"
)

const Name = "goes-rgblcd"

func Goes() *goes.Goes {
	g := &goes.Goes{
		NAME:  Name,
		USAGE: Name + " COMMAND [ARGS]...",
		APROPOS: lang.Alt{
			lang.EnUS: "RGB LCD plate commands",
		},
	}
	g.Plot(&rgblcdd.Command{},
		lcd.Command{},
		backlight.Command{},
		lcdsim.Command{},
	)
	return g
}

func main() {
	if len(redis.DefaultHash) == 0 {
		redis.DefaultHash = "rgblcd"
	}
	if err := Goes().Main(os.Args...); err != nil {
		log.Print("err", err)
		os.Exit(1)
	}
}
