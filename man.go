// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"

	"github.com/platinasystems/rgblcd/lang"
)

type maner interface {
	Man() lang.Alt
}

type page interface {
	Apropos() lang.Alt
	String() string
	Usage() string
}

var section = struct {
	name, synopsis lang.Alt
}{
	name: lang.Alt{
		lang.EnUS: "NAME",
		lang.FrFR: "NOM",
	},
	synopsis: lang.Alt{
		lang.EnUS: "SYNOPSIS",
	},
}

func (g *Goes) Man() lang.Alt {
	man := g.MAN
	if man == nil {
		man = lang.Alt{
			lang.EnUS: `
DESCRIPTION
	The rgblcdd daemon renders text streams on each attached plate;
	lcd and backlight write them from the shell, and lcdsim shows
	the same rendering on an emulated plate.

SEE ALSO
	goes apropos [COMMAND], goes man COMMAND`,
		}
	}
	return man
}

func (g *Goes) man(args ...string) error {
	var pages []page
	for i, arg := range args {
		v, found := g.ByName[arg]
		if !found {
			if i == 0 {
				return fmt.Errorf("%s: not found", arg)
			}
			break
		}
		pages = append(pages, v)
	}
	if len(pages) == 0 {
		pages = []page{g}
	}
	for i, v := range pages {
		if i > 0 {
			fmt.Fprintln(Stdout)
		}
		fmt.Fprint(Stdout, section.name, "\n\t", v, " - ",
			v.Apropos(), "\n\n", section.synopsis, "\n\t",
			strings.TrimSpace(v.Usage()), "\n")
		if method, found := v.(maner); found {
			man := method.Man().String()
			if !strings.HasPrefix(man, "\n") {
				fmt.Fprintln(Stdout)
			}
			fmt.Fprint(Stdout, man)
			if !strings.HasSuffix(man, "\n") {
				fmt.Fprintln(Stdout)
			}
		}
	}
	return nil
}
