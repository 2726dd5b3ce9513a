// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"

	"github.com/platinasystems/rgblcd/lang"
)

func (g *Goes) Apropos() lang.Alt {
	apropos := g.APROPOS
	if apropos == nil {
		apropos = lang.Alt{
			lang.EnUS: "RGB LCD plate commands",
		}
	}
	return apropos
}

// apropos prints a line for each named command, or all of them.
func (g *Goes) apropos(args ...string) error {
	pad := func(n int) {
		if n < 1 {
			fmt.Fprint(Stdout, "\n\t\t")
		} else {
			fmt.Fprint(Stdout, "                "[:n])
		}
	}
	if len(args) == 0 {
		args = g.Names()
	}
	for i, name := range args {
		v, found := g.ByName[name]
		if !found {
			if i == 0 {
				return fmt.Errorf("%s: not found", name)
			}
			continue
		}
		fmt.Fprint(Stdout, name)
		pad(16 - len(name))
		fmt.Fprintln(Stdout, v.Apropos())
	}
	return nil
}
