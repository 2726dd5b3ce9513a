// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes is a multi-call program of display commands. It runs the
// command named by the program base name, e.g. through a symlink, or by
// its first argument.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/rgblcd/cmd"
	"github.com/platinasystems/rgblcd/lang"
)

// Helpers write here.
var Stdout io.Writer = os.Stdout

type Goes struct {
	NAME    string
	USAGE   string
	APROPOS lang.Alt
	MAN     lang.Alt

	ByName map[string]cmd.Cmd
}

// Plot adds commands by name.
func (g *Goes) Plot(cmds ...cmd.Cmd) {
	if g.ByName == nil {
		g.ByName = make(map[string]cmd.Cmd)
	}
	for _, v := range cmds {
		g.ByName[v.String()] = v
	}
}

func (g *Goes) String() string {
	if len(g.NAME) == 0 {
		return "goes"
	}
	return g.NAME
}

// Names returns the sorted names of commands that aren't hidden.
func (g *Goes) Names() []string {
	names := make([]string, 0, len(g.ByName))
	for name, v := range g.ByName {
		if !cmd.WhatKind(v).IsHidden() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Main runs the command named by either the base of args[0] or by
// args[1]; run without args, it uses os.Args.
func (g *Goes) Main(args ...string) error {
	if len(args) == 0 {
		args = os.Args
	}
	if len(args) > 0 {
		if _, found := g.ByName[filepath.Base(args[0])]; found {
			args[0] = filepath.Base(args[0])
		} else {
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return fmt.Errorf("%s", Usage(g))
	}
	cmd.Swap(args)
	name := args[0]
	args = args[1:]
	switch name {
	case "apropos":
		return g.apropos(args...)
	case "help":
		return g.help(args...)
	case "man":
		return g.man(args...)
	case "usage":
		return g.usage(args...)
	}
	v, found := g.ByName[name]
	if !found {
		return fmt.Errorf("%s: command not found", name)
	}
	k := cmd.WhatKind(v)
	if k.IsDaemon() {
		if closer, ok := v.(io.Closer); ok {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
			defer signal.Stop(sig)
			go func() {
				if _, ok := <-sig; ok {
					log.Print("daemon", "info", name, ": stopping")
					if err := closer.Close(); err != nil {
						log.Print("daemon", "err", name, ": ", err)
					}
				}
			}()
		}
	}
	err := v.Main(args...)
	if err == io.EOF {
		err = nil
	}
	if err != nil && !k.IsDaemon() {
		err = fmt.Errorf("%s: %v", name, err)
	}
	return err
}
