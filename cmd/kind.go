// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cmd

import "strings"

const (
	// Daemons run until signaled, then Close.
	Daemon Kind = 1 << iota
	// Hidden commands aren't listed by apropos.
	Hidden
	// CantPipe commands need a terminal.
	CantPipe
)

type Kind uint16

type kinder interface {
	Kind() Kind
}

func WhatKind(v Cmd) Kind {
	if m, found := v.(kinder); found {
		return m.Kind()
	}
	return 0
}

func (k Kind) IsDaemon() bool      { return k&Daemon == Daemon }
func (k Kind) IsHidden() bool      { return k&Hidden == Hidden }
func (k Kind) IsCantPipe() bool    { return k&CantPipe == CantPipe }
func (k Kind) IsInteractive() bool { return k&(Daemon|Hidden) == 0 }

func (k Kind) String() string {
	var s []string
	for _, x := range []struct {
		k    Kind
		name string
	}{
		{Daemon, "daemon"},
		{Hidden, "hidden"},
		{CantPipe, "can't pipe"},
	} {
		if k&x.k == x.k {
			s = append(s, x.name)
		}
	}
	if len(s) == 0 {
		return "interactive"
	}
	return strings.Join(s, ", ")
}
