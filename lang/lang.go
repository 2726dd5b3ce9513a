// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lang provides command text in alternative languages.
//
// The language precedence is Lang, if set, then the "LANG" environment
// variable, then Default; and finally en_US.UTF-8.
package lang

import "os"

const (
	DeDE = "de_DE.UTF-8"
	EnUS = "en_US.UTF-8"
	FrFR = "fr_FR.UTF-8"
)

var (
	// Default may be set with,
	//
	//	-ldflags -X github.com/platinasystems/rgblcd/lang.Default=fr_FR.UTF-8
	Default = EnUS

	// Lang overrides the environment; tests set this.
	Lang string
)

type Alt map[string]string

// String returns the text in the preferred, available language.
func (m Alt) String() string {
	env := Lang
	if len(env) == 0 {
		env = os.Getenv("LANG")
	}
	for _, lang := range []string{env, Default, EnUS} {
		if s, found := m[lang]; found {
			return s
		}
	}
	return ""
}
