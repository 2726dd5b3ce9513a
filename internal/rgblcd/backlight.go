// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidColor = errors.New("invalid backlight color")

// Color is a mix of the red (1), green (2), and blue (4) backlight LEDs.
type Color uint8

const (
	Off Color = iota
	Red
	Green
	Yellow
	Blue
	Violet
	Teal
	On
)

var colorNames = [...]string{
	Off:    "off",
	Red:    "red",
	Green:  "green",
	Yellow: "yellow",
	Blue:   "blue",
	Violet: "violet",
	Teal:   "teal",
	On:     "on",
}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprint("@", uint8(c))
}

// ParseColor accepts a color name, in any case, or its digit.
// Surrounding white space, such as a trailing newline, is ignored.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 && '0' <= s[0] && s[0] <= '7' {
		return Color(s[0] - '0'), nil
	}
	for i, name := range colorNames {
		if strings.EqualFold(s, name) {
			return Color(i), nil
		}
	}
	return Off, fmt.Errorf("%q: %w", s, ErrInvalidColor)
}

// setBacklight drives the active-low LED pins; it shares the latch with
// the display so it may ride along with pending data pin changes.
func (d *Device) setBacklight(c Color) error {
	p := d.latch().WithColor(^uint8(c))
	if err := d.olat.Write(d.bus, p.Value()); err != nil {
		logPrint("err", d.name, ": failed to set color pins: ", err)
		return err
	}
	d.color = c
	return nil
}

func (d *Device) SetBacklight(c Color) error {
	if c > On {
		return fmt.Errorf("%v: %w", c, ErrInvalidColor)
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return ErrNoDevice
	}
	return d.setBacklight(c)
}

func (d *Device) Backlight() Color {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.color
}

// BacklightAttr formats the backlight as its digit and a newline.
func (d *Device) BacklightAttr() string {
	return fmt.Sprintf("%d\n", d.Backlight())
}

// SetBacklightAttr parses then applies s; an invalid s changes nothing.
func (d *Device) SetBacklightAttr(s string) error {
	c, err := ParseColor(s)
	if err != nil {
		return err
	}
	return d.SetBacklight(c)
}
