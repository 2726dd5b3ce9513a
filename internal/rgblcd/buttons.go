// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

import (
	"strings"

	"github.com/platinasystems/rgblcd/internal/plate"
)

// Button is a set of plate buttons.
type Button uint8

const (
	Select Button = 1 << iota
	Right
	Down
	Up
	Left
)

var buttonNames = []string{"select", "right", "down", "up", "left"}

func (b Button) String() string {
	if b == 0 {
		return "none"
	}
	var names []string
	for i, name := range buttonNames {
		if b&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// Buttons samples the port and returns those held down.
func (d *Device) Buttons() (Button, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return 0, ErrNoDevice
	}
	v, err := d.gpio.Read(d.bus)
	if err != nil {
		logPrint("err", d.name, ": failed to read buttons: ", err)
		return 0, err
	}
	return Button(^plate.Pins(v).Buttons() & 0x1f), nil
}
