// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

// Display memory offset of each row's first column.
var rowBase = [Rows]byte{0x00, 0x40}

// sync clamps the modeled cursor and moves the controller's address
// counter there. Column Cols is valid: it's just past the visible line.
func (d *Device) sync() error {
	if d.col < 0 {
		d.col = 0
	} else if d.col > Cols {
		d.col = Cols
	}
	if d.row < 0 {
		d.row = 0
	} else if d.row >= Rows {
		d.row = Rows - 1
	}
	return d.command(setDDRAMAddr | (rowBase[d.row] + byte(d.col)))
}

// blank writes spaces from the current column up to, not including, end.
func (d *Device) blank(end int) error {
	for d.col < end {
		if err := d.write(true, ' '); err != nil {
			return err
		}
		d.col++
	}
	return nil
}
