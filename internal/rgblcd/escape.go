// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

const (
	esc = 0x1b

	maxPrefixes = 4
	// prefixes saturate; anything past Cols is clamped anyway
	maxPrefix = 1<<16 - 1
)

type escState uint8

const (
	idle escState = iota
	escaped
	sequence
)

// escape is the parser state of a partially received CSI sequence,
//
//	ESC [ [DIGITS] { ; [DIGITS] } FINAL
type escape struct {
	state  escState
	prefix [maxPrefixes]int
	n      int
}

func (e *escape) reset() { *e = escape{} }

// put renders one byte. On error, the parser and cursor keep whatever
// state they had reached.
func (d *Device) put(b byte) error {
	switch d.esc.state {
	case escaped:
		d.esc.reset()
		if b == '[' {
			d.esc.state = sequence
		}
		return nil
	case sequence:
		return d.sequence(b)
	}
	switch b {
	case esc:
		d.esc.state = escaped
	case '\n':
		return d.newline()
	default:
		// no scrolling, drop what doesn't fit
		if d.col >= Cols {
			return nil
		}
		if err := d.write(true, b); err != nil {
			return err
		}
		d.col++
	}
	return nil
}

// newline moves to the start of the other row and blanks it.
func (d *Device) newline() error {
	d.row ^= 1
	d.col = 0
	if err := d.sync(); err != nil {
		return err
	}
	if err := d.blank(Cols); err != nil {
		return err
	}
	d.col = 0
	return d.sync()
}

func (d *Device) sequence(b byte) error {
	e := &d.esc
	switch {
	case '0' <= b && b <= '9':
		v := e.prefix[e.n]*10 + int(b-'0')
		if v > maxPrefix {
			v = maxPrefix
		}
		e.prefix[e.n] = v
		return nil
	case b == ';':
		if e.n+1 < maxPrefixes {
			e.n++
			e.prefix[e.n] = 0
		}
		return nil
	}
	n, second := e.prefix[0], 0
	if e.n > 0 {
		second = e.prefix[1]
	}
	e.reset()
	switch b {
	case 'E', 'F': // next, previous line
		d.col = 0
		fallthrough
	case 'A', 'B': // up, down
		// with two rows, only odd moves go anywhere
		if n > 0 {
			d.row ^= n & 1
		} else {
			d.row ^= 1
		}
		return d.sync()
	case 'C': // forward
		if n > 0 {
			d.col += n
		} else {
			d.col++
		}
		return d.sync()
	case 'D': // backward
		if n > 0 {
			d.col -= n
		} else {
			d.col--
		}
		return d.sync()
	case 'G': // column
		d.col = 0
		if n > 0 {
			d.col = n - 1
		}
		return d.sync()
	case 'H', 'f': // position
		d.row, d.col = 0, 0
		if n > 0 {
			d.row = n - 1
		}
		if second > 0 {
			d.col = second - 1
		}
		return d.sync()
	case 'J':
		// rows wrap into each other, so above and below mean nothing;
		// always clear all
		if err := d.command(clearDisplay); err != nil {
			return err
		}
		d.row, d.col = 0, 0
		return nil
	case 'K':
		return d.eraseInLine(n)
	}
	return nil
}

// eraseInLine blanks to the end of the line (0), from its start (1), or
// all of it (2) and leaves the cursor where it was.
func (d *Device) eraseInLine(n int) error {
	save := d.col
	switch n {
	case 1:
		d.col = 0
		if err := d.sync(); err != nil {
			return err
		}
		return d.blank(save)
	case 2:
		d.col = 0
		if err := d.sync(); err != nil {
			return err
		}
		if err := d.blank(Cols); err != nil {
			return err
		}
	default:
		if err := d.blank(Cols); err != nil {
			return err
		}
	}
	d.col = save
	return d.sync()
}
