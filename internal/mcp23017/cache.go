// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mcp23017

// Cache shadows one register pair. It always holds the last value
// successfully written to or read from the device.
type Cache struct {
	Reg Reg
	v   Value
}

func NewCache(reg Reg) Cache { return Cache{Reg: reg} }

func (c *Cache) Value() Value { return c.v }

// Write brings the pair to v with the fewest transactions: none if
// nothing changed, a byte write if one half changed, else one word
// write. The cache is untouched on failure.
func (c *Cache) Write(bus Bus, v Value) error {
	var err error
	a := c.v.A() != v.A()
	b := c.v.B() != v.B()
	switch {
	case a && b:
		if err = bus.WriteWordData(uint8(c.Reg), uint16(v)); err != nil {
			return &TransportError{"write word", c.Reg, err}
		}
	case a:
		if err = bus.WriteByteData(uint8(c.Reg), v.A()); err != nil {
			return &TransportError{"write byte", c.Reg, err}
		}
	case b:
		if err = bus.WriteByteData(uint8(c.Reg)+1, v.B()); err != nil {
			return &TransportError{"write byte", c.Reg + 1, err}
		}
	default:
		return nil
	}
	c.v = v
	return nil
}

// Read unconditionally refreshes the cache from the device; use it for
// registers that change on their own such as GPIO.
func (c *Cache) Read(bus Bus) (Value, error) {
	w, err := bus.ReadWordData(uint8(c.Reg))
	if err != nil {
		return c.v, &TransportError{"read word", c.Reg, err}
	}
	c.v = Value(w)
	return c.v, nil
}
