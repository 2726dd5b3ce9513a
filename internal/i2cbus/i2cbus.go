// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package i2cbus carries expander register transfers over a Linux
// /dev/i2c-N adapter as SMBus byte and word data transactions.
package i2cbus

import (
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/i2c"
	"github.com/platinasystems/log"
	"github.com/platinasystems/rgblcd/internal/mcp23017"
)

const DefaultRetries = 3

type doer interface {
	Do(rw i2c.RW, command uint8, size i2c.SMBusSize,
		data *i2c.SMBusData) error
	Close() error
}

var (
	sleep    = time.Sleep
	logPrint = log.Print
)

// Bus is an open adapter with the slave address selected. A failed
// transaction is retried, with backoff, up to Retries more times before
// the error is returned.
type Bus struct {
	Index, Addr int
	Retries     int
	Backoff     backoff.Backoff

	dev doer
}

// Open selects the addr slave on /dev/i2c-index, even if a kernel
// driver already claims it.
func Open(index, addr int) (*Bus, error) {
	dev := new(i2c.Bus)
	if err := dev.Open(index); err != nil {
		return nil, err
	}
	if err := dev.ForceSlaveAddress(addr); err != nil {
		dev.Close()
		return nil, fmt.Errorf("i2c-%d@0x%02x: %v", index, addr, err)
	}
	return newBus(index, addr, dev), nil
}

func newBus(index, addr int, dev doer) *Bus {
	return &Bus{
		Index:   index,
		Addr:    addr,
		Retries: DefaultRetries,
		Backoff: backoff.Backoff{
			Min:    time.Millisecond,
			Max:    50 * time.Millisecond,
			Factor: 2,
		},
		dev: dev,
	}
}

func (bus *Bus) Close() error { return bus.dev.Close() }

func (bus *Bus) String() string {
	return fmt.Sprintf("i2c-%d@0x%02x", bus.Index, bus.Addr)
}

func (bus *Bus) do(rw i2c.RW, reg uint8, size i2c.SMBusSize,
	data *i2c.SMBusData) (err error) {
	b := bus.Backoff
	b.Reset()
	for i := 0; ; i++ {
		err = bus.dev.Do(rw, reg, size, data)
		if err == nil || i >= bus.Retries {
			break
		}
		d := b.Duration()
		logPrint("info", bus, ": retry ", i+1, " of ", mcp23017.Reg(reg),
			" in ", d, ": ", err)
		sleep(d)
	}
	return
}

func (bus *Bus) ReadByteData(reg uint8) (uint8, error) {
	var data i2c.SMBusData
	err := bus.do(i2c.Read, reg, i2c.ByteData, &data)
	return data[0], err
}

func (bus *Bus) WriteByteData(reg, v uint8) error {
	var data i2c.SMBusData
	data[0] = v
	return bus.do(i2c.Write, reg, i2c.ByteData, &data)
}

// ReadWordData returns the register pair with reg in the low byte.
func (bus *Bus) ReadWordData(reg uint8) (uint16, error) {
	var data i2c.SMBusData
	err := bus.do(i2c.Read, reg, i2c.WordData, &data)
	return uint16(data[0]) | uint16(data[1])<<8, err
}

func (bus *Bus) WriteWordData(reg uint8, v uint16) error {
	var data i2c.SMBusData
	data[0] = uint8(v)
	data[1] = uint8(v >> 8)
	return bus.do(i2c.Write, reg, i2c.WordData, &data)
}
