// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcd

import (
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/platinasystems/rgblcd/internal/mcp23017"
)

const DefaultMaxDevices = 256

// Table maps identifiers to attached devices. Identifiers are assigned
// in attach order and never reused.
type Table struct {
	mutex sync.RWMutex
	next  int32
	max   int
	byID  map[int]*Device
}

// NewTable returns an empty table holding at most max devices; max <= 0
// means DefaultMaxDevices.
func NewTable(max int) *Table {
	if max <= 0 {
		max = DefaultMaxDevices
	}
	return &Table{
		max:  max,
		byID: make(map[int]*Device),
	}
}

// Attach brings up the plate on bus and registers it.
func (t *Table) Attach(bus mcp23017.Bus, cfg Config) (*Device, error) {
	t.mutex.RLock()
	full := len(t.byID) >= t.max
	t.mutex.RUnlock()
	if full {
		logPrint("err", cfg.Name, ": ", ErrResourceExhausted)
		return nil, ErrResourceExhausted
	}
	d, err := New(bus, cfg)
	if err != nil {
		return nil, err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if len(t.byID) >= t.max {
		d.Close()
		return nil, ErrResourceExhausted
	}
	d.id = int(atomic.AddInt32(&t.next, 1) - 1)
	t.byID[d.id] = d
	logPrint("info", d.name, ": attached as lcd", d.id)
	return d, nil
}

// Detach unregisters and closes the given device.
func (t *Table) Detach(id int) error {
	t.mutex.Lock()
	d, found := t.byID[id]
	delete(t.byID, id)
	t.mutex.Unlock()
	if !found {
		return ErrNoDevice
	}
	logPrint("info", d.name, ": detached lcd", id)
	return d.Close()
}

func (t *Table) Get(id int) (*Device, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	d, found := t.byID[id]
	return d, found
}

// IDs returns the attached identifiers in ascending order.
func (t *Table) IDs() []int {
	t.mutex.RLock()
	ids := make([]int, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	t.mutex.RUnlock()
	sort.Ints(ids)
	return ids
}

func (t *Table) Open(id int) (*File, error) {
	d, found := t.Get(id)
	if !found {
		return nil, ErrNoDevice
	}
	return &File{d: d}, nil
}

// File is an open, write-only handle on a device.
type File struct {
	mutex sync.Mutex
	d     *Device
}

func (f *File) device() (*Device, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.d == nil {
		return nil, os.ErrClosed
	}
	return f.d, nil
}

func (f *File) Write(p []byte) (int, error) {
	d, err := f.device()
	if err != nil {
		return 0, err
	}
	return d.Write(p)
}

// Read has nothing to return; the display is write-only.
func (f *File) Read(p []byte) (int, error) {
	if _, err := f.device(); err != nil {
		return 0, err
	}
	return 0, io.EOF
}

// Close releases the handle, not the device.
func (f *File) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.d == nil {
		return os.ErrClosed
	}
	f.d = nil
	return nil
}
