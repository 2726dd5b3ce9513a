// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package rgblcdd attaches RGB LCD plates and serves each as a terminal
// device node and a set of redis fields.
package rgblcdd

import (
	"fmt"
	"net/rpc"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
	"github.com/platinasystems/rgblcd/cmd"
	"github.com/platinasystems/rgblcd/internal/i2cbus"
	"github.com/platinasystems/rgblcd/internal/mcp23017"
	"github.com/platinasystems/rgblcd/internal/rgblcd"
	"github.com/platinasystems/rgblcd/lang"
)

const (
	Name    = "rgblcdd"
	Apropos = "RGB LCD plate daemon"
	Usage   = `
	rgblcdd [-bus N[,N]...] [-addr ADDR] [-dir DIR] [-retries N] [-max N]`
	Man = `
DESCRIPTION
	Attach the RGB LCD plate at ADDR, default 0x20, on each listed
	/dev/i2c-N bus and serve each as the terminal device DIR/lcdID.
	Text written there is rendered on the 16x2 display with these
	VT100 sequences,

		ESC [ n A, B	previous, next row
		ESC [ n C, D	forward, backward n columns
		ESC [ n E, F	start of next, previous row
		ESC [ n G	column n
		ESC [ r ; c H	row r, column c
		ESC [ J		clear display
		ESC [ n K	erase to end (0), from start (1), or all (2) of row

	A newline moves to the start of the other row and blanks it.

	The daemon publishes these redis fields,

		lcd.ID.backlight	color digit, 0 (off) through 7 (on)
		lcd.ID.buttons		pressed buttons, e.g. "select,up"

	and accepts hset of lcd.ID.backlight with a color name or digit,
	and of lcd.ID.text with text to render.

OPTIONS
	-bus N[,N]...	i2c adapters, default from machine config or 1
	-addr ADDR	expander address
	-dir DIR	device node directory, default ` + DefaultDir + `
	-retries N	busy flag polls before giving up on a wait
	-max N		most plates attached at once`

	DefaultDir = "/run/goes/rgblcd"

	pollInterval = 100 * time.Millisecond
)

// Plate locates an expander; machines may list these in Command.Plates.
type Plate struct {
	Bus, Addr int
}

type Command struct {
	Plates []Plate
	Dir    string

	Init func()
	init sync.Once

	Info
}

type Info struct {
	mutex   sync.Mutex
	rpc     *atsock.RpcServer
	pub     *publisher.Publisher
	publish func(key string, value interface{})
	stop    chan struct{}
	once    sync.Once
	table   *rgblcd.Table
	nodes   map[int]*node
	last    map[string]string
}

type config struct {
	plates  []Plate
	dir     string
	retries int
	max     int
}

func (*Command) String() string { return Name }
func (*Command) Usage() string  { return Usage }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: Apropos,
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: Man,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}
	cfg, err := c.config(args...)
	if err != nil {
		return err
	}
	if err = redis.IsReady(); err != nil {
		return err
	}
	if c.pub, err = publisher.New(); err != nil {
		return err
	}
	defer c.pub.Close()
	c.start(cfg, func(key string, value interface{}) {
		c.pub.Print(key, ": ", value)
	})
	defer c.detachAll()
	for _, p := range cfg.plates {
		if err := c.attach(p, cfg); err != nil {
			log.Print("daemon", "err", Name, ": ", err)
		}
	}
	if len(c.table.IDs()) == 0 {
		return fmt.Errorf("no plates attached")
	}

	if c.rpc, err = atsock.NewRpcServer(Name); err != nil {
		return err
	}
	defer c.rpc.Close()
	rpc.Register(&c.Info)
	err = redis.Assign(redis.DefaultHash+":lcd.", Name, "Info")
	if err != nil {
		return err
	}

	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return nil
		case <-t.C:
			c.poll()
		}
	}
}

func (c *Command) Close() error {
	c.once.Do(func() {
		if c.stop != nil {
			close(c.stop)
		}
	})
	return nil
}

// config merges command parameters over the machine's plate list.
func (c *Command) config(args ...string) (config, error) {
	cfg := config{
		plates: c.Plates,
		dir:    c.Dir,
	}
	parm, args := parms.New(args, "-bus", "-addr", "-dir", "-retries",
		"-max")
	if len(args) > 0 {
		return cfg, fmt.Errorf("%v: unexpected", args)
	}
	addr := mcp23017.Address
	if s := parm.ByName["-addr"]; len(s) > 0 {
		u, err := strconv.ParseUint(s, 0, 7)
		if err != nil {
			return cfg, fmt.Errorf("-addr %s: %v", s, err)
		}
		addr = int(u)
	}
	if s := parm.ByName["-bus"]; len(s) > 0 {
		cfg.plates = nil
		for _, f := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' '
		}) {
			bus, err := strconv.Atoi(f)
			if err != nil || bus < 0 {
				return cfg, fmt.Errorf("-bus %s: invalid", f)
			}
			cfg.plates = append(cfg.plates, Plate{bus, addr})
		}
	} else if len(parm.ByName["-addr"]) > 0 {
		plates := make([]Plate, len(cfg.plates))
		for i, p := range cfg.plates {
			plates[i] = Plate{p.Bus, addr}
		}
		cfg.plates = plates
	}
	if len(cfg.plates) == 0 {
		cfg.plates = []Plate{{1, addr}}
	}
	if s := parm.ByName["-dir"]; len(s) > 0 {
		cfg.dir = s
	}
	if len(cfg.dir) == 0 {
		cfg.dir = DefaultDir
	}
	for _, x := range []struct {
		name string
		p    *int
	}{
		{"-retries", &cfg.retries},
		{"-max", &cfg.max},
	} {
		s := parm.ByName[x.name]
		if len(s) == 0 {
			continue
		}
		i, err := strconv.Atoi(s)
		if err != nil || i <= 0 {
			return cfg, fmt.Errorf("%s %s: invalid", x.name, s)
		}
		*x.p = i
	}
	return cfg, nil
}

func (i *Info) start(cfg config, publish func(string, interface{})) {
	i.stop = make(chan struct{})
	i.table = rgblcd.NewTable(cfg.max)
	i.nodes = make(map[int]*node)
	i.last = make(map[string]string)
	i.publish = publish
}

func (c *Command) attach(p Plate, cfg config) error {
	bus, err := i2cbus.Open(p.Bus, p.Addr)
	if err != nil {
		return err
	}
	d, err := c.table.Attach(bus, rgblcd.Config{
		Name:        bus.String(),
		BusyRetries: cfg.retries,
	})
	if err != nil {
		bus.Close()
		return err
	}
	return c.serve(d, bus, cfg.dir)
}

// serve makes the node of an attached device and publishes its state.
func (i *Info) serve(d *rgblcd.Device, bus closer, dir string) error {
	f, err := i.table.Open(d.ID())
	if err != nil {
		return err
	}
	n, err := newNode(dir, d.ID(), f)
	if err != nil {
		f.Close()
		i.table.Detach(d.ID())
		if bus != nil {
			bus.Close()
		}
		return err
	}
	n.bus = bus
	i.mutex.Lock()
	i.nodes[d.ID()] = n
	i.mutex.Unlock()
	log.Print("daemon", "info", d, ": serving ", n.link)
	i.update(key(d.ID(), "backlight"),
		strings.TrimSpace(d.BacklightAttr()))
	return nil
}

func (i *Info) detachAll() {
	for _, id := range i.table.IDs() {
		if err := i.detach(id); err != nil {
			log.Print("daemon", "err", Name, ": lcd", id, ": ", err)
		}
	}
}

// detach removes the node before the device so nothing writes to it
// while it's turned off.
func (i *Info) detach(id int) error {
	i.mutex.Lock()
	n := i.nodes[id]
	delete(i.nodes, id)
	i.mutex.Unlock()
	if n != nil {
		n.Close()
	}
	err := i.table.Detach(id)
	if n != nil && n.bus != nil {
		n.bus.Close()
	}
	return err
}

// poll publishes button changes.
func (i *Info) poll() {
	for _, id := range i.table.IDs() {
		d, found := i.table.Get(id)
		if !found {
			continue
		}
		var s string
		b, err := d.Buttons()
		if err != nil {
			s = "error"
		} else {
			s = b.String()
		}
		i.update(key(id, "buttons"), s)
	}
}

// update publishes a changed value.
func (i *Info) update(k, v string) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if last, found := i.last[k]; found && last == v {
		return
	}
	i.last[k] = v
	if i.publish != nil {
		i.publish(k, v)
	}
}

func (i *Info) Hset(args args.Hset, reply *reply.Hset) error {
	id, attr, err := parseField(args.Field)
	if err != nil {
		return err
	}
	d, found := i.table.Get(id)
	if !found {
		return fmt.Errorf("%s: %w", args.Field, rgblcd.ErrNoDevice)
	}
	switch attr {
	case "backlight":
		if err = d.SetBacklightAttr(string(args.Value)); err != nil {
			return err
		}
		i.update(key(id, attr), strings.TrimSpace(d.BacklightAttr()))
	case "text":
		if _, err = d.Write(args.Value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: can't hset", args.Field)
	}
	*reply = 1
	return nil
}

func key(id int, attr string) string {
	return fmt.Sprint("lcd.", id, ".", attr)
}

// parseField splits "lcd.ID.ATTR".
func parseField(field string) (id int, attr string, err error) {
	a := strings.Split(field, ".")
	if len(a) != 3 || a[0] != "lcd" || len(a[2]) == 0 {
		err = fmt.Errorf("%s: invalid field", field)
		return
	}
	u, perr := strconv.ParseUint(a[1], 10, 31)
	if perr != nil {
		err = fmt.Errorf("%s: invalid id", field)
		return
	}
	return int(u), a[2], nil
}
