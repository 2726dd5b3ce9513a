// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package rgblcdd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kr/pty"
	"github.com/platinasystems/log"
	"github.com/platinasystems/rgblcd/internal/rgblcd"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type closer interface {
	Close() error
}

// node is the terminal that writers open to reach a device. The daemon
// holds the slave open so the master never sees a hang up between
// writers.
type node struct {
	link     string
	pty, tty *os.File
	f        io.WriteCloser
	bus      closer
	done     chan struct{}
}

func newNode(dir string, id int, f io.WriteCloser) (*node, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	if ptmx, err = pollable(ptmx); err != nil {
		tty.Close()
		return nil, err
	}
	n := &node{
		link: filepath.Join(dir, fmt.Sprint("lcd", id)),
		pty:  ptmx,
		tty:  tty,
		f:    f,
		done: make(chan struct{}),
	}
	// no echo, and no newline translation on the way to the display
	if _, err = term.MakeRaw(int(tty.Fd())); err != nil {
		n.closeFiles()
		return nil, fmt.Errorf("%s: %v", tty.Name(), err)
	}
	os.Remove(n.link)
	if err = os.Symlink(tty.Name(), n.link); err != nil {
		n.closeFiles()
		return nil, err
	}
	go n.copy()
	return n, nil
}

// copy forwards the stream to the device until the master is closed.
// A failed write drops its bytes; the writer can't be told.
func (n *node) copy() {
	defer close(n.done)
	buf := make([]byte, rgblcd.PageSize)
	for {
		i, err := n.pty.Read(buf)
		if i > 0 {
			if _, werr := n.f.Write(buf[:i]); werr != nil {
				log.Print("daemon", "err", n.link, ": ", werr)
			}
		}
		if err != nil {
			return
		}
	}
}

// pollable returns a non-blocking copy of f, closing f, so that Close
// interrupts a pending Read. pty.Open leaves the master blocking.
func pollable(f *os.File) (*os.File, error) {
	defer f.Close()
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", f.Name(), err)
	}
	if err = unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s: %v", f.Name(), err)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

func (n *node) closeFiles() {
	n.pty.Close()
	n.tty.Close()
}

func (n *node) Close() error {
	os.Remove(n.link)
	n.closeFiles()
	<-n.done
	return n.f.Close()
}
