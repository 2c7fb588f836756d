// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/go-lpc/zybo/internal/mmap"
	"github.com/go-lpc/zybo/internal/regfile"
	"github.com/go-lpc/zybo/internal/session"
)

// driver implements the kind-specific behavior of a device.
type driver interface {
	// layout returns the registers of the device block.
	layout() []regfile.Reg

	// on brings the hardware up, after attach.
	on()
	// off drives the hardware to its safe default.
	off()
	// reset drives the hardware to its configured default, on seek.
	reset()

	// access checks the access mode a session is opened with.
	access(flag int) error

	ioctl(cmd Cmd, arg []byte) error
	read(s *Session, p []byte) (int, error)
	write(s *Session, p []byte) (int, error)
}

// Device is a memory-mapped peripheral.
type Device struct {
	name string
	kind Kind
	msg  *log.Logger
	cfg  config

	guard *session.Guard
	regs  *regfile.File
	drv   driver
	hw    sync.Mutex // serializes drv calls

	mu      sync.Mutex // protects closed and the lifetime of the mapping
	closed  bool
	closers []io.Closer
}

// Attach attaches a device of kind k to the register block mem.
// The hardware is brought up before Attach returns.
func Attach(name string, k Kind, mem regfile.Mem, opts ...Option) (*Device, error) {
	dev := &Device{
		name:  name,
		kind:  k,
		cfg:   newConfig(),
		guard: session.NewGuard(),
	}
	for _, opt := range opts {
		opt(&dev.cfg)
	}
	dev.msg = dev.cfg.msg

	switch k {
	case KindLED:
		dev.drv = newLED(dev)
	case KindRGB:
		if dev.cfg.rgb.period == 0 {
			return nil, fmt.Errorf("axi: invalid PWM period for %q: %w", name, ErrInvalidArgument)
		}
		dev.drv = newRGB(dev)
	case KindSwitch:
		dev.drv = newSwitch(dev)
	default:
		return nil, fmt.Errorf("axi: could not attach %q: invalid peripheral kind %v", name, k)
	}

	regs, err := regfile.New(mem, dev.drv.layout()...)
	if err != nil {
		return nil, fmt.Errorf("axi: could not map registers of %v %q: %w: %w", k, name, ErrDeviceUnavailable, err)
	}
	dev.regs = regs
	dev.drv.on()

	return dev, nil
}

// Open attaches a device of kind k to the [base, base+size) window of the
// devmem memory device (usually /dev/mem).
func Open(devmem, name string, k Kind, base int64, size int, opts ...Option) (*Device, error) {
	f, err := os.OpenFile(devmem, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("axi: could not open %q: %w: %w", devmem, ErrDeviceUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	h, err := mmap.Map(f, base, size)
	if err != nil {
		return nil, fmt.Errorf("axi: could not map %v %q (base=0x%x, size=%d): %w: %w",
			k, name, base, size, ErrResourceExhausted, err,
		)
	}
	defer func() {
		if err != nil {
			_ = h.Close()
		}
	}()

	dev, err := Attach(name, k, h, opts...)
	if err != nil {
		return nil, err
	}
	dev.closers = []io.Closer{h, f}
	dev.msg.Printf("%v %q at 0x%x mapped (size=%d)", k, name, base, size)

	return dev, nil
}

// Name returns the name of the device.
func (dev *Device) Name() string { return dev.name }

// Kind returns the kind of peripheral the device drives.
func (dev *Device) Kind() Kind { return dev.kind }

// Open opens a session on the device, with the access mode of flag
// (os.O_RDONLY, os.O_WRONLY or os.O_RDWR).
// Open blocks until the device is free or ctx is done, in which case the
// returned error wraps ErrInterrupted.
func (dev *Device) Open(ctx context.Context, flag int) (*Session, error) {
	err := dev.drv.access(flag)
	if err != nil {
		return nil, err
	}

	tok, err := dev.guard.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("axi: could not open %q: %w", dev.name, err)
	}

	dev.mu.Lock()
	closed := dev.closed
	dev.mu.Unlock()
	if closed {
		dev.guard.Release(tok)
		return nil, fmt.Errorf("axi: could not open %q: %w", dev.name, ErrClosed)
	}

	return &Session{dev: dev, tok: tok, flag: flag}, nil
}

// Do opens a session on the device, runs f and closes the session.
func (dev *Device) Do(ctx context.Context, flag int, f func(s *Session) error) error {
	s, err := dev.Open(ctx, flag)
	if err != nil {
		return err
	}
	defer s.Close()

	err = f(s)
	if err != nil {
		return err
	}

	return s.Close()
}

// Shutdown drives the hardware to its safe default, whether a session is
// open or not.
func (dev *Device) Shutdown() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.closed {
		return fmt.Errorf("axi: could not shutdown %q: %w", dev.name, ErrClosed)
	}

	dev.msg.Printf("shutting down %v %q", dev.kind, dev.name)
	dev.hw.Lock()
	dev.drv.off()
	dev.hw.Unlock()
	return nil
}

// Close detaches the device.
// Close waits for the open session, if any, to be closed, drives the
// hardware to its safe default and releases the register block.
func (dev *Device) Close() error {
	tok, err := dev.guard.Acquire(context.Background())
	if err != nil {
		return fmt.Errorf("axi: could not close %q: %w", dev.name, err)
	}
	defer dev.guard.Release(tok)

	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.closed {
		return fmt.Errorf("axi: could not close %q: %w", dev.name, ErrClosed)
	}
	dev.closed = true
	dev.hw.Lock()
	dev.drv.off()
	dev.hw.Unlock()

	for _, c := range dev.closers {
		e := c.Close()
		if e != nil && err == nil {
			err = fmt.Errorf("axi: could not release %q: %w", dev.name, e)
		}
	}
	dev.closers = nil

	return err
}
