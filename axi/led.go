// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"fmt"
	"os"

	"github.com/go-lpc/zybo/internal/regfile"
)

const (
	ledData = 0x00 // LED pattern register
)

type ledDriver struct {
	dev     *Device
	initial uint8
	mask    uint8
}

func newLED(dev *Device) *ledDriver {
	return &ledDriver{
		dev:     dev,
		initial: dev.cfg.led.init,
		mask:    dev.cfg.led.mask,
	}
}

func (*ledDriver) layout() []regfile.Reg {
	return []regfile.Reg{
		{Name: "data", Off: ledData, Width: regfile.W8},
	}
}

func (drv *ledDriver) on()    { drv.reset() }
func (drv *ledDriver) off()   { drv.dev.regs.Write(ledData, regfile.W8, 0) }
func (drv *ledDriver) reset() { drv.dev.regs.WriteMasked8(ledData, drv.initial, drv.mask) }

func (drv *ledDriver) access(flag int) error {
	if accMode(flag) != os.O_WRONLY {
		return fmt.Errorf("axi: led %q must be opened write-only: %w", drv.dev.name, ErrPermission)
	}
	return nil
}

func (drv *ledDriver) ioctl(cmd Cmd, arg []byte) error {
	switch cmd {
	case LEDGetInit:
		putArg(arg, uint32(drv.initial))
	case LEDSetInit:
		drv.initial = uint8(argU32(arg))
	case LEDGetMask:
		putArg(arg, uint32(drv.mask))
	case LEDSetMask:
		drv.mask = uint8(argU32(arg))
	case LEDReset:
		drv.reset()
	default:
		return fmt.Errorf("axi: led %q: %w (cmd=0x%08x)", drv.dev.name, ErrInvalidCommand, uint32(cmd))
	}
	return nil
}

func (drv *ledDriver) read(s *Session, p []byte) (int, error) {
	return 0, fmt.Errorf("axi: led %q can not be read: %w", drv.dev.name, ErrIOFault)
}

// write drives each non-NUL byte of p, in turn, as the LED pattern.
func (drv *ledDriver) write(s *Session, p []byte) (int, error) {
	n := 0
	for _, v := range p {
		if v == 0 {
			continue
		}
		drv.dev.regs.WriteMasked8(ledData, v, drv.mask)
		n++
	}
	s.pos += int64(n)
	return len(p), nil
}
