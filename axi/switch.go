// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-lpc/zybo/internal/regfile"
)

const (
	swData = 0x00 // switch positions register
)

type switchDriver struct {
	dev      *Device
	mask     uint8
	readOnly bool
}

func newSwitch(dev *Device) *switchDriver {
	return &switchDriver{
		dev:      dev,
		mask:     dev.cfg.sw.mask,
		readOnly: dev.cfg.sw.readOnly,
	}
}

func (*switchDriver) layout() []regfile.Reg {
	return []regfile.Reg{
		{Name: "data", Off: swData, Width: regfile.W8},
	}
}

// switches hold no settable state.
func (*switchDriver) on()    {}
func (*switchDriver) off()   {}
func (*switchDriver) reset() {}

func (drv *switchDriver) access(flag int) error {
	if drv.readOnly && accMode(flag) != os.O_RDONLY {
		return fmt.Errorf("axi: switch %q must be opened read-only: %w", drv.dev.name, ErrPermission)
	}
	return nil
}

func (drv *switchDriver) value() uint8 {
	return uint8(drv.dev.regs.Read(swData, regfile.W8)) & drv.mask
}

func (drv *switchDriver) ioctl(cmd Cmd, arg []byte) error {
	switch cmd {
	case SwitchGetMask:
		putArg(arg, uint32(drv.mask))
	case SwitchSetMask:
		drv.mask = uint8(argU32(arg))
	case SwitchGetValue:
		putArg(arg, uint32(drv.value()))
	default:
		return fmt.Errorf("axi: switch %q: %w (cmd=0x%08x)", drv.dev.name, ErrInvalidCommand, uint32(cmd))
	}
	return nil
}

// read serves the masked switch positions as a decimal number.
func (drv *switchDriver) read(s *Session, p []byte) (int, error) {
	return s.readText(p, func() string {
		return strconv.Itoa(int(drv.value())) + "\n"
	})
}

func (drv *switchDriver) write(s *Session, p []byte) (int, error) {
	return 0, fmt.Errorf("axi: switch %q is read-only: %w", drv.dev.name, ErrInvalidArgument)
}
