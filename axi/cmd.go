// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"fmt"
	"strings"
)

// Cmd is a device command opcode.
//
// Opcodes follow the Linux ioctl layout: transfer direction, argument
// size, a magic tag identifying the peripheral kind and a sequential index.
type Cmd uint32

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocNRMask   = 0xff
	iocTypeMask = 0xff
	iocSizeMask = 0x3fff
	iocDirMask  = 0x3
)

func ioc(dir, typ, nr, size uint32) Cmd {
	return Cmd(dir<<iocDirShift | size<<iocSizeShift | typ<<iocTypeShift | nr<<iocNRShift)
}

func iocNo(typ, nr uint32) Cmd      { return ioc(iocNone, typ, nr, 0) }
func iocR(typ, nr, size uint32) Cmd { return ioc(iocRead, typ, nr, size) }
func iocW(typ, nr, size uint32) Cmd { return ioc(iocWrite, typ, nr, size) }

// Magic returns the tag of the peripheral kind the command belongs to.
func (cmd Cmd) Magic() byte { return byte(uint32(cmd) >> iocTypeShift & iocTypeMask) }

// Index returns the sequential index of the command.
func (cmd Cmd) Index() int { return int(uint32(cmd) >> iocNRShift & iocNRMask) }

// Size returns the size in bytes of the command argument.
func (cmd Cmd) Size() int { return int(uint32(cmd) >> iocSizeShift & iocSizeMask) }

func (cmd Cmd) dir() uint32 { return uint32(cmd) >> iocDirShift & iocDirMask }

// reads reports whether the command transfers a value to the caller.
func (cmd Cmd) reads() bool { return cmd.dir()&iocRead != 0 }

// writes reports whether the command transfers a value from the caller.
func (cmd Cmd) writes() bool { return cmd.dir()&iocWrite != 0 }

// lookup returns the description of cmd among the commands of kind k.
func (cmd Cmd) lookup(k Kind) (cmdDesc, bool) {
	if cmd.Magic() != magics[k] {
		return cmdDesc{}, false
	}
	for _, d := range cmds[k] {
		if d.cmd == cmd {
			return d, true
		}
	}
	return cmdDesc{}, false
}

var magics = map[Kind]byte{
	KindLED:    'l',
	KindRGB:    'r',
	KindSwitch: 's',
}

// LED commands.
var (
	LEDGetInit = iocR('l', 0, 1)
	LEDSetInit = iocW('l', 1, 1)
	LEDGetMask = iocR('l', 2, 1)
	LEDSetMask = iocW('l', 3, 1)
	LEDReset   = iocNo('l', 4)
)

// RGB LED commands.
var (
	RGBGetValue  = iocR('r', 0, 4)
	RGBSetValue  = iocW('r', 1, 4)
	RGBSetPeriod = iocW('r', 2, 4)
	RGBGetPeriod = iocR('r', 3, 4)
)

// Switch commands.
var (
	SwitchGetMask  = iocR('s', 0, 1)
	SwitchSetMask  = iocW('s', 1, 1)
	SwitchGetValue = iocR('s', 2, 1)
)

type cmdDesc struct {
	cmd   Cmd
	name  string
	admin bool // whether the command requires the Admin privilege
}

var cmds = map[Kind][]cmdDesc{
	KindLED: {
		{LEDGetInit, "get-init", false},
		{LEDSetInit, "set-init", true},
		{LEDGetMask, "get-mask", false},
		{LEDSetMask, "set-mask", true},
		{LEDReset, "reset", false},
	},
	KindRGB: {
		{RGBGetValue, "get-value", false},
		{RGBSetValue, "set-value", true},
		{RGBSetPeriod, "set-period", true},
		{RGBGetPeriod, "get-period", false},
	},
	KindSwitch: {
		{SwitchGetMask, "get-mask", false},
		{SwitchSetMask, "set-mask", true},
		{SwitchGetValue, "get-value", false},
	},
}

// ParseCmd returns the command of a peripheral kind from its name
// (e.g. "set-mask").
func ParseCmd(k Kind, name string) (Cmd, error) {
	name = strings.ToLower(name)
	for _, d := range cmds[k] {
		if d.name == name {
			return d.cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: no %v command named %q", ErrInvalidCommand, k, name)
}

// Cmds returns the names of the commands of a peripheral kind.
func Cmds(k Kind) []string {
	names := make([]string, len(cmds[k]))
	for i, d := range cmds[k] {
		names[i] = d.name
	}
	return names
}

func (cmd Cmd) String() string {
	for k, ds := range cmds {
		for _, d := range ds {
			if d.cmd == cmd {
				return k.String() + ":" + d.name
			}
		}
	}
	return fmt.Sprintf("Cmd(0x%08x)", uint32(cmd))
}
