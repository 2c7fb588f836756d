// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package axi drives the memory-mapped peripherals of the Zybo programmable
// logic: a bank of LEDs, a tri-color PWM LED and a bank of switches.
//
// Each peripheral is a Device, attached to its register block.
// Users open a Session on a Device to issue commands (Session.Ioctl) or
// to stream bytes (Session.Read, Session.Write, Session.Seek).
// At most one Session per Device is open at any time.
package axi // import "github.com/go-lpc/zybo/axi"

import (
	"fmt"
	"strings"
)

// Kind is the kind of a peripheral.
type Kind uint8

const (
	KindLED Kind = iota + 1
	KindRGB
	KindSwitch
)

func (k Kind) String() string {
	switch k {
	case KindLED:
		return "led"
	case KindRGB:
		return "rgb"
	case KindSwitch:
		return "switch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind returns the peripheral kind named s.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "led", "leds":
		return KindLED, nil
	case "rgb", "rgb-led":
		return KindRGB, nil
	case "switch", "switches", "sw":
		return KindSwitch, nil
	default:
		return 0, fmt.Errorf("axi: unknown peripheral kind %q", s)
	}
}

// Privilege is the privilege level of the issuer of a command.
type Privilege uint8

const (
	User  Privilege = iota // may only query the device
	Admin                  // may also reconfigure the device
)

func (p Privilege) String() string {
	switch p {
	case User:
		return "user"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Privilege(%d)", uint8(p))
	}
}
