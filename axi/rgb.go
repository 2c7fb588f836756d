// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"bytes"
	"fmt"

	"github.com/go-lpc/zybo/axi/color"
	"github.com/go-lpc/zybo/internal/regfile"
	"periph.io/x/conn/v3/physic"
)

// PWM controller registers.
const (
	pwmCtrl   = 0x00
	pwmPeriod = 0x08
	pwmDutyB  = 0x40
	pwmDutyG  = 0x44
	pwmDutyR  = 0x48
)

const (
	pwmEnable  = 1
	pwmDisable = 0

	pwmMaxDiv = 8 // fraction of the period the duty cycle may span
)

const (
	rgbBufSize = 512
	rgbTextLen = len("0xAA 0xBB 0xCC")
)

type rgbDriver struct {
	dev    *Device
	period uint32
	clock  physic.Frequency
	color  color.Value
}

func newRGB(dev *Device) *rgbDriver {
	return &rgbDriver{
		dev:    dev,
		period: dev.cfg.rgb.period,
		clock:  dev.cfg.rgb.clock,
		color:  color.Black,
	}
}

func (*rgbDriver) layout() []regfile.Reg {
	return []regfile.Reg{
		{Name: "ctrl", Off: pwmCtrl, Width: regfile.W32},
		{Name: "period", Off: pwmPeriod, Width: regfile.W32},
		{Name: "duty-b", Off: pwmDutyB, Width: regfile.W32},
		{Name: "duty-g", Off: pwmDutyG, Width: regfile.W32},
		{Name: "duty-r", Off: pwmDutyR, Width: regfile.W32},
	}
}

// apply programs the duty cycles of c and the period, then makes c the
// current color.
func (drv *rgbDriver) apply(c color.Value) {
	regs := drv.dev.regs
	regs.Write(pwmDutyB, regfile.W32, color.ScaleDuty(drv.period, c.B, pwmMaxDiv))
	regs.Write(pwmDutyG, regfile.W32, color.ScaleDuty(drv.period, c.G, pwmMaxDiv))
	regs.Write(pwmDutyR, regfile.W32, color.ScaleDuty(drv.period, c.R, pwmMaxDiv))
	regs.Write(pwmPeriod, regfile.W32, drv.period)
	drv.color = c
}

func (drv *rgbDriver) on() {
	drv.apply(color.Black)
	drv.dev.regs.Write(pwmCtrl, regfile.W32, pwmEnable)
}

func (drv *rgbDriver) off() {
	drv.apply(color.Black)
	drv.dev.regs.Write(pwmCtrl, regfile.W32, pwmDisable)
}

func (drv *rgbDriver) reset() { drv.apply(color.Black) }

func (*rgbDriver) access(flag int) error { return nil }

func (drv *rgbDriver) frequency() physic.Frequency {
	return drv.clock / physic.Frequency(drv.period)
}

func (drv *rgbDriver) ioctl(cmd Cmd, arg []byte) error {
	switch cmd {
	case RGBGetValue:
		putArg(arg, drv.color.Encode())
	case RGBSetValue:
		drv.apply(color.Decode(argU32(arg)))
	case RGBGetPeriod:
		putArg(arg, drv.period)
	case RGBSetPeriod:
		v := argU32(arg)
		if v == 0 {
			return fmt.Errorf("axi: rgb %q: null PWM period: %w", drv.dev.name, ErrInvalidArgument)
		}
		drv.period = v
	default:
		return fmt.Errorf("axi: rgb %q: %w (cmd=0x%08x)", drv.dev.name, ErrInvalidCommand, uint32(cmd))
	}
	return nil
}

// read serves the current color as "0xRR 0xGG 0xBB\n".
func (drv *rgbDriver) read(s *Session, p []byte) (int, error) {
	return s.readText(p, func() string {
		return drv.color.String() + "\n"
	})
}

// write accumulates p until a complete "0xRR 0xGG 0xBB" color has been
// received, and applies it.
func (drv *rgbDriver) write(s *Session, p []byte) (int, error) {
	var (
		beg = s.pos - s.wpos
		end = beg + int64(len(p))
	)
	if end > rgbBufSize {
		s.clearWBuf()
		drv.dev.msg.Printf("rgb %q: color overflows stream buffer (%d bytes)", drv.dev.name, end)
		return 0, fmt.Errorf("axi: rgb %q: color too long: %w", drv.dev.name, ErrInvalidFormat)
	}
	if n := int(end); len(s.wbuf) < n {
		s.wbuf = append(s.wbuf, make([]byte, n-len(s.wbuf))...)
	}
	copy(s.wbuf[beg:], p)

	txt := s.wbuf
	if i := bytes.IndexByte(txt, 0); i >= 0 {
		txt = txt[:i]
	}
	txt = bytes.TrimRight(txt, " \t\r\n")

	switch {
	case len(txt) < rgbTextLen:
		s.pos += int64(len(p))
		return len(p), nil
	case len(txt) > rgbTextLen:
		s.clearWBuf()
		drv.dev.msg.Printf("rgb %q: invalid color %q (want 0xAA 0xBB 0xCC)", drv.dev.name, txt)
		return 0, fmt.Errorf("axi: rgb %q: color too long: %w", drv.dev.name, ErrInvalidFormat)
	}

	c, err := color.Parse(string(txt))
	if err != nil {
		s.clearWBuf()
		drv.dev.msg.Printf("rgb %q: invalid color %q (want 0xAA 0xBB 0xCC)", drv.dev.name, txt)
		return 0, fmt.Errorf("axi: rgb %q: %w: %w", drv.dev.name, ErrInvalidFormat, err)
	}

	drv.apply(c)
	s.pos += int64(len(p))
	s.clearWBuf()

	return len(p), nil
}
