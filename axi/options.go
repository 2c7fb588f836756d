// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"log"
	"os"

	"periph.io/x/conn/v3/physic"
)

const (
	defaultLEDInit    = 0x0
	defaultLEDMask    = 0xf
	defaultSwitchMask = 0xf
	defaultPeriod     = 4096 // PWM period, in clock cycles
	defaultPWMClock   = 100 * physic.MegaHertz
)

type config struct {
	msg *log.Logger

	led struct {
		init uint8
		mask uint8
	}
	rgb struct {
		period uint32
		clock  physic.Frequency
	}
	sw struct {
		mask     uint8
		readOnly bool // whether sessions must be opened read-only
	}
}

func newConfig() config {
	var cfg config
	cfg.msg = log.New(os.Stdout, "axi: ", 0)
	cfg.led.init = defaultLEDInit
	cfg.led.mask = defaultLEDMask
	cfg.rgb.period = defaultPeriod
	cfg.rgb.clock = defaultPWMClock
	cfg.sw.mask = defaultSwitchMask
	return cfg
}

// Option configures a device at attach time.
type Option func(*config)

// WithLogger sets the logger of the device.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithLEDInit sets the initial value of a LED bank, driven on reset.
func WithLEDInit(v uint8) Option {
	return func(cfg *config) {
		cfg.led.init = v
	}
}

// WithLEDMask sets the mask applied to every LED pattern.
func WithLEDMask(mask uint8) Option {
	return func(cfg *config) {
		cfg.led.mask = mask
	}
}

// WithSwitchMask sets the mask applied to switch values.
func WithSwitchMask(mask uint8) Option {
	return func(cfg *config) {
		cfg.sw.mask = mask
	}
}

// WithSwitchReadOnly sets whether sessions on a switch bank must be opened
// read-only.
func WithSwitchReadOnly(v bool) Option {
	return func(cfg *config) {
		cfg.sw.readOnly = v
	}
}

// WithPeriod sets the PWM period, in clock cycles, of a RGB LED.
func WithPeriod(period uint32) Option {
	return func(cfg *config) {
		cfg.rgb.period = period
	}
}

// WithPWMClock sets the frequency of the clock driving a RGB LED PWM.
func WithPWMClock(clk physic.Frequency) Option {
	return func(cfg *config) {
		cfg.rgb.clock = clk
	}
}
