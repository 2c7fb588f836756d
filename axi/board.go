// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BoardConfig describes the peripherals of a board.
type BoardConfig struct {
	DevMem  string         `yaml:"devmem"` // memory device, /dev/mem by default
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes a peripheral and its register block.
// Unset optional fields keep the defaults of the device kind.
type DeviceConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Base int64  `yaml:"base"`
	Size int    `yaml:"size"`

	Period   uint32 `yaml:"period,omitempty"`    // RGB LED PWM period
	Init     *uint8 `yaml:"init,omitempty"`      // LED initial value
	Mask     *uint8 `yaml:"mask,omitempty"`      // LED or switch mask
	ReadOnly bool   `yaml:"read-only,omitempty"` // switch read-only sessions
}

// LoadBoardConfig decodes a YAML board description from r.
func LoadBoardConfig(r io.Reader) (BoardConfig, error) {
	var cfg BoardConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("axi: could not decode board configuration: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (cfg *BoardConfig) validate() error {
	if cfg.DevMem == "" {
		cfg.DevMem = "/dev/mem"
	}
	if len(cfg.Devices) == 0 {
		return fmt.Errorf("axi: board configuration has no device")
	}

	names := make(map[string]struct{}, len(cfg.Devices))
	for i, dev := range cfg.Devices {
		if dev.Name == "" {
			return fmt.Errorf("axi: device #%d has no name", i)
		}
		if _, dup := names[dev.Name]; dup {
			return fmt.Errorf("axi: duplicate device name %q", dev.Name)
		}
		names[dev.Name] = struct{}{}

		_, err := ParseKind(dev.Kind)
		if err != nil {
			return fmt.Errorf("axi: invalid device %q: %w", dev.Name, err)
		}
		if dev.Size <= 0 {
			return fmt.Errorf("axi: invalid device %q: invalid size %d", dev.Name, dev.Size)
		}
	}
	return nil
}

func (dev DeviceConfig) options(opts []Option) []Option {
	o := make([]Option, len(opts), len(opts)+4)
	copy(o, opts)

	if dev.Period != 0 {
		o = append(o, WithPeriod(dev.Period))
	}
	if dev.Init != nil {
		o = append(o, WithLEDInit(*dev.Init))
	}
	if dev.Mask != nil {
		k, _ := ParseKind(dev.Kind)
		switch k {
		case KindSwitch:
			o = append(o, WithSwitchMask(*dev.Mask))
		default:
			o = append(o, WithLEDMask(*dev.Mask))
		}
	}
	if dev.ReadOnly {
		o = append(o, WithSwitchReadOnly(true))
	}
	return o
}

// Board is a set of attached peripherals.
type Board struct {
	devs []*Device
}

// OpenBoard attaches all the devices described by cfg.
// When any device fails to attach, the already attached ones are closed.
func OpenBoard(cfg BoardConfig, opts ...Option) (*Board, error) {
	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	brd := &Board{devs: make([]*Device, len(cfg.Devices))}

	var grp errgroup.Group
	for i := range cfg.Devices {
		ii := i
		grp.Go(func() error {
			dc := cfg.Devices[ii]
			kind, err := ParseKind(dc.Kind)
			if err != nil {
				return err
			}
			dev, err := Open(cfg.DevMem, dc.Name, kind, dc.Base, dc.Size, dc.options(opts)...)
			if err != nil {
				return err
			}
			brd.devs[ii] = dev
			return nil
		})
	}

	err = grp.Wait()
	if err != nil {
		for _, dev := range brd.devs {
			if dev == nil {
				continue
			}
			_ = dev.Close()
		}
		return nil, fmt.Errorf("axi: could not open board: %w", err)
	}

	return brd, nil
}

// Device returns the device named name.
func (brd *Board) Device(name string) (*Device, error) {
	for _, dev := range brd.devs {
		if dev.name == name {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("axi: no device named %q", name)
}

// Devices returns the devices of the board, in configuration order.
func (brd *Board) Devices() []*Device {
	return brd.devs
}

// Shutdown drives all the devices to their safe default.
func (brd *Board) Shutdown() error {
	var grp errgroup.Group
	for _, dev := range brd.devs {
		dev := dev
		grp.Go(dev.Shutdown)
	}
	return grp.Wait()
}

// Close detaches all the devices.
func (brd *Board) Close() error {
	errs := make([]error, len(brd.devs))

	var grp errgroup.Group
	for i := range brd.devs {
		ii := i
		grp.Go(func() error {
			errs[ii] = brd.devs[ii].Close()
			return nil
		})
	}
	_ = grp.Wait()

	return errors.Join(errs...)
}
