// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/prometheus/client_golang/prometheus"
)

// Server exposes the devices of a board as a TDAQ process.
//
// The board is attached on /config, from the YAML description file the
// server was created with, and detached on /quit.
type Server struct {
	mu    sync.Mutex
	fname string
	priv  Privilege
	opts  []Option
	brd   *Board

	freq time.Duration // switches polling period
	sw   chan []byte
	met  *metrics
}

// NewServer returns a server for the board described in fname.
// Commands are issued with the privilege priv.
// Metrics are registered with reg, when not nil.
func NewServer(fname string, priv Privilege, reg prometheus.Registerer, opts ...Option) *Server {
	return &Server{
		fname: fname,
		priv:  priv,
		opts:  opts,
		freq:  100 * time.Millisecond,
		sw:    make(chan []byte, 1024),
		met:   newMetrics(reg),
	}
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	f, err := os.Open(srv.fname)
	if err != nil {
		ctx.Msg.Errorf("could not open board configuration: %+v", err)
		return fmt.Errorf("could not open board configuration: %w", err)
	}
	defer f.Close()

	cfg, err := LoadBoardConfig(f)
	if err != nil {
		ctx.Msg.Errorf("could not load board configuration: %+v", err)
		return fmt.Errorf("could not load board configuration %q: %w", srv.fname, err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd != nil {
		err = srv.brd.Close()
		srv.brd = nil
		if err != nil {
			ctx.Msg.Errorf("could not close previous board: %+v", err)
			return fmt.Errorf("could not close previous board: %w", err)
		}
	}

	brd, err := OpenBoard(cfg, srv.opts...)
	if err != nil {
		ctx.Msg.Errorf("could not open board: %+v", err)
		return fmt.Errorf("could not open board: %w", err)
	}
	srv.brd = brd

	for _, dev := range brd.Devices() {
		ctx.Msg.Infof("attached %v %q", dev.Kind(), dev.Name())
	}

	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return srv.reset(ctx)
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return srv.reset(ctx)
}

// reset drives the LED banks and RGB LEDs to their configured default.
func (srv *Server) reset(ctx tdaq.Context) error {
	brd, err := srv.board()
	if err != nil {
		return err
	}

	for _, dev := range brd.Devices() {
		if dev.Kind() == KindSwitch {
			continue
		}
		err := dev.Do(ctx.Ctx, os.O_WRONLY, func(s *Session) error {
			_, err := s.Seek(0, io.SeekStart)
			return err
		})
		if err != nil {
			ctx.Msg.Errorf("could not reset %q: %+v", dev.Name(), err)
			return fmt.Errorf("could not reset %q: %w", dev.Name(), err)
		}
	}

	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd == nil {
		return nil
	}

	brd := srv.brd
	srv.brd = nil

	err := brd.Shutdown()
	if err != nil {
		ctx.Msg.Errorf("could not shutdown board: %+v", err)
	}

	err = brd.Close()
	if err != nil {
		ctx.Msg.Errorf("could not close board: %+v", err)
		return fmt.Errorf("could not close board: %w", err)
	}

	return nil
}

// OnCommand runs a device command.
//
// The request holds the device name, the command name and the command
// value. The response holds the command result.
func (srv *Server) OnCommand(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	var (
		name = dec.ReadStr()
		op   = dec.ReadStr()
		val  = dec.ReadU32()
	)
	ctx.Msg.Debugf("received /cmd command (dev=%q, cmd=%q, v=0x%x)...", name, op, val)

	dev, err := srv.device(name)
	if err != nil {
		ctx.Msg.Errorf("could not find device: %+v", err)
		return err
	}

	cmd, err := ParseCmd(dev.Kind(), op)
	if err != nil {
		srv.met.command(name, "invalid", err)
		ctx.Msg.Errorf("could not parse command: %+v", err)
		return err
	}

	var out uint32
	err = dev.Do(ctx.Ctx, cmdFlag(dev.Kind()), func(s *Session) error {
		var err error
		out, err = s.Command(srv.priv, cmd, val)
		return err
	})
	srv.met.command(name, op, err)
	if err != nil {
		ctx.Msg.Errorf("could not run %v on %q: %+v", cmd, name, err)
		return fmt.Errorf("could not run %v on %q: %w", cmd, name, err)
	}

	buf := new(bytes.Buffer)
	tdaq.NewEncoder(buf).WriteU32(out)
	resp.Body = buf.Bytes()

	return nil
}

// OnWrite writes the request payload to the stream of a device.
func (srv *Server) OnWrite(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	var (
		name = dec.ReadStr()
		data = dec.ReadStr()
	)
	ctx.Msg.Debugf("received /write command (dev=%q, n=%d)...", name, len(data))

	dev, err := srv.device(name)
	if err != nil {
		ctx.Msg.Errorf("could not find device: %+v", err)
		return err
	}

	err = dev.Do(ctx.Ctx, os.O_WRONLY, func(s *Session) error {
		_, err := s.Write([]byte(data))
		return err
	})
	srv.met.command(name, "write", err)
	if err != nil {
		ctx.Msg.Errorf("could not write to %q: %+v", name, err)
		return fmt.Errorf("could not write to %q: %w", name, err)
	}

	return nil
}

// OnRead reads the stream of a device, from its start.
func (srv *Server) OnRead(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	name := dec.ReadStr()
	ctx.Msg.Debugf("received /read command (dev=%q)...", name)

	dev, err := srv.device(name)
	if err != nil {
		ctx.Msg.Errorf("could not find device: %+v", err)
		return err
	}

	var data []byte
	err = dev.Do(ctx.Ctx, os.O_RDONLY, func(s *Session) error {
		var err error
		data, err = io.ReadAll(s)
		return err
	})
	srv.met.command(name, "read", err)
	if err != nil {
		ctx.Msg.Errorf("could not read from %q: %+v", name, err)
		return fmt.Errorf("could not read from %q: %w", name, err)
	}

	buf := new(bytes.Buffer)
	tdaq.NewEncoder(buf).WriteStr(string(data))
	resp.Body = buf.Bytes()

	return nil
}

// Switches sends the last polled switch values.
func (srv *Server) Switches(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.sw:
		dst.Body = data
	}
	return nil
}

// Run polls the switch banks of the board until ctx is done.
func (srv *Server) Run(ctx tdaq.Context) error {
	tck := time.NewTicker(srv.freq)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-tck.C:
			data, err := srv.poll(ctx)
			if err != nil {
				ctx.Msg.Errorf("could not poll switches: %+v", err)
				continue
			}
			if data == nil {
				continue
			}
			select {
			case srv.sw <- data:
			default:
			}
		}
	}
}

// poll reads all the switch banks of the board.
// The encoded frame holds the number of banks, then the name and value of
// each bank.
func (srv *Server) poll(ctx tdaq.Context) ([]byte, error) {
	brd, err := srv.board()
	if err != nil {
		return nil, nil
	}

	type bank struct {
		name string
		v    uint32
	}
	var banks []bank
	for _, dev := range brd.Devices() {
		if dev.Kind() != KindSwitch {
			continue
		}
		var v uint32
		err := dev.Do(ctx.Ctx, os.O_RDONLY, func(s *Session) error {
			var err error
			v, err = s.Get(SwitchGetValue)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("could not read %q: %w", dev.Name(), err)
		}
		srv.met.switches.WithLabelValues(dev.Name()).Set(float64(v))
		banks = append(banks, bank{dev.Name(), v})
	}
	if len(banks) == 0 {
		return nil, nil
	}

	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(uint32(len(banks)))
	for _, b := range banks {
		enc.WriteStr(b.name)
		enc.WriteU32(b.v)
	}
	return buf.Bytes(), nil
}

func (srv *Server) board() (*Board, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.brd == nil {
		return nil, fmt.Errorf("axi: board not configured")
	}
	return srv.brd, nil
}

func (srv *Server) device(name string) (*Device, error) {
	brd, err := srv.board()
	if err != nil {
		return nil, err
	}
	return brd.Device(name)
}

// cmdFlag returns the access mode sessions running commands are opened with.
func cmdFlag(k Kind) int {
	if k == KindLED {
		return os.O_WRONLY
	}
	return os.O_RDONLY
}
