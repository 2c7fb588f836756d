// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-lpc/zybo/internal/session"
	"periph.io/x/conn/v3/physic"
)

// Session is an exclusive access to a device.
//
// A Session is not safe for concurrent use.
type Session struct {
	dev  *Device
	tok  *session.Token
	flag int
	pos  int64 // stream offset

	rbuf []byte // text rendered by a read at offset 0
	wbuf []byte // bytes written since wpos
	wpos int64  // stream offset of wbuf[0]
}

var (
	_ io.ReadWriteSeeker = (*Session)(nil)
	_ io.Closer          = (*Session)(nil)
)

// accMode returns the access mode bits of an open flag.
func accMode(flag int) int {
	return flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
}

func (s *Session) readable() bool { return accMode(s.flag) != os.O_WRONLY }
func (s *Session) writable() bool { return accMode(s.flag) != os.O_RDONLY }

func (s *Session) check() error {
	if s.tok == nil {
		return ErrClosed
	}
	return nil
}

// Device returns the device the session was opened on.
func (s *Session) Device() *Device { return s.dev }

// Ioctl runs the command cmd with the privilege priv.
//
// arg holds the command argument, little-endian encoded, and receives
// the command result. arg must be at least cmd.Size() bytes long.
func (s *Session) Ioctl(priv Privilege, cmd Cmd, arg []byte) error {
	err := s.check()
	if err != nil {
		return err
	}

	desc, ok := cmd.lookup(s.dev.kind)
	if !ok {
		s.dev.msg.Printf("invalid ioctl cmd=0x%08x for %v %q", uint32(cmd), s.dev.kind, s.dev.name)
		return fmt.Errorf("axi: %v %q: %w (cmd=0x%08x)", s.dev.kind, s.dev.name, ErrInvalidCommand, uint32(cmd))
	}

	if desc.admin && priv != Admin {
		return fmt.Errorf("axi: %v on %q: %w", cmd, s.dev.name, ErrPermission)
	}

	if len(arg) < cmd.Size() {
		return fmt.Errorf("axi: %v on %q: %w (arg=%d bytes, want=%d)", cmd, s.dev.name, ErrIOFault, len(arg), cmd.Size())
	}

	s.dev.hw.Lock()
	defer s.dev.hw.Unlock()
	return s.dev.drv.ioctl(cmd, arg[:cmd.Size()])
}

// Get runs the query cmd and returns its result.
func (s *Session) Get(cmd Cmd) (uint32, error) {
	if !cmd.reads() {
		return 0, fmt.Errorf("axi: %v returns no value: %w", cmd, ErrInvalidCommand)
	}
	var buf [4]byte
	err := s.Ioctl(User, cmd, buf[:cmd.Size()])
	if err != nil {
		return 0, err
	}
	return argU32(buf[:cmd.Size()]), nil
}

// Set runs the command cmd with the value v.
func (s *Session) Set(priv Privilege, cmd Cmd, v uint32) error {
	if !cmd.writes() {
		return fmt.Errorf("axi: %v takes no value: %w", cmd, ErrInvalidCommand)
	}
	var buf [4]byte
	putArg(buf[:cmd.Size()], v)
	return s.Ioctl(priv, cmd, buf[:cmd.Size()])
}

// Exec runs the command cmd, which takes no argument.
func (s *Session) Exec(priv Privilege, cmd Cmd) error {
	if cmd.reads() || cmd.writes() {
		return fmt.Errorf("axi: %v transfers a value: %w", cmd, ErrInvalidCommand)
	}
	return s.Ioctl(priv, cmd, nil)
}

// Read reads from the device stream at the current offset.
func (s *Session) Read(p []byte) (int, error) {
	err := s.check()
	if err != nil {
		return 0, err
	}
	if !s.readable() {
		return 0, fmt.Errorf("axi: %q not opened for reading: %w", s.dev.name, ErrIOFault)
	}
	s.dev.hw.Lock()
	defer s.dev.hw.Unlock()
	return s.dev.drv.read(s, p)
}

// Write writes to the device stream at the current offset.
func (s *Session) Write(p []byte) (int, error) {
	err := s.check()
	if err != nil {
		return 0, err
	}
	if !s.writable() {
		return 0, fmt.Errorf("axi: %q not opened for writing: %w", s.dev.name, ErrInvalidArgument)
	}
	s.dev.hw.Lock()
	defer s.dev.hw.Unlock()
	return s.dev.drv.write(s, p)
}

// Seek sets the offset of the device stream.
//
// Seeking an LED bank or a RGB LED first resets it to its configured
// default, whatever the outcome of the seek.
// io.SeekEnd is not supported.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	err := s.check()
	if err != nil {
		return 0, err
	}

	s.dev.hw.Lock()
	s.dev.drv.reset()
	s.dev.hw.Unlock()
	s.clearWBuf()

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	default:
		return s.pos, fmt.Errorf("axi: invalid whence %d: %w", whence, ErrInvalidArgument)
	}
	if pos < 0 {
		return s.pos, fmt.Errorf("axi: negative offset %d: %w", pos, ErrInvalidArgument)
	}
	s.pos = pos
	s.wpos = pos

	return pos, nil
}

// PWMFrequency returns the frequency of the PWM signal driving a RGB LED.
func (s *Session) PWMFrequency() (physic.Frequency, error) {
	err := s.check()
	if err != nil {
		return 0, err
	}
	rgb, ok := s.dev.drv.(*rgbDriver)
	if !ok {
		return 0, fmt.Errorf("axi: %v %q has no PWM: %w", s.dev.kind, s.dev.name, ErrInvalidCommand)
	}
	s.dev.hw.Lock()
	defer s.dev.hw.Unlock()
	return rgb.frequency(), nil
}

// DumpRegisters writes the content of the register block to w.
func (s *Session) DumpRegisters(w io.Writer) error {
	err := s.check()
	if err != nil {
		return err
	}
	s.dev.hw.Lock()
	defer s.dev.hw.Unlock()
	for _, reg := range s.dev.regs.Regs() {
		_, err = fmt.Fprintf(w, "%-8s 0x%04x %-3v 0x%08x\n",
			reg.Name, reg.Off, reg.Width, s.dev.regs.Read(reg.Off, reg.Width),
		)
		if err != nil {
			return fmt.Errorf("axi: could not dump registers of %q: %w", s.dev.name, err)
		}
	}
	return nil
}

// Close closes the session and gives the device back.
func (s *Session) Close() error {
	err := s.check()
	if err != nil {
		return err
	}
	s.dev.guard.Release(s.tok)
	s.tok = nil
	s.rbuf = nil
	s.wbuf = nil
	return nil
}

func (s *Session) clearWBuf() {
	s.wbuf = s.wbuf[:0]
	s.wpos = s.pos
}

// readText serves a read of the text rendered by gen at offset 0.
func (s *Session) readText(p []byte, gen func() string) (int, error) {
	if s.pos == 0 {
		s.rbuf = append(s.rbuf[:0], gen()...)
	}
	if s.pos >= int64(len(s.rbuf)) {
		return 0, io.EOF
	}
	n := copy(p, s.rbuf[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func argU32(arg []byte) uint32 {
	switch len(arg) {
	case 0:
		return 0
	case 1:
		return uint32(arg[0])
	default:
		return binary.LittleEndian.Uint32(arg)
	}
}

func putArg(arg []byte, v uint32) {
	switch len(arg) {
	case 0:
	case 1:
		arg[0] = uint8(v)
	default:
		binary.LittleEndian.PutUint32(arg, v)
	}
}

// Command runs cmd, whatever its kind of argument transfer.
// v is the value of a setting command. The result of a query is returned.
func (s *Session) Command(priv Privilege, cmd Cmd, v uint32) (uint32, error) {
	switch {
	case cmd.reads():
		return s.Get(cmd)
	case cmd.writes():
		return 0, s.Set(priv, cmd, v)
	default:
		return 0, s.Exec(priv, cmd)
	}
}
