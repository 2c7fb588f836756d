// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestLEDStream(t *testing.T) {
	dev, mem := newTestDevice(t, KindLED, WithLEDInit(0x5), WithLEDMask(0x7))
	s := openSession(t, dev, os.O_WRONLY)

	n, err := s.Write([]byte{0x01, 0x00, 0xff, 0x00})
	if err != nil {
		t.Fatalf("could not write: %+v", err)
	}
	if n != 4 {
		t.Fatalf("invalid number of bytes written: got=%d, want=%d", n, 4)
	}
	if got, want := mem.Load8(ledData), uint8(0x07); got != want {
		t.Fatalf("invalid LED output: got=0x%x, want=0x%x", got, want)
	}
	if got, want := s.pos, int64(2); got != want {
		t.Fatalf("invalid offset: got=%d, want=%d", got, want)
	}

	_, err = s.Read(make([]byte, 4))
	if !errors.Is(err, ErrIOFault) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrIOFault)
	}

	pos, err := s.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	if pos != 0 {
		t.Fatalf("invalid offset: got=%d, want=0", pos)
	}
	if got, want := mem.Load8(ledData), uint8(0x05); got != want {
		t.Fatalf("invalid LED output after seek: got=0x%x, want=0x%x", got, want)
	}
}

func TestRGBStreamRead(t *testing.T) {
	dev, _ := newTestDevice(t, KindRGB)
	s := openSession(t, dev, os.O_RDWR)

	err := s.Set(Admin, RGBSetValue, 0xff0000)
	if err != nil {
		t.Fatalf("could not set color: %+v", err)
	}

	var (
		o   strings.Builder
		buf = make([]byte, 4)
	)
	for {
		n, err := s.Read(buf)
		o.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("could not read: %+v", err)
		}
	}
	if got, want := o.String(), "0xff 0x0 0x0\n"; got != want {
		t.Fatalf("invalid stream: got=%q, want=%q", got, want)
	}

	// the text is not regenerated until the next read at offset 0.
	err = s.Set(Admin, RGBSetValue, 0x0000ff)
	if err != nil {
		t.Fatalf("could not set color: %+v", err)
	}
	n, err := s.Read(buf)
	if n != 0 || err != io.EOF {
		t.Fatalf("invalid read past end: n=%d, err=%v", n, err)
	}

	_, err = s.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	err = s.Set(Admin, RGBSetValue, 0x0000ff)
	if err != nil {
		t.Fatalf("could not set color: %+v", err)
	}
	raw, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := string(raw), "0x0 0x0 0xff\n"; got != want {
		t.Fatalf("invalid stream: got=%q, want=%q", got, want)
	}
}

func TestRGBStreamWrite(t *testing.T) {
	for _, tc := range []struct {
		name   string
		writes []string
		err    error
		want   uint32
	}{
		{
			name:   "one-shot",
			writes: []string{"0x12 0x34 0x56"},
			want:   0x123456,
		},
		{
			name:   "newline",
			writes: []string{"0x12 0x34 0x56\n"},
			want:   0x123456,
		},
		{
			name:   "trailing-nul",
			writes: []string{"0x12 0x34 0x56\x00garbage"},
			want:   0x123456,
		},
		{
			name:   "chunked",
			writes: []string{"0x12 0x3", "4 0x", "56"},
			want:   0x123456,
		},
		{
			name:   "consecutive",
			writes: []string{"0x12 0x34 0x56", "0x0a 0x0b 0x0c"},
			want:   0x0a0b0c,
		},
		{
			name:   "short",
			writes: []string{"0x12 0x34"},
			want:   0x010203,
		},
		{
			name:   "invalid-hex",
			writes: []string{"0xZZ 0x00 0x00"},
			err:    ErrInvalidFormat,
			want:   0x010203,
		},
		{
			name:   "too-long",
			writes: []string{"0x12 0x34 0x567"},
			err:    ErrInvalidFormat,
			want:   0x010203,
		},
		{
			name:   "too-long-chunked",
			writes: []string{"0x12 0x34 0x5", "6 0x78"},
			err:    ErrInvalidFormat,
			want:   0x010203,
		},
		{
			name:   "overflow",
			writes: []string{strings.Repeat(" ", rgbBufSize+1)},
			err:    ErrInvalidFormat,
			want:   0x010203,
		},
		{
			name:   "recover-after-error",
			writes: []string{"0xZZ 0x00 0x00", "0xaa 0xbb 0xcc"},
			err:    ErrInvalidFormat,
			want:   0xaabbcc,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev, _ := newTestDevice(t, KindRGB)
			s := openSession(t, dev, os.O_RDWR)

			err := s.Set(Admin, RGBSetValue, 0x010203)
			if err != nil {
				t.Fatalf("could not set color: %+v", err)
			}

			var werr error
			for _, w := range tc.writes {
				pos := s.pos
				n, err := s.Write([]byte(w))
				if err != nil {
					werr = err
					if n != 0 {
						t.Fatalf("invalid number of bytes written on error: %d", n)
					}
					if s.pos != pos {
						t.Fatalf("offset moved on error: got=%d, want=%d", s.pos, pos)
					}
					continue
				}
				if n != len(w) {
					t.Fatalf("invalid number of bytes written: got=%d, want=%d", n, len(w))
				}
			}

			switch {
			case tc.err == nil && werr != nil:
				t.Fatalf("could not write: %+v", werr)
			case tc.err != nil && !errors.Is(werr, tc.err):
				t.Fatalf("invalid error: got=%+v, want=%+v", werr, tc.err)
			}

			got, err := s.Get(RGBGetValue)
			if err != nil {
				t.Fatalf("could not get color: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("invalid color: got=0x%06x, want=0x%06x", got, tc.want)
			}
		})
	}
}

func TestRGBStreamWriteNeedsNoPrivilege(t *testing.T) {
	dev, mem := newTestDevice(t, KindRGB)
	s := openSession(t, dev, os.O_WRONLY)

	// colors are only applied once the text has its full length.
	_, err := s.Write([]byte("0x0 0x0 0xff\n"))
	if err != nil {
		t.Fatalf("could not write: %+v", err)
	}
	if got := mem.Load32(pwmDutyB); got != 0 {
		t.Fatalf("invalid duty-b register: got=%d, want=0", got)
	}

	_, err = s.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	_, err = s.Write([]byte("0x00 0x00 0xff"))
	if err != nil {
		t.Fatalf("could not write: %+v", err)
	}
	if got, want := mem.Load32(pwmDutyB), uint32(510); got != want {
		t.Fatalf("invalid duty-b register: got=%d, want=%d", got, want)
	}

	_, err = s.Read(make([]byte, 4))
	if !errors.Is(err, ErrIOFault) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrIOFault)
	}
}

func TestRGBStreamReadOnly(t *testing.T) {
	dev, _ := newTestDevice(t, KindRGB)
	s := openSession(t, dev, os.O_RDONLY)

	_, err := s.Write([]byte("0x12 0x34 0x56"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrInvalidArgument)
	}
}

func TestRGBSeekReset(t *testing.T) {
	dev, mem := newTestDevice(t, KindRGB)
	s := openSession(t, dev, os.O_RDWR)

	err := s.Set(Admin, RGBSetValue, 0xffffff)
	if err != nil {
		t.Fatalf("could not set color: %+v", err)
	}

	pos, err := s.Seek(3, io.SeekCurrent)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	if pos != 3 {
		t.Fatalf("invalid offset: got=%d, want=3", pos)
	}

	got, err := s.Get(RGBGetValue)
	if err != nil {
		t.Fatalf("could not get color: %+v", err)
	}
	if got != 0 {
		t.Fatalf("invalid color after seek: got=0x%x, want=0x0", got)
	}
	for _, off := range []int64{pwmDutyB, pwmDutyG, pwmDutyR} {
		if got := mem.Load32(off); got != 0 {
			t.Fatalf("invalid duty cycle register 0x%x: got=%d, want=0", off, got)
		}
	}
	if got, want := mem.Load32(pwmCtrl), uint32(pwmEnable); got != want {
		t.Fatalf("invalid ctrl register: got=%d, want=%d", got, want)
	}
}

func TestSeek(t *testing.T) {
	for _, tc := range []struct {
		name   string
		offset int64
		whence int
		want   int64
		err    error
	}{
		{name: "start", offset: 4, whence: io.SeekStart, want: 4},
		{name: "current", offset: 3, whence: io.SeekCurrent, want: 5},
		{name: "current-back", offset: -2, whence: io.SeekCurrent, want: 0},
		{name: "end", offset: 0, whence: io.SeekEnd, want: 2, err: ErrInvalidArgument},
		{name: "negative", offset: -1, whence: io.SeekStart, want: 2, err: ErrInvalidArgument},
		{name: "negative-current", offset: -3, whence: io.SeekCurrent, want: 2, err: ErrInvalidArgument},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev, mem := newTestDevice(t, KindLED, WithLEDInit(0x1))
			s := openSession(t, dev, os.O_WRONLY)

			_, err := s.Write([]byte{0x8, 0x4})
			if err != nil {
				t.Fatalf("could not write: %+v", err)
			}

			pos, err := s.Seek(tc.offset, tc.whence)
			switch {
			case tc.err == nil && err != nil:
				t.Fatalf("could not seek: %+v", err)
			case tc.err != nil && !errors.Is(err, tc.err):
				t.Fatalf("invalid error: got=%+v, want=%+v", err, tc.err)
			}
			if pos != tc.want {
				t.Fatalf("invalid offset: got=%d, want=%d", pos, tc.want)
			}

			// the reset happens whatever the outcome of the seek.
			if got, want := mem.Load8(ledData), uint8(0x1); got != want {
				t.Fatalf("invalid LED output: got=0x%x, want=0x%x", got, want)
			}
		})
	}
}

func TestSwitchStream(t *testing.T) {
	dev, mem := newTestDevice(t, KindSwitch)
	s := openSession(t, dev, os.O_RDWR)

	mem.Store8(swData, 0x1f)
	raw, err := io.ReadAll(s)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := string(raw), "15\n"; got != want {
		t.Fatalf("invalid stream: got=%q, want=%q", got, want)
	}

	n, err := s.Read(make([]byte, 8))
	if n != 0 || err != io.EOF {
		t.Fatalf("invalid read past end: n=%d, err=%v", n, err)
	}

	_, err = s.Seek(1, io.SeekStart)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	if got, want := mem.Load8(swData), uint8(0x1f); got != want {
		t.Fatalf("switches modified by seek: got=0x%x, want=0x%x", got, want)
	}
	raw, err = io.ReadAll(s)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := string(raw), "5\n"; got != want {
		t.Fatalf("invalid stream: got=%q, want=%q", got, want)
	}

	_, err = s.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatalf("could not seek: %+v", err)
	}
	mem.Store8(swData, 0x3)
	raw, err = io.ReadAll(s)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := string(raw), "3\n"; got != want {
		t.Fatalf("invalid stream: got=%q, want=%q", got, want)
	}

	for _, p := range [][]byte{[]byte("1"), nil, {0}} {
		_, err = s.Write(p)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrInvalidArgument)
		}
	}

	for _, hw := range []uint8{0x00, 0x05, 0xf0, 0xff} {
		mem.Store8(swData, hw)
		got, err := s.Get(SwitchGetValue)
		if err != nil {
			t.Fatalf("could not get value: %+v", err)
		}
		if want := uint32(hw & defaultSwitchMask); got != want {
			t.Fatalf("invalid value: got=0x%x, want=0x%x", got, want)
		}
	}
}
