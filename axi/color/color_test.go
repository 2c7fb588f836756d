// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package color

import (
	"testing"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		v    uint32
		want Value
	}{
		{0x000000, Black},
		{0xffffff, White},
		{0xff0000, Value{R: 0xff}},
		{0x00ff00, Value{G: 0xff}},
		{0x0000ff, Value{B: 0xff}},
		{0xff00ff, Value{R: 0xff, B: 0xff}},
		{0x123456, Value{R: 0x12, G: 0x34, B: 0x56}},
		{0xab123456, Value{R: 0x12, G: 0x34, B: 0x56}},
	} {
		got := Decode(tc.v)
		if got != tc.want {
			t.Fatalf("decode(0x%x): got=%+v, want=%+v", tc.v, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 3 {
			for b := 0; b < 256; b += 7 {
				c := Value{uint8(r), uint8(g), uint8(b)}
				if got := Decode(c.Encode()); got != c {
					t.Fatalf("decode(encode(%+v)) = %+v", c, got)
				}
			}
		}
	}

	for x := uint32(0); x <= 0xffffff; x += 0x10101 {
		if got := Decode(x).Encode(); got != x {
			t.Fatalf("encode(decode(0x%x)) = 0x%x", x, got)
		}
	}
}

func TestScaleDuty(t *testing.T) {
	for _, tc := range []struct {
		period uint32
		v      uint8
		div    uint32
		want   uint32
	}{
		{4096, 0, 8, 0},
		{4096, 1, 8, 2},
		{4096, 0xff, 8, 510},
		{8192, 0xff, 8, 1020},
		{4095, 0xff, 8, 1 * 0xff},
		{2047, 0xff, 8, 0},
		{100, 0x80, 1, 0},
		{256 * 3, 10, 1, 30},
		{4096, 0xff, 0, 0},
	} {
		got := ScaleDuty(tc.period, tc.v, tc.div)
		if got != tc.want {
			t.Fatalf("scale(period=%d, v=%d, div=%d): got=%d, want=%d",
				tc.period, tc.v, tc.div, got, tc.want,
			)
		}
	}
}

func TestScaleDutyMonotonic(t *testing.T) {
	for _, period := range []uint32{1, 255, 2047, 2048, 4096, 10000, 1 << 20, 0xffffffff} {
		prev := uint32(0)
		for v := 0; v < 256; v++ {
			got := ScaleDuty(period, uint8(v), 8)
			if got < prev {
				t.Fatalf("period=%d: duty(%d)=%d < duty(%d)=%d", period, v, got, v-1, prev)
			}
			prev = got
		}
	}
}

func TestFormatParse(t *testing.T) {
	c := Value{R: 0xff, G: 0x00, B: 0x0a}
	if got, want := c.String(), "0xff 0x0 0xa"; got != want {
		t.Fatalf("invalid format: got=%q, want=%q", got, want)
	}

	for _, tc := range []struct {
		str  string
		want Value
		err  bool
	}{
		{str: "0xff 0x00 0x00", want: Value{R: 0xff}},
		{str: "0xAA 0xBB 0xCC\n", want: Value{0xaa, 0xbb, 0xcc}},
		{str: "0x1 0x2 0x3", want: Value{1, 2, 3}},
		{str: "ff 10 01", want: Value{0xff, 0x10, 0x01}},
		{str: "0xZZ 0x00 0x00", err: true},
		{str: "0x100 0x00 0x00", err: true},
		{str: "0xff 0x00", err: true},
		{str: "0xff 0x00 0x00 0x00", err: true},
		{str: "0x 0x00 0x00", err: true},
	} {
		t.Run(tc.str, func(t *testing.T) {
			got, err := Parse(tc.str)
			switch {
			case err != nil && !tc.err:
				t.Fatalf("could not parse %q: %+v", tc.str, err)
			case err == nil && tc.err:
				t.Fatalf("expected an error, got=%+v", got)
			case err == nil && got != tc.want:
				t.Fatalf("invalid value: got=%+v, want=%+v", got, tc.want)
			}
		})
	}
}
