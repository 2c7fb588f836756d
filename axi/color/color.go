// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package color converts packed 24-bit colors to and from their red, green
// and blue channels, and scales channels into PWM duty cycles.
package color // import "github.com/go-lpc/zybo/axi/color"

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a color, with one 8-bit channel per primary.
type Value struct {
	R, G, B uint8
}

var (
	Black = Value{}
	White = Value{0xff, 0xff, 0xff}
)

// Decode unpacks a 0xRRGGBB color.
// Bits above bit 23 are ignored.
func Decode(v uint32) Value {
	return Value{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Encode packs c as 0xRRGGBB.
func (c Value) Encode() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// String formats c as "0xRR 0xGG 0xBB", without zero padding.
func (c Value) String() string {
	return fmt.Sprintf("0x%x 0x%x 0x%x", c.R, c.G, c.B)
}

// Parse parses three space-separated hexadecimal bytes, as formatted by
// Value.String. The "0x" prefix is optional.
func Parse(s string) (Value, error) {
	toks := strings.Fields(s)
	if len(toks) != 3 {
		return Value{}, fmt.Errorf("color: invalid color %q: want 3 channels, got %d", s, len(toks))
	}

	var vs [3]uint8
	for i, tok := range toks {
		hex := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		v, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return Value{}, fmt.Errorf("color: invalid channel %q: %w", tok, err)
		}
		vs[i] = uint8(v)
	}
	return Value{R: vs[0], G: vs[1], B: vs[2]}, nil
}

// ScaleDuty returns the duty cycle, in clock cycles, of a channel value for
// a PWM of the given period whose output may only be driven for
// period/maxDiv cycles.
//
// Integer divisions happen before the multiplication: adjacent channel
// values map to the same duty cycle when period < 256*maxDiv.
// A null maxDiv yields a null duty cycle.
func ScaleDuty(period uint32, v uint8, maxDiv uint32) uint32 {
	if maxDiv == 0 {
		return 0
	}
	var (
		cycles = period / maxDiv
		scale  = cycles / 256
	)
	return scale * uint32(v)
}
