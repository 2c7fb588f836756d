// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regfile provides typed access to a memory-mapped register block.
package regfile // import "github.com/go-lpc/zybo/internal/regfile"

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Width is the access width of a register, in bytes.
type Width uint8

const (
	W8  Width = 1
	W32 Width = 4
)

func (w Width) String() string {
	switch w {
	case W8:
		return "u8"
	case W32:
		return "u32"
	default:
		return fmt.Sprintf("Width(%d)", uint8(w))
	}
}

// Reg describes a register of the block.
type Reg struct {
	Name  string
	Off   int64
	Width Width
}

// Mem is the memory backing a register block.
type Mem interface {
	io.ReaderAt
	io.WriterAt
	Len() int
}

// wordMem is implemented by memories able to perform single-access loads
// and stores, such as mmap'd windows of /dev/mem.
type wordMem interface {
	Load8(off int64) uint8
	Store8(off int64, v uint8)
	Load32(off int64) uint32
	Store32(off int64, v uint32)
}

// File is a register block.
//
// A File performs no caching and no locking: every call is a real access,
// and callers serialize accesses themselves.
type File struct {
	mem  Mem
	word wordMem
	regs map[int64]Reg
	xbuf [4]byte
}

// New declares the registers regs over mem.
// New fails if any register lies outside of mem.
func New(mem Mem, regs ...Reg) (*File, error) {
	f := &File{
		mem:  mem,
		regs: make(map[int64]Reg, len(regs)),
	}
	if w, ok := mem.(wordMem); ok {
		f.word = w
	}

	size := int64(mem.Len())
	for _, reg := range regs {
		switch reg.Width {
		case W8, W32:
		default:
			return nil, fmt.Errorf("regfile: register %q has invalid width %v", reg.Name, reg.Width)
		}
		if reg.Off < 0 || reg.Off+int64(reg.Width) > size {
			return nil, fmt.Errorf(
				"regfile: register %q (off=0x%x, width=%v) outside of block (size=%d)",
				reg.Name, reg.Off, reg.Width, size,
			)
		}
		if reg.Width == W32 && reg.Off%4 != 0 {
			return nil, fmt.Errorf("regfile: register %q is not 32-bit aligned (off=0x%x)", reg.Name, reg.Off)
		}
		if dup, ok := f.regs[reg.Off]; ok {
			return nil, fmt.Errorf("regfile: registers %q and %q share offset 0x%x", dup.Name, reg.Name, reg.Off)
		}
		f.regs[reg.Off] = reg
	}
	return f, nil
}

// Regs returns the declared registers, sorted by offset.
func (f *File) Regs() []Reg {
	regs := make([]Reg, 0, len(f.regs))
	for _, reg := range f.regs {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].Off < regs[j].Off
	})
	return regs
}

func (f *File) reg(off int64, w Width) Reg {
	reg, ok := f.regs[off]
	if !ok {
		panic(fmt.Errorf("regfile: undeclared register at offset 0x%x", off))
	}
	if reg.Width != w {
		panic(fmt.Errorf("regfile: register %q accessed as %v (declared %v)", reg.Name, w, reg.Width))
	}
	return reg
}

// Read reads the register at offset off.
func (f *File) Read(off int64, w Width) uint32 {
	reg := f.reg(off, w)
	if f.word != nil {
		switch w {
		case W8:
			return uint32(f.word.Load8(off))
		default:
			return f.word.Load32(off)
		}
	}

	buf := f.xbuf[:w]
	_, err := f.mem.ReadAt(buf, off)
	if err != nil {
		panic(fmt.Errorf("regfile: could not read register %q: %w", reg.Name, err))
	}
	if w == W8 {
		return uint32(buf[0])
	}
	return binary.LittleEndian.Uint32(buf)
}

// Write writes v to the register at offset off.
// 8-bit registers only receive the low byte of v.
func (f *File) Write(off int64, w Width, v uint32) {
	reg := f.reg(off, w)
	defer barrier()

	if f.word != nil {
		switch w {
		case W8:
			f.word.Store8(off, uint8(v))
		default:
			f.word.Store32(off, v)
		}
		return
	}

	buf := f.xbuf[:w]
	if w == W8 {
		buf[0] = uint8(v)
	} else {
		binary.LittleEndian.PutUint32(buf, v)
	}
	_, err := f.mem.WriteAt(buf, off)
	if err != nil {
		panic(fmt.Errorf("regfile: could not write register %q: %w", reg.Name, err))
	}
}

// WriteMasked8 writes v&mask to the 8-bit register at offset off.
func (f *File) WriteMasked8(off int64, v, mask uint8) {
	f.Write(off, W8, uint32(v&mask))
}
