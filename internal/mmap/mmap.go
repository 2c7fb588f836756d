// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap gives access to a memory-mapped window of a file,
// typically a peripheral register block exposed through /dev/mem.
package mmap // import "github.com/go-lpc/zybo/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Handle is a memory-mapped window.
type Handle struct {
	data []byte // window requested by the user
	mmap []byte // page-aligned mapping, nil for handles built from a slice
}

// Map maps size bytes of f, starting at offset base, for reading and
// writing. base does not need to be page-aligned.
func Map(f *os.File, base int64, size int) (*Handle, error) {
	if base < 0 || size <= 0 {
		return nil, fmt.Errorf("mmap: invalid window (base=0x%x, size=%d)", base, size)
	}

	var (
		page = int64(unix.Getpagesize())
		off  = base % page
	)
	data, err := unix.Mmap(
		int(f.Fd()),
		base-off, int(off)+size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not map 0x%x: %w", base, err)
	}
	if len(data) != int(off)+size {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("mmap: invalid mmap'd data: %d", len(data))
	}

	h := &Handle{
		data: data[off : int(off)+size : int(off)+size],
		mmap: data,
	}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h, nil
}

// HandleFrom returns a handle backed by a plain memory buffer.
func HandleFrom(data []byte) *Handle {
	return &Handle{data: data}
}

// Close closes the mmap handle.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	mmap := h.mmap
	h.data = nil
	h.mmap = nil
	runtime.SetFinalizer(h, nil)

	if mmap == nil {
		return nil
	}
	return unix.Munmap(mmap)
}

// Len returns the length of the memory-mapped window.
func (h *Handle) Len() int {
	return len(h.data)
}

// At returns the byte at index i.
func (h *Handle) At(i int) byte {
	return h.data[i]
}

// Load8 reads the byte at offset off with a single access.
func (h *Handle) Load8(off int64) uint8 {
	return *(*uint8)(unsafe.Pointer(&h.data[off]))
}

// Store8 writes the byte v at offset off with a single access.
func (h *Handle) Store8(off int64, v uint8) {
	*(*uint8)(unsafe.Pointer(&h.data[off])) = v
}

// Load32 reads the 32-bit word at offset off with a single access.
// off must be 4-byte aligned.
func (h *Handle) Load32(off int64) uint32 {
	_ = h.data[off+3]
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&h.data[off])))
}

// Store32 writes the 32-bit word v at offset off with a single access.
// off must be 4-byte aligned.
func (h *Handle) Store32(off int64, v uint32) {
	_ = h.data[off+3]
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&h.data[off])), v)
}

// ReadAt implements the io.ReaderAt interface.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h == nil {
		return 0, os.ErrInvalid
	}

	if h.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(h.data)) < off {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements the io.WriterAt interface.
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	if h == nil {
		return 0, os.ErrInvalid
	}

	if h.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(h.data)) < off {
		return 0, fmt.Errorf("mmap: invalid WriteAt offset %d", off)
	}
	n := copy(h.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Handle)(nil)
	_ io.WriterAt = (*Handle)(nil)
	_ io.Closer   = (*Handle)(nil)
)
