// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package axi

import (
	"errors"

	"github.com/go-lpc/zybo/internal/session"
)

var (
	ErrPermission        = errors.New("axi: permission denied")
	ErrInterrupted       = session.ErrInterrupted
	ErrInvalidCommand    = errors.New("axi: invalid command")
	ErrInvalidFormat     = errors.New("axi: invalid format")
	ErrInvalidArgument   = errors.New("axi: invalid argument")
	ErrIOFault           = errors.New("axi: bad address")
	ErrResourceExhausted = errors.New("axi: resource exhausted")
	ErrDeviceUnavailable = errors.New("axi: device unavailable")
	ErrClosed            = errors.New("axi: closed")
)
