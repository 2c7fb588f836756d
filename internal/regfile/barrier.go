// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !arm

package regfile

import "sync/atomic"

var fence uint32

// barrier orders a register store before any later dependent access.
func barrier() {
	atomic.AddUint32(&fence, 0)
}
