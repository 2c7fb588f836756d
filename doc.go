// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zybo holds code to drive the programmable-logic peripherals of a
// Zybo board from user space.
//
// The peripherals themselves are handled by package axi.
// Commands zybo-srv and zybo-ctl expose them as a TDAQ process and from the
// command line.
package zybo // import "github.com/go-lpc/zybo"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of zybo and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/zybo"
	if b.Main.Path == root {
		if b.Main.Version == "(devel)" {
			if rev := setting(b, "vcs.revision"); rev != "" {
				return "(devel) " + rev, ""
			}
		}
		return b.Main.Version, b.Main.Sum
	}

	for _, m := range b.Deps {
		if m.Path == root {
			return moduleVersion(m)
		}
	}
	return "", ""
}

// moduleVersion describes a dependency, following its replacement if any.
func moduleVersion(m *debug.Module) (version, sum string) {
	r := m.Replace
	switch {
	case r == nil:
		return m.Version, m.Sum
	case r.Version != "" && r.Path != "":
		return fmt.Sprintf("%s %s", r.Path, r.Version), r.Sum
	case r.Version != "":
		return r.Version, r.Sum
	case r.Path != "":
		return r.Path, r.Sum
	default:
		return m.Version + "*", ""
	}
}

func setting(b *debug.BuildInfo, key string) string {
	for _, s := range b.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
