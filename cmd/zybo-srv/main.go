// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command zybo-srv starts a TDAQ server exposing the peripherals of a Zybo
// board.
//
// The board is described by a YAML file:
//
//	devmem: /dev/mem
//	devices:
//	  - {name: leds, kind: led,    base: 0x41200000, size: 0x10000}
//	  - {name: rgb,  kind: rgb,    base: 0x43c00000, size: 0x10000, period: 4096}
//	  - {name: sw,   kind: switch, base: 0x41210000, size: 0x10000, mask: 0x0f}
//
// Besides the run-control commands, zybo-srv handles:
//   - /cmd: run a device command (device name, command name, u32 value),
//   - /write: write a payload to a device stream (device name, payload),
//   - /read: read a device stream (device name).
//
// The switch banks are polled and published on the /switches output.
package main // import "github.com/go-lpc/zybo/cmd/zybo-srv"

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/zybo/axi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		board = flag.String("board", "/etc/zybo/board.yaml", "path to the board description file")
		admin = flag.Bool("admin", false, "run device commands with the admin privilege")
		maddr = flag.String("metrics", "", "[ip]:port to serve Prometheus metrics on")
	)

	cmd := flags.New()

	priv := axi.User
	if *admin {
		priv = axi.Admin
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if *maddr != "" {
		go serveMetrics(*maddr, reg)
	}

	dev := axi.NewServer(*board, priv, reg,
		axi.WithLogger(log.New(os.Stdout, "zybo-srv: ", 0)),
	)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.CmdHandle("/cmd", dev.OnCommand)
	srv.CmdHandle("/write", dev.OnWrite)
	srv.CmdHandle("/read", dev.OnRead)

	srv.OutputHandle("/switches", dev.Switches)

	srv.RunHandle(dev.Run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Printf("could not serve metrics on %q: %+v", addr, err)
	}
}
