// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// zybo-ctl runs one-shot commands against the peripherals of a Zybo board.
//
// Usage: zybo-ctl [OPTIONS] ACTION [ARGS...]
//
// Actions:
//
//	list                     list the devices of the board
//	cmd   DEVICE NAME [V]    run the command NAME, with the value V
//	read  DEVICE             read the stream of a device
//	write DEVICE PAYLOAD     write PAYLOAD to the stream of a device
//	dump  DEVICE             display the registers of a device
//	shutdown                 drive all the devices to their safe default
//
// Example:
//
//	$> zybo-ctl -admin cmd rgb set-period 8192
//	$> zybo-ctl cmd sw get-value
//	0x5
//	$> zybo-ctl read rgb
//	0x0 0x0 0x0
package main // import "github.com/go-lpc/zybo/cmd/zybo-ctl"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/zybo"
	"github.com/go-lpc/zybo/axi"
)

func main() {
	log.SetPrefix("zybo-ctl: ")
	log.SetFlags(0)

	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fset := flag.NewFlagSet("zybo-ctl", flag.ContinueOnError)
	var (
		board   = fset.String("board", "/etc/zybo/board.yaml", "path to the board description file")
		admin   = fset.Bool("admin", false, "run commands with the admin privilege")
		timeout = fset.Duration("timeout", 5*time.Second, "time to wait for a busy device")
		verbose = fset.Bool("v", false, "enable verbose mode")
		vers    = fset.Bool("version", false, "display version and exit")
	)
	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), `zybo-ctl runs one-shot commands against the peripherals of a Zybo board.

Usage: zybo-ctl [OPTIONS] ACTION [ARGS...]

Actions:
  list                     list the devices of the board
  cmd   DEVICE NAME [V]    run the command NAME, with the value V
  read  DEVICE             read the stream of a device
  write DEVICE PAYLOAD     write PAYLOAD to the stream of a device
  dump  DEVICE             display the registers of a device
  shutdown                 drive all the devices to their safe default

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return err
	}

	if *vers {
		v, sum := zybo.Version()
		fmt.Fprintf(stdout, "zybo-ctl %s %s\n", v, sum)
		return nil
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing action")
	}

	priv := axi.User
	if *admin {
		priv = axi.Admin
	}

	msg := log.New(io.Discard, "axi: ", 0)
	if *verbose {
		msg = log.New(os.Stderr, "axi: ", 0)
	}

	f, err := os.Open(*board)
	if err != nil {
		return fmt.Errorf("could not open board description: %w", err)
	}
	defer f.Close()

	cfg, err := axi.LoadBoardConfig(f)
	if err != nil {
		return fmt.Errorf("could not load board description: %w", err)
	}

	brd, err := axi.OpenBoard(cfg, axi.WithLogger(msg))
	if err != nil {
		return fmt.Errorf("could not open board: %w", err)
	}
	defer brd.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ctl := ctl{brd: brd, priv: priv, w: stdout}
	err = ctl.do(ctx, fset.Arg(0), fset.Args()[1:])
	if err != nil {
		return err
	}

	return brd.Close()
}

type ctl struct {
	brd  *axi.Board
	priv axi.Privilege
	w    io.Writer
}

func (ctl *ctl) do(ctx context.Context, action string, args []string) error {
	want := map[string]int{
		"list":     0,
		"shutdown": 0,
		"cmd":      2,
		"read":     1,
		"write":    2,
		"dump":     1,
	}
	n, ok := want[action]
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	if len(args) < n || (action != "cmd" && len(args) > n) || len(args) > 3 {
		return fmt.Errorf("invalid number of arguments for %q: %d", action, len(args))
	}

	switch action {
	case "list":
		return ctl.list()
	case "shutdown":
		return ctl.brd.Shutdown()
	}

	dev, err := ctl.brd.Device(args[0])
	if err != nil {
		return err
	}

	switch action {
	case "cmd":
		return ctl.cmd(ctx, dev, args[1:])
	case "read":
		return ctl.read(ctx, dev)
	case "write":
		return ctl.write(ctx, dev, args[1])
	case "dump":
		return ctl.dump(ctx, dev)
	}
	panic("unreachable")
}

func (ctl *ctl) list() error {
	for _, dev := range ctl.brd.Devices() {
		_, err := fmt.Fprintf(ctl.w, "%-8s %-6v %s\n",
			dev.Name(), dev.Kind(), strings.Join(axi.Cmds(dev.Kind()), ","),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ctl *ctl) cmd(ctx context.Context, dev *axi.Device, args []string) error {
	cmd, err := axi.ParseCmd(dev.Kind(), args[0])
	if err != nil {
		return err
	}

	var v uint64
	if len(args) > 1 {
		v, err = strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("could not parse command value %q: %w", args[1], err)
		}
	}

	return dev.Do(ctx, flagOf(dev.Kind(), os.O_RDONLY), func(s *axi.Session) error {
		out, err := s.Command(ctl.priv, cmd, uint32(v))
		if err != nil {
			return fmt.Errorf("could not run %v: %w", cmd, err)
		}
		if !strings.HasPrefix(strings.ToLower(args[0]), "get-") {
			return nil
		}
		_, err = fmt.Fprintf(ctl.w, "0x%x\n", out)
		return err
	})
}

func (ctl *ctl) read(ctx context.Context, dev *axi.Device) error {
	return dev.Do(ctx, os.O_RDONLY, func(s *axi.Session) error {
		_, err := io.Copy(ctl.w, s)
		if err != nil {
			return fmt.Errorf("could not read %q: %w", dev.Name(), err)
		}
		return nil
	})
}

func (ctl *ctl) write(ctx context.Context, dev *axi.Device, payload string) error {
	return dev.Do(ctx, os.O_WRONLY, func(s *axi.Session) error {
		_, err := io.WriteString(s, payload)
		if err != nil {
			return fmt.Errorf("could not write %q: %w", dev.Name(), err)
		}
		return nil
	})
}

func (ctl *ctl) dump(ctx context.Context, dev *axi.Device) error {
	return dev.Do(ctx, flagOf(dev.Kind(), os.O_RDONLY), func(s *axi.Session) error {
		return s.DumpRegisters(ctl.w)
	})
}

// flagOf returns the access mode to open a device of kind k with.
// LED banks are write-only.
func flagOf(k axi.Kind, flag int) int {
	if k == axi.KindLED {
		return os.O_WRONLY
	}
	return flag
}
