// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"

	"github.com/staranto/ec2schedgo/internal/command"
	"github.com/staranto/ec2schedgo/internal/config"
	"github.com/staranto/ec2schedgo/internal/envfile"
	mylog "github.com/staranto/ec2schedgo/internal/log"
	"github.com/staranto/ec2schedgo/internal/version"
)

const (
	exitOK          = 0
	exitInit        = 1
	exitFailed      = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return exitOK
		}
	}

	// The env file seeds credentials and resource IDs, so it must be in the
	// environment before any flag or setting is read.
	if err := envfile.Load(envfile.Path(envFileArg(args))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInit
	}

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		if _, err := config.Load(args[1]); err != nil {
			log.WithError(err).Debug("no config file")
		}
		args = mangleArguments(args)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInit
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		return exitFailed
	}

	return exitOK
}

// envFileArg returns the value of --env-file/-e in args, if present.
func envFileArg(args []string) string {
	for i, a := range args {
		for _, name := range []string{"--env-file", "-e"} {
			if a == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(a, name+"="); ok {
				return v
			}
		}
	}
	return ""
}

var timeFlags = map[string]bool{
	"-L": true, "--launch-at": true,
	"-T": true, "--terminate-at": true,
}

// mangleArguments expands an @set (or @defaults when none is given) into the
// flags listed under <command>.<set> in the config file. The expansion goes
// where the @set was, so later flags on the command line win.
func mangleArguments(args []string) []string {
	if strings.HasPrefix(args[1], "-") {
		return args
	}

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:2]...), "--help")
		}
	}

	out := append([]string{}, args[:2]...)
	idx := 2
	set := "defaults"

	// See if there is a @set specified. If so, that becomes the insertion
	// point and the @set entry is removed from args.
	rest := append([]string{}, args[2:]...)
	for i, a := range rest {
		// Cron descriptors such as @daily are time values, not sets.
		if i > 0 && timeFlags[rest[i-1]] {
			continue
		}
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx += i
			rest = append(rest[:i], rest[i+1:]...)
			break
		}
	}
	out = append(out, rest...)

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		out = append(out[:idx], append(parts, out[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, out)
	return out
}
