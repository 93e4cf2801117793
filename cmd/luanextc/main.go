// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Command luanextc is a thin driver that wires the compiler's internal
// packages into an end-to-end run: resolve → check → optimize → LTO →
// codegen → cache. It does not implement the project's real command-line
// surface (glob expansion rules, YAML project-config parsing) — that is an
// external collaborator per spec.md §1 — so the flags below cover enough
// to drive the pipeline for tests and manual use, not the full CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

var initLogOnce sync.Once

func initLogging(debug bool) {
	initLogOnce.Do(func() {
		minLevel := log.Info
		if debug {
			minLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLevel,
			Output: log.New(os.Stderr, "luanextc: ", log.StdFlags, nil),
		})
	})
}

func main() {
	rootCommand := &cobra.Command{
		Use:           "luanextc",
		Short:         "LuaNext compiler driver",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	debug := rootCommand.PersistentFlags().Bool("debug", false, "show debug-level log output")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*debug)
		return nil
	}

	rootCommand.AddCommand(newBuildCommand())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*debug)
		log.Errorf(context.Background(), "%v", err)
		exitErr, ok := err.(*exitCodeError)
		if ok {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// exitCodeError carries the spec.md §6 exit code (2 I/O error, 3
// configuration error) a failure should produce; an error with no
// exitCodeError wrapper defaults to exit code 1 (compilation error).
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func ioError(err error) error { return &exitCodeError{code: 2, err: err} }
func configError(err error) error {
	return &exitCodeError{code: 3, err: fmt.Errorf("configuration error: %w", err)}
}
