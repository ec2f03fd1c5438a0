// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package main is the operator CLI for Cinematch.
//
// Usage:
//
//	cinematch [flags] <command> [args]
//
// Commands:
//
//	recommend  - Print recommendations for a title as JSON
//	titles     - List catalog titles
//	convert    - Convert a snapshot between JSON, CSV and msgpack
//	validate   - Check configuration and snapshots
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cinematch/cmd/cinematch/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
