// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/motion_parallax/internal/imu"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
	"github.com/relabs-tech/motion_parallax/internal/policy"
)

// MockOptions configures RunMockConsole.
type MockOptions struct {
	Variant string
	// Rotate is how often the mock orientation advances to the next
	// upright orientation. Zero keeps it in portrait.
	Rotate time.Duration
	Out    io.Writer
}

// RunMockConsole runs a local pipeline on the mock motion source, with no
// broker or hardware, and prints each offset until ctx is done.
func RunMockConsole(ctx context.Context, opts MockOptions) error {
	logger := zap.L().Named("mock")
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Variant == "" {
		opts.Variant = "accelerometer"
	}

	cfg, err := parallax.ConfigForVariant(opts.Variant)
	if err != nil {
		return err
	}

	src := imu.NewMockSource()
	sig := orientation.NewMockSignal(orientation.Portrait)
	p, err := parallax.New(cfg, src, sig, policy.Gate{}, parallax.WithLogger(logger.Named("pipeline")))
	if err != nil {
		return err
	}
	defer p.Close()

	p.OnOffsetChanged(func(off parallax.Offset) {
		fmt.Fprintf(opts.Out, "%-20s %s\n", p.Orientation(), off)
	})
	if !p.Start() {
		return fmt.Errorf("mock pipeline did not start")
	}

	var rotate <-chan time.Time
	if opts.Rotate > 0 {
		ticker := time.NewTicker(opts.Rotate)
		defer ticker.Stop()
		rotate = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rotate:
			next := orientation.Cycle(sig.Current())
			logger.Info("rotating", zap.Stringer("orientation", next))
			sig.Set(next)
		}
	}
}
