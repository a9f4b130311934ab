package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qllc/internal/trace"
)

// setupTracing reads the trace flags and attaches a tracer to the command
// context. The returned ring, when not nil, holds recent events for dumps
// after an internal error.
func setupTracing(cmd *cobra.Command) (*trace.RingTracer, func(), error) {
	root := cmd.Root()
	output, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	// --trace без уровня означает phase
	if output != "" && level == trace.LevelOff {
		level = trace.LevelPhase
	}

	tracer, ring, err := trace.New(trace.Config{Level: level, OutputPath: output})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return ring, cleanup, nil
}
