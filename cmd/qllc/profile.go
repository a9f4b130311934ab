package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qllc/internal/prof"
)

var profSession *prof.Session

func startProfiling(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	var (
		cfg prof.Config
		err error
	)
	if cfg.CPU, err = pf.GetString("cpuprofile"); err != nil {
		return err
	}
	if cfg.Mem, err = pf.GetString("memprofile"); err != nil {
		return err
	}
	if cfg.Trace, err = pf.GetString("runtime-trace"); err != nil {
		return err
	}
	if !cfg.Enabled() {
		return nil
	}
	profSession, err = prof.Start(cfg)
	return err
}

// stopProfiling runs after the command, whatever its result.
func stopProfiling() {
	if profSession == nil {
		return
	}
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "qllc: profiling: %v\n", err)
	}
	profSession = nil
}
