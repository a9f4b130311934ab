package main

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [units...]",
	Short: "Check translation units without generating code",
	Long:  "Run binding, kind checking, type checking and the deferred checks, then print diagnostics.",
	RunE:  checkExecution,
}

func checkExecution(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd, args, false)
	if err != nil {
		return err
	}
	defer cleanup()
	code, err := s.compile(cmd.Context())
	if err != nil {
		return err
	}
	if code != 0 {
		return exitCode(code)
	}
	return nil
}
