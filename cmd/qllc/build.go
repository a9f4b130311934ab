package main

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [units...]",
	Short: "Compile translation units into assembler directives",
	Long: `Compile translation units into assembler directives.

Units are JSON (.json) or msgpack (any other extension) files produced by the
parser. Without arguments the inputs come from [build].inputs of the nearest
qll.toml.`,
	RunE: buildExecution,
}

func init() {
	addBuildFlags(buildCmd)
}

func buildExecution(cmd *cobra.Command, args []string) error {
	s, cleanup, err := newSession(cmd, args, true)
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
