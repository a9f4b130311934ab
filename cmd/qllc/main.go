// Command qllc compiles QLL translation units into assembler directives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"qllc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "qllc",
	Short:             "QLL compiler backend",
	Long:              "qllc checks and compiles QLL translation units produced by the parser (JSON or msgpack) into assembler directives.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitCode ends the process with a status and no message; the command has
// already reported why.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func main() {
	rootCmd.Version = version.Number

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	stopProfiling()
	var code exitCode
	switch {
	case err == nil:
	case errors.As(err, &code):
		os.Exit(int(code))
	default:
		fmt.Fprintf(os.Stderr, "qllc: %v\n", err)
		os.Exit(1)
	}
}

// addPersistentFlags registers the flags every command reads.
func addPersistentFlags(root *cobra.Command) {
	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show stage timings")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to collect (0 for no limit)")
	pf.String("trace", "", "write a trace to this file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("ui", "auto", "stage progress view (auto|on|off)")
	pf.String("diagnostics-format", "pretty", "diagnostics output (short|pretty|json)")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := setupColor(cmd, args); err != nil {
		return err
	}
	return startProfiling(cmd)
}

func setupColor(cmd *cobra.Command, _ []string) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch value {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
