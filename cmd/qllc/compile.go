package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qllc/internal/asm"
	"qllc/internal/astio"
	"qllc/internal/diag"
	"qllc/internal/diagfmt"
	"qllc/internal/pipeline"
	"qllc/internal/trace"
	"qllc/internal/ui"
)

// session is one invocation of check, build or watch.
type session struct {
	cmd  *cobra.Command
	set  *settings
	ring *trace.RingTracer
	// full runs every stage and writes the output; otherwise Check.
	full bool
}

func newSession(cmd *cobra.Command, args []string, full bool) (*session, func(), error) {
	set, err := loadSettings(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	ring, cleanup, err := setupTracing(cmd)
	if err != nil {
		return nil, nil, err
	}
	return &session{cmd: cmd, set: set, ring: ring, full: full}, cleanup, nil
}

// compile runs the pipeline once and reports. The exit status is 1 when
// diagnostics contain errors and 2 after an internal error.
func (s *session) compile(ctx context.Context) (int, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, s.cmd.Name(), 0)
	ctx = trace.WithSpan(ctx, span)
	defer span.End("")

	stdout, stderr := s.cmd.OutOrStdout(), s.cmd.ErrOrStderr()
	units, err := astio.LoadAll(ctx, s.set.inputs, 0)
	if err != nil {
		bag := diag.NewBag(1)
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.DrvInput, nil, err.Error()).Emit()
		return 1, s.printDiagnostics(stdout, bag)
	}

	res, err := s.runPipeline(ctx, units)
	if err != nil {
		if !pipeline.IsInternal(err) {
			return 0, err
		}
		s.reportInternal(stderr, err)
		return 2, nil
	}

	if err := s.printDiagnostics(stdout, res.Bag); err != nil {
		return 0, err
	}
	if s.set.timings {
		fmt.Fprint(stderr, res.Timing.Summary())
	}
	if res.Bag.HasErrors() {
		return 1, nil
	}
	if s.set.emitLive {
		for _, name := range res.Live {
			fmt.Fprintln(stderr, "live:", name)
		}
	}
	if s.full {
		if err := s.writeOutput(stdout, res.Directives); err != nil {
			return 0, err
		}
	}
	if !s.set.quiet {
		fmt.Fprintln(stderr, color.GreenString("ok")+" "+s.summary(res))
	}
	return 0, nil
}

func (s *session) summary(res *pipeline.Result) string {
	out := fmt.Sprintf("%d units", len(s.set.inputs))
	if sum := diagfmt.Summary(res.Bag); sum != "" {
		out += ", " + sum
	}
	if s.full && s.set.output != "" {
		out += " -> " + s.set.output
	}
	return out
}

// runPipeline runs Compile or Check, behind the progress view when it is
// enabled.
func (s *session) runPipeline(ctx context.Context, units []astio.Unit) (*pipeline.Result, error) {
	run, stages := pipeline.Check, pipeline.CheckStages
	if s.full {
		run, stages = pipeline.Compile, pipeline.Stages
	}
	opts := s.set.opts
	if s.set.quiet || !shouldUseTUI(s.set.ui) {
		return run(ctx, units, opts)
	}

	events := make(chan pipeline.Event, len(stages)*2)
	opts.OnEvent = pipeline.ChannelSink{Ch: events}.OnEvent
	var (
		res *pipeline.Result
		err error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(events)
		res, err = run(ctx, units, opts)
	}()
	if uiErr := ui.Run(s.cmd.ErrOrStderr(), s.cmd.Name(), stages, events); uiErr != nil {
		// без интерфейса просто дочитываем события
		for range events {
		}
	}
	<-finished
	return res, err
}

func (s *session) printDiagnostics(w io.Writer, bag *diag.Bag) error {
	if bag.Len() == 0 {
		return nil
	}
	switch s.set.diagFormat {
	case diagfmt.FormatShort:
		return diagfmt.Short(w, bag, true)
	case diagfmt.FormatJSON:
		return diagfmt.JSON(w, bag, diagfmt.JSONOpts{IncludeNotes: true})
	}
	return diagfmt.Pretty(w, bag, diagfmt.PrettyOpts{Color: !color.NoColor, ShowNotes: true})
}

func (s *session) reportInternal(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("internal error:"), err)
	var ie *pipeline.InternalError
	if errors.As(err, &ie) {
		_, _ = w.Write(ie.Stack)
	}
	if s.ring != nil {
		fmt.Fprintln(w, "recent trace events:")
		if derr := s.ring.Dump(w, trace.FormatText); derr != nil {
			fmt.Fprintf(w, "trace dump failed: %v\n", derr)
		}
	}
}

// writeOutput writes directives to the output file, or to stdout.
func (s *session) writeOutput(stdout io.Writer, ds []asm.Directive) (err error) {
	w := stdout
	if s.set.output != "" {
		if dir := filepath.Dir(s.set.output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		f, err := os.Create(s.set.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	bw := bufio.NewWriter(w)
	if s.set.format == "msgpack" {
		err = asm.Encode(bw, ds)
	} else {
		_, err = io.WriteString(bw, asm.Render(ds))
	}
	if err != nil {
		return fmt.Errorf("write directives: %w", err)
	}
	return bw.Flush()
}
