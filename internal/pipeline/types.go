// Package pipeline runs the whole-program compiler: binding, kind and type
// checking, deferred checks, liveness, code generation and linking.
package pipeline

import (
	"time"

	"qllc/internal/asm"
	"qllc/internal/diag"
	"qllc/internal/observ"
)

// Stage is one step of the pipeline.
type Stage string

const (
	StageBind      Stage = "bind"
	StageKindcheck Stage = "kindcheck"
	StageTypecheck Stage = "typecheck"
	StageDeferred  Stage = "deferred"
	StageLiveness  Stage = "liveness"
	StageCodegen   Stage = "codegen"
	StageLink      Stage = "link"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageBind, StageKindcheck, StageTypecheck, StageDeferred, StageLiveness, StageCodegen, StageLink}

// CheckStages is the prefix Check runs.
var CheckStages = Stages[:4]

// Status is the progress state of a stage.
type Status string

const (
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError means the stage ran and diagnostics now contain errors.
	StatusError Status = "error"
	// StatusSkipped is reported for stages not run after earlier errors.
	StatusSkipped Status = "skipped"
)

// Event reports the progress of one stage.
type Event struct {
	Stage   Stage
	Status  Status
	Detail  string
	Elapsed time.Duration
}

// ChannelSink forwards events into a channel; use its OnEvent as
// Options.OnEvent.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Options holds everything the pipeline needs besides the declarations.
type Options struct {
	// Library links a callable initializer instead of a start routine and
	// does not require an entry point.
	Library bool
	// Entry names the entry function; "main" when empty.
	Entry string
	// Exports are extra liveness roots, resolved from the global namespace.
	Exports []string
	// MaxDiagnostics caps the bag; zero or less means no cap.
	MaxDiagnostics int
	OnEvent        func(Event)
}

func (o Options) entry() string {
	if o.Entry == "" {
		return "main"
	}
	return o.Entry
}

// Result is what a run produced. Directives is nil unless every stage ran
// without errors.
type Result struct {
	Bag        *diag.Bag
	Directives []asm.Directive
	// Live is the sorted set of live qualified names.
	Live   []string
	Timing observ.Report
}
