package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"qllc/internal/asm"
	"qllc/internal/ast"
	"qllc/internal/astio"
	"qllc/internal/codegen"
	"qllc/internal/diag"
	"qllc/internal/liveness"
	"qllc/internal/observ"
	"qllc/internal/sema"
	"qllc/internal/trace"
)

// Compile runs every stage over units, concatenated in order into the
// global namespace. Diagnostics go to the result's bag; the error is
// reserved for cancellation and internal errors.
func Compile(ctx context.Context, units []astio.Unit, opts Options) (*Result, error) {
	return run(ctx, units, opts, Stages)
}

// Check stops after the deferred checks.
func Check(ctx context.Context, units []astio.Unit, opts Options) (*Result, error) {
	return run(ctx, units, opts, CheckStages)
}

// state is one run of the pipeline.
type state struct {
	ctx    context.Context
	opts   Options
	tracer trace.Tracer
	parent uint64
	timer  *observ.Timer
	bag    *diag.Bag
	sema   *sema.Context

	// decl is the declaration being compiled, for internal errors.
	decl string

	units   []astio.Unit
	program *ast.Program
	live    liveness.Set
	entry   *ast.FunctionDeclaration
	unit    *codegen.Unit
	out     []asm.Directive
}

func run(ctx context.Context, units []astio.Unit, opts Options, stages []Stage) (*Result, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	s := &state{
		ctx:    ctx,
		opts:   opts,
		tracer: trace.FromContext(ctx),
		parent: trace.CurrentSpan(ctx),
		timer:  observ.NewTimer(),
		bag:    bag,
		// одна и та же рекурсия видна из нескольких корней
		sema: sema.New(diag.NewDedupReporter(diag.BagReporter{Bag: bag})),
		units:  units,
	}
	res := &Result{Bag: bag}
	for i, stage := range stages {
		if s.failed() && stage != StageKindcheck && stage != StageTypecheck && stage != StageDeferred {
			for _, rest := range stages[i:] {
				s.emit(Event{Stage: rest, Status: StatusSkipped})
			}
			break
		}
		if err := s.stage(stage); err != nil {
			res.Timing = s.timer.Report()
			return res, err
		}
	}
	bag.Sort()
	res.Timing = s.timer.Report()
	if s.live != nil {
		res.Live = s.live.Sorted()
	}
	if !s.failed() {
		res.Directives = s.out
	}
	return res, nil
}

// failed reports errors from any stage. Driver diagnostics bypass the sema
// counters, so the bag is consulted as well.
func (s *state) failed() bool { return s.sema.Failed() || s.bag.HasErrors() }

func (s *state) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

// stage runs one stage under a trace span and the timer. A panic inside it
// becomes an InternalError.
func (s *state) stage(stage Stage) (err error) {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	s.decl = ""
	span := trace.Begin(s.tracer, trace.ScopePass, string(stage), s.parent)
	idx := s.timer.Begin(string(stage))
	started := time.Now()
	errorsBefore := s.failed()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ie := &InternalError{Stage: stage, Decl: s.decl, Value: r, Stack: debug.Stack()}
		s.timer.End(idx, "internal error")
		span.End(ie.Error())
		s.emit(Event{Stage: stage, Status: StatusError, Detail: ie.Error(), Elapsed: time.Since(started)})
		err = ie
	}()

	s.emit(Event{Stage: stage, Status: StatusWorking})
	detail := s.steps(stage, span)

	status := StatusDone
	if s.failed() && !errorsBefore {
		status = StatusError
	}
	s.timer.End(idx, detail)
	span.End(detail)
	s.emit(Event{Stage: stage, Status: status, Detail: detail, Elapsed: time.Since(started)})
	return nil
}

func (s *state) steps(stage Stage, span *trace.Span) string {
	switch stage {
	case StageBind:
		return s.bind(span)
	case StageKindcheck:
		s.program.Kindcheck()
		return s.counts()
	case StageTypecheck:
		s.program.Typecheck()
		return s.counts()
	case StageDeferred:
		pending := s.sema.Pending()
		if !s.program.Deferred() {
			return fmt.Sprintf("%d checks skipped", pending)
		}
		return s.counts()
	case StageLiveness:
		return s.liveness()
	case StageCodegen:
		return s.codegen(span)
	case StageLink:
		return s.link()
	}
	panic(fmt.Errorf("unknown stage %q", stage))
}

func (s *state) counts() string {
	return fmt.Sprintf("%d errors, %d warnings", s.bag.Count(diag.SevError), s.bag.Count(diag.SevWarning))
}

func (s *state) bind(span *trace.Span) string {
	n := 0
	for _, u := range s.units {
		unitSpan := trace.Begin(s.tracer, trace.ScopeUnit, u.Path, span.ID())
		unitSpan.End(fmt.Sprintf("%d declarations", len(u.Decls)))
		n += len(u.Decls)
	}
	s.program = ast.NewProgram(s.sema, astio.Declarations(s.units))
	s.program.Bind()
	return fmt.Sprintf("%d declarations in %d units", n, len(s.units))
}

func (s *state) liveness() string {
	g := liveness.NewGraph()
	for _, n := range s.program.Routines() {
		g.Add(n)
	}
	var extra []string
	if !s.opts.Library {
		if fn := s.resolveEntry(); fn != nil {
			s.entry = fn
			extra = append(extra, fn.Qualified())
		}
	}
	extra = append(extra, s.resolveExports()...)
	s.live = g.Solve(extra...)
	return fmt.Sprintf("%d of %d live", len(s.live), g.Len())
}

func (s *state) codegen(span *trace.Span) string {
	s.unit = codegen.NewUnit(s.opts.Library)
	n := 0
	s.program.Compile(s.unit, s.live, func(name string, compile func()) {
		s.decl = name
		decl := trace.Begin(s.tracer, trace.ScopeDecl, name, span.ID())
		compile()
		decl.End("")
		s.decl = ""
		n++
	})
	return fmt.Sprintf("%d declarations", n)
}

func (s *state) link() string {
	if s.opts.Library {
		s.out = s.unit.Link("", codegen.Void)
	} else {
		s.out = s.unit.Link(s.entry.Qualified(), s.entry.Result())
	}
	return fmt.Sprintf("%d directives", len(s.out))
}
