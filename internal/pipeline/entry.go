package pipeline

import (
	"fmt"
	"strings"

	"qllc/internal/ast"
	"qllc/internal/diag"
	"qllc/internal/sema"
)

// lookup resolves a user-supplied name from the global namespace; a
// leading "global::" is accepted.
func (s *state) lookup(name string) (*sema.TypedStorage, error) {
	return s.program.Lookup(strings.TrimPrefix(name, ast.RootName+"::"))
}

func (s *state) report(code diag.Code, format string, args ...any) {
	diag.ReportError(diag.BagReporter{Bag: s.bag}, code, nil, fmt.Sprintf(format, args...)).Emit()
}

// resolveEntry finds the entry function: a plain function with no
// parameters returning void or a word.
func (s *state) resolveEntry() *ast.FunctionDeclaration {
	name := s.opts.entry()
	st, err := s.lookup(name)
	if err != nil {
		s.report(diag.DrvBadEntry, "entry point %s: %v", name, err)
		return nil
	}
	if st == nil {
		s.report(diag.DrvNoEntry, "entry point %s is not declared", name)
		return nil
	}
	if st.Class != sema.StorageFunction {
		s.report(diag.DrvBadEntry, "entry point %s is a %s, not a function", st.Qualified, st.Class)
		return nil
	}
	fn, ok := s.program.Function(st.Qualified)
	if !ok {
		s.report(diag.DrvBadEntry, "entry point %s is a template function", st.Qualified)
		return nil
	}
	switch {
	case fn.Interrupt:
		s.report(diag.DrvBadEntry, "entry point %s is an interrupt handler", st.Qualified)
	case len(fn.Signature().Args) > 0:
		s.report(diag.DrvBadEntry, "entry point %s must not take parameters", st.Qualified)
	case fn.Result().Hidden():
		s.report(diag.DrvBadEntry, "entry point %s must return void or a single word, not %s", st.Qualified, fn.Signature().Return)
	default:
		return fn
	}
	return nil
}

// resolveExports maps the configured export names to qualified names.
func (s *state) resolveExports() []string {
	out := make([]string, 0, len(s.opts.Exports))
	for _, name := range s.opts.Exports {
		st, err := s.lookup(name)
		switch {
		case err != nil:
			s.report(diag.DrvNoEntry, "export %s: %v", name, err)
		case st == nil || !st.IsStatic():
			s.report(diag.DrvNoEntry, "export %s is not a global or function", name)
		default:
			out = append(out, st.Qualified)
		}
	}
	return out
}
