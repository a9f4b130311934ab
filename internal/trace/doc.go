// Package trace records spans of the compiler pipeline.
//
// A Tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "typecheck", 0)
//	defer span.End("")
//
// Levels filter by scope: phase keeps driver and pass spans, detail adds
// per-unit spans, debug adds one span per compiled declaration. The stream
// tracer writes text or NDJSON as events arrive; the ring tracer keeps the
// last events in memory so they can be dumped after an internal error.
package trace
