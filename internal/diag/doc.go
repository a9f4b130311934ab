// Package diag defines the diagnostic model shared by every compiler stage.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – error, warning or info (severity.go).
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Message – human oriented text; type mismatches render both types.
//   - Location – the source.Location reported by the parser, or nil.
//   - Notes – secondary locations, e.g. one per template instantiation frame.
//
// # Emitting diagnostics
//
// Stages use a diag.Reporter to decouple emission from storage. A stage either
// calls Reporter.Report directly or builds a ReportBuilder with ReportError /
// ReportWarning, chains WithNote and calls Emit.
//
// BagReporter aggregates diagnostics into a Bag, which supports sorting,
// deduplication and counting. The kind-checker can reach the same recursive
// definition through several roots, so the pipeline dedups the bag after that
// stage.
//
// Package diag does no IO; rendering lives in internal/diagfmt.
package diag
