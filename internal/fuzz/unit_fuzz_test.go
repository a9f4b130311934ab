package fuzztests

import (
	"bytes"
	"context"
	"testing"
	"time"

	"qllc/internal/astio"
	"qllc/internal/pipeline"
)

// compileTimeout bounds one input; a longer run means a loop in a pass.
const compileTimeout = 5 * time.Second

func FuzzDecodeUnit(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		_, _ = astio.Decode(bytes.NewReader(input), astio.FormatJSON)
	})
}

func FuzzPipelineNoInternalError(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		decls, err := astio.Decode(bytes.NewReader(input), astio.FormatJSON)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), compileTimeout)
		defer cancel()
		units := []astio.Unit{{Path: "fuzz.json", Decls: decls}}
		_, err = pipeline.Compile(ctx, units, pipeline.Options{Library: true, MaxDiagnostics: 64})
		if pipeline.IsInternal(err) {
			t.Fatalf("internal error: %v", err)
		}
	})
}
