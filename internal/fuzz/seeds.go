package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 256 << 10
)

var inlineSeeds = []string{
	`[]`,
	`[{"kind": "global", "name": "g", "type": {"kind": "name", "name": "byte"}}]`,
	`[{"kind": "function", "name": "f", "body": [{"kind": "return"}]}]`,
	`[{"kind": "namespace", "name": "n", "body": [{"kind": "global", "name": "g", "type": {"kind": "name", "name": "byte"}}]}]`,
	`[{"kind": "type", "name": "L", "typeParams": ["T"], "type": {"kind": "pointer",
	   "type": {"kind": "instance", "name": "L", "types": [{"kind": "name", "name": "T"}]}}}]`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata", "units")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// все *.json из testdata
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
