package project

import (
	"crypto/sha256"
	"fmt"
	"os"
)

// Digest - фиксированный 256-битный хеш.
type Digest [32]byte

// HashFiles digests the paths and contents of files in order. Watch mode
// compares digests to skip rebuilds when an event did not change content.
func HashFiles(paths []string) (Digest, error) {
	h := sha256.New()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return Digest{}, fmt.Errorf("hash %s: %w", p, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", p, len(data))
		_, _ = h.Write(data)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}
