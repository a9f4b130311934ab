package astio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"qllc/internal/ast"
)

// Unit is one decoded translation unit.
type Unit struct {
	Path  string
	Decls []ast.Declaration
}

// Load decodes the unit stored at path; the format follows the extension.
func Load(path string) (Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unit{}, err
	}
	defer f.Close()
	decls, err := Decode(bufio.NewReader(f), FormatOf(path))
	if err != nil {
		return Unit{}, fmt.Errorf("%s: %w", path, err)
	}
	return Unit{Path: path, Decls: decls}, nil
}

// LoadAll decodes paths concurrently with at most jobs workers and returns
// the units in the order given. The first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string, jobs int) ([]Unit, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	units := make([]Unit, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			u, err := Load(path)
			if err != nil {
				return err
			}
			// индекс у каждой горутины свой
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// Declarations concatenates the units in order.
func Declarations(units []Unit) []ast.Declaration {
	n := 0
	for _, u := range units {
		n += len(u.Decls)
	}
	out := make([]ast.Declaration, 0, n)
	for _, u := range units {
		out = append(out, u.Decls...)
	}
	return out
}
