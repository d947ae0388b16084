package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/stats"
)

// supportedSource reports whether a file name looks like a convertible
// input.
func supportedSource(name string) bool {
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".txt")
}

// ListSources returns the convertible files directly under dir, sorted
// by name.
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read source directory")
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !supportedSource(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ConvertDirectory converts every supported file directly under dir.
// Files are converted concurrently, bounded by the configured worker
// count, and results come back in the sorted enumeration order
// regardless of completion order. One failing file never stops the
// others.
func (p *Pipeline) ConvertDirectory(ctx context.Context, dir string) ([]*stats.ConversionResult, error) {
	paths, err := ListSources(dir)
	if err != nil {
		return nil, err
	}

	p.logger.Info("converting directory",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("workers", p.cfg.Workers))

	results := make([]*stats.ConversionResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = p.ConvertFile(gctx, path)
			return nil
		})
	}

	// Workers never return errors; Wait only fences the goroutines.
	_ = g.Wait()
	return results, nil
}
