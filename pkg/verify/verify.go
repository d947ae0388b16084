// Package verify reopens a freshly written parquet file, checks it
// against the expected shape, and collects bounded per-column
// statistics. Discrepancies are warnings; an unreadable output is the
// only fatal outcome.
package verify

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/stats"
)

// Report is the outcome of verifying one output file.
type Report struct {
	Rows    int64
	Columns int
	// FileSize and SourceSize are recorded side by side; the columnar
	// output has no checkable size relation to the delimited source.
	FileSize   int64
	SourceSize int64
	// ColumnStats is keyed by column name. Columns past the configured
	// limit carry not-computed counts.
	ColumnStats map[string]stats.ColumnStats
	Warnings    []stats.Warning
}

// Verify opens outputPath and compares it against the row and column
// counts the writer reported, recording the source file size
// alongside. It returns a verify error when the output cannot be
// opened or scanned.
func Verify(ctx context.Context, sourcePath, outputPath string, expectedRows int64, expectedCols int, cfg *config.Config, logger *zap.Logger) (*Report, error) {
	r, err := columnar.OpenReader(outputPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rep := &Report{
		Rows:        r.NumRows(),
		Columns:     r.NumCols(),
		FileSize:    r.FileSize(),
		ColumnStats: make(map[string]stats.ColumnStats, r.NumCols()),
	}
	if fi, err := os.Stat(sourcePath); err == nil {
		rep.SourceSize = fi.Size()
	}

	if rep.Rows != expectedRows {
		rep.Warnings = append(rep.Warnings, stats.Warning{
			Kind:    stats.WarningCountMismatch,
			Message: fmt.Sprintf("output has %d rows, writer reported %d", rep.Rows, expectedRows),
		})
	}
	if rep.Columns != expectedCols {
		rep.Warnings = append(rep.Warnings, stats.Warning{
			Kind:    stats.WarningCountMismatch,
			Message: fmt.Sprintf("output has %d columns, schema has %d", rep.Columns, expectedCols),
		})
	}

	scanLimit := int64(cfg.VerifyRows)
	for i, col := range r.Schema().Columns {
		cs := stats.ColumnStats{
			Type:        string(col.Type),
			NullCount:   stats.NotComputed(),
			UniqueCount: stats.NotComputed(),
		}

		if i < cfg.StatsColumnLimit {
			values, err := r.ReadColumn(ctx, i, scanLimit)
			if err != nil {
				return nil, err
			}
			var nulls int64
			unique := make(map[any]struct{})
			for _, v := range values {
				if v == nil {
					nulls++
					continue
				}
				unique[v] = struct{}{}
			}
			cs.NullCount = stats.Count(nulls)
			cs.UniqueCount = stats.Count(int64(len(unique)))
		}

		rep.ColumnStats[col.Name] = cs
	}

	logger.Debug("verified parquet output",
		zap.String("path", outputPath),
		zap.Int64("rows", rep.Rows),
		zap.Int("columns", rep.Columns),
		zap.Int("warnings", len(rep.Warnings)))
	return rep, nil
}
