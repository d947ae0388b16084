// Package pipeline orchestrates a conversion from delimited text to
// parquet: sample and freeze the schema, stream the rows, then verify
// the output. Each file moves through the states pending, sampling,
// writing, verifying, and ends in done or failed.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/sampler"
	"github.com/parquetry/parquetry/pkg/stats"
	"github.com/parquetry/parquetry/pkg/verify"
	"github.com/parquetry/parquetry/pkg/writer"
)

// State names a stage of a single-file conversion.
type State string

const (
	StatePending   State = "pending"
	StateSampling  State = "sampling"
	StateWriting   State = "writing"
	StateVerifying State = "verifying"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Pipeline converts delimited files into parquet.
type Pipeline struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a pipeline with the given configuration.
func New(cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger}
}

// OutputPath returns the destination path for a source file: the base
// name with the (possibly doubled, for .gz inputs) extension replaced
// by .parquet, placed in the configured output directory or next to
// the input.
func (p *Pipeline) OutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	dir := p.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, base+".parquet")
}

// ConvertFile converts one file. It never returns an error: every
// failure is recorded on the result with Success false. A conversion
// that reaches done with warnings still succeeds unless strict mode is
// on.
func (p *Pipeline) ConvertFile(ctx context.Context, inputPath string) *stats.ConversionResult {
	start := time.Now()
	result := stats.NewConversionResult(inputPath, p.OutputPath(inputPath))
	log := p.logger.With(zap.String("input", inputPath))

	state := StatePending
	advance := func(next State) {
		log.Debug("conversion state change",
			zap.String("from", string(state)), zap.String("to", string(next)))
		state = next
	}

	fail := func(err error) *stats.ConversionResult {
		advance(StateFailed)
		result.State = string(StateFailed)
		result.AddError(err.Error())
		result.Elapsed = time.Since(start)
		log.Error("conversion failed", zap.Error(err), zap.Duration("elapsed", result.Elapsed))
		return result
	}

	if p.cfg.OutputDir != "" {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return fail(err)
		}
	}

	advance(StateSampling)
	sample, err := sampler.SampleFile(inputPath, p.cfg, log)
	if err != nil {
		return fail(err)
	}
	result.Columns = sample.Schema.Len()
	for _, w := range sample.Warnings {
		result.AddWarning(w)
	}
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("sample preview\n" + sample.Preview(10))
	}

	advance(StateWriting)
	wres, err := writer.Stream(ctx, inputPath, result.OutputPath, sample.Schema, p.cfg, log)
	if err != nil {
		return fail(err)
	}
	result.Rows = wres.Rows
	for _, w := range wres.Warnings {
		result.AddWarning(w)
	}

	advance(StateVerifying)
	rep, err := verify.Verify(ctx, inputPath, result.OutputPath, wres.Rows, sample.Schema.Len(), p.cfg, log)
	if err != nil {
		return fail(err)
	}
	result.ColumnStats = rep.ColumnStats
	result.SourceSize = rep.SourceSize
	result.OutputSize = rep.FileSize
	for _, w := range rep.Warnings {
		result.AddWarning(w)
	}

	if p.cfg.Strict && result.WarningCount() > 0 {
		return fail(fmt.Errorf("strict mode: %d warnings recorded", result.WarningCount()))
	}

	advance(StateDone)
	result.State = string(StateDone)
	result.Success = true
	result.Elapsed = time.Since(start)
	log.Info("conversion complete",
		zap.String("output", result.OutputPath),
		zap.Int64("rows", result.Rows),
		zap.Int("columns", result.Columns),
		zap.Int("warnings", result.WarningCount()),
		zap.Duration("elapsed", result.Elapsed))
	return result
}
