// Package writer streams a delimited file into parquet under a frozen
// schema. Rows are processed in chunks; a cell that fails coercion
// becomes a null plus a warning, never a failed conversion.
package writer

import (
	"context"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/schema"
	"github.com/parquetry/parquetry/pkg/source"
	"github.com/parquetry/parquetry/pkg/stats"
)

// MaxCoercionWarnings caps per-file coercion warnings. Once reached, a
// single overflow warning marks that further failures went unrecorded.
const MaxCoercionWarnings = 100

// Result reports what the streaming stage produced.
type Result struct {
	Rows     int64
	Elapsed  time.Duration
	Warnings []stats.Warning
}

// Stream converts inputPath into outputPath using the frozen schema.
// It removes the partial output file on any fatal error.
func Stream(ctx context.Context, inputPath, outputPath string, s *schema.Schema, cfg *config.Config, logger *zap.Logger) (*Result, error) {
	opts, err := cfg.OptionsFor(inputPath)
	if err != nil {
		return nil, err
	}

	r, err := source.Open(inputPath, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	w, err := columnar.NewWriter(outputPath, s, cfg.Compression)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	coercer := schema.NewCoercer(cfg.BoolValues)
	chunkSize := cfg.EffectiveChunkSize(opts)
	chunk := make([][]any, 0, chunkSize)
	suppressed := int64(0)

	start := time.Now()
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := w.WriteChunk(chunk); err != nil {
			return err
		}
		chunk = chunk[:0]
		logger.Debug("chunk written",
			zap.Int64("rows", w.Rows()),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return nil, errors.Wrap(err, errors.ErrorTypeTimeout, "conversion canceled")
		}

		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Abort()
			return nil, err
		}

		row := make([]any, len(rec))
		for i, raw := range rec {
			if opts.IsNA(raw) {
				continue
			}
			v, cerr := coercer.Coerce(s.Columns[i], raw)
			if cerr != nil {
				if int64(len(res.Warnings)) < MaxCoercionWarnings {
					res.Warnings = append(res.Warnings, stats.Warning{
						Kind:    stats.WarningCoercion,
						Column:  s.Columns[i].Name,
						Row:     r.RowNum(),
						Message: cerr.Error(),
					})
				} else {
					suppressed++
				}
				continue
			}
			row[i] = v
		}

		chunk = append(chunk, row)
		if len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				w.Abort()
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		w.Abort()
		return nil, err
	}
	if err := w.Close(); err != nil {
		w.Abort()
		return nil, err
	}

	if suppressed > 0 {
		res.Warnings = append(res.Warnings, stats.Warning{
			Kind:    stats.WarningOverflow,
			Message: "suppressed " + strconv.FormatInt(suppressed, 10) + " further coercion warnings",
		})
	}

	res.Rows = w.Rows()
	res.Elapsed = time.Since(start)
	logger.Debug("streamed source into parquet",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int64("rows", res.Rows),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}
