// Package sampler reads a bounded prefix of a delimited file and
// freezes the output schema from it. Whatever the sampler decides, the
// streaming writer must live with; later rows never change the schema.
package sampler

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/schema"
	"github.com/parquetry/parquetry/pkg/source"
	"github.com/parquetry/parquetry/pkg/stats"
)

// Sample is the outcome of sampling one source file.
type Sample struct {
	Path    string
	Columns []string
	// Rows holds the raw sampled records, null tokens included.
	Rows   [][]string
	Schema *schema.Schema
	// Warnings are schema-level findings, currently ambiguous datetime
	// columns demoted to string.
	Warnings []stats.Warning
	// Exhausted is true when the whole file fit inside the sample window.
	Exhausted bool
}

// SampleFile reads up to cfg.SampleRows records from path and infers
// the schema from them.
func SampleFile(path string, cfg *config.Config, logger *zap.Logger) (*Sample, error) {
	opts, err := cfg.OptionsFor(path)
	if err != nil {
		return nil, err
	}

	r, err := source.Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	limit := cfg.SampleRows
	sample := &Sample{Path: path, Columns: r.Columns()}
	for limit <= 0 || len(sample.Rows) < limit {
		rec, err := r.Next()
		if err == io.EOF {
			sample.Exhausted = true
			break
		}
		if err != nil {
			return nil, err
		}
		sample.Rows = append(sample.Rows, rec)
	}

	nonNull := make([][]string, len(sample.Columns))
	for _, row := range sample.Rows {
		for i, v := range row {
			if !opts.IsNA(v) {
				nonNull[i] = append(nonNull[i], v)
			}
		}
	}

	inf := schema.NewInferencer(schema.InferOptions{
		DatetimeFormats: cfg.DatetimeFormats.All(),
		BoolValues:      cfg.BoolValues,
		PreferInt32:     cfg.PreferInt32,
	})
	sample.Schema, sample.Warnings = inf.InferSchema(sample.Columns, nonNull)

	logger.Debug("sampled source file",
		zap.String("path", path),
		zap.Int("rows", len(sample.Rows)),
		zap.Bool("exhausted", sample.Exhausted),
		zap.String("schema", sample.Schema.String()))

	return sample, nil
}

// Preview renders up to n sampled rows as a bordered table, with the
// inferred type under each column name.
func (s *Sample) Preview(n int) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)

	headers := make([]string, len(s.Columns))
	for i, col := range s.Schema.Columns {
		headers[i] = col.Name + " (" + string(col.Type) + ")"
	}
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)

	for i, row := range s.Rows {
		if i >= n {
			break
		}
		table.Append(row)
	}
	table.Render()
	return sb.String()
}
