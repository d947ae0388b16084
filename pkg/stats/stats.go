// Package stats defines the result records produced by a conversion:
// per-file ConversionResult, per-column ColumnStats, and the warning
// values accumulated by the pipeline stages.
package stats

import (
	"fmt"
	"time"
)

// WarningKind categorizes a non-fatal issue.
type WarningKind string

const (
	// WarningCoercion records a value that failed coercion under the
	// frozen schema and was written as null
	WarningCoercion WarningKind = "coercion"
	// WarningCountMismatch records a source/output row or column count
	// discrepancy found during verification
	WarningCountMismatch WarningKind = "count_mismatch"
	// WarningAmbiguousDatetime records a column whose sampled values
	// matched more than one datetime format
	WarningAmbiguousDatetime WarningKind = "ambiguous_datetime"
	// WarningOverflow records warnings dropped beyond the per-file cap
	WarningOverflow WarningKind = "overflow"
)

// Warning is a non-fatal issue recorded against a conversion. Row is
// 1-based over data records; Row 0 means the warning is not tied to a
// specific record.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Column  string      `json:"column,omitempty"`
	Row     int64       `json:"row,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Column == "" {
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
	if w.Row > 0 {
		return fmt.Sprintf("[%s] column %s row %d: %s", w.Kind, w.Column, w.Row, w.Message)
	}
	return fmt.Sprintf("[%s] column %s: %s", w.Kind, w.Column, w.Message)
}

// CountValue is a tri-state counter: a computed value or an explicit
// not-computed marker. The zero value is not computed.
type CountValue struct {
	Computed bool  `json:"computed"`
	Value    int64 `json:"value"`
}

// Count returns a computed CountValue.
func Count(v int64) CountValue {
	return CountValue{Computed: true, Value: v}
}

// NotComputed returns the explicit not-computed marker.
func NotComputed() CountValue {
	return CountValue{}
}

func (c CountValue) String() string {
	if !c.Computed {
		return "not computed"
	}
	return fmt.Sprintf("%d", c.Value)
}

// ColumnStats holds per-column verification statistics.
type ColumnStats struct {
	Type        string     `json:"type"`
	NullCount   CountValue `json:"null_count"`
	UniqueCount CountValue `json:"unique_count"`
}

// ConversionResult is produced once per input file. It is created empty
// when a conversion starts, mutated by the pipeline stages, and frozen
// once returned to the caller.
type ConversionResult struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	Success    bool   `json:"success"`
	// State is the terminal pipeline state, done or failed.
	State       string                 `json:"state"`
	Rows        int64                  `json:"rows_processed"`
	Columns     int                    `json:"columns_processed"`
	SourceSize  int64                  `json:"source_size_bytes"`
	OutputSize  int64                  `json:"output_size_bytes"`
	Elapsed     time.Duration          `json:"elapsed_ns"`
	Warnings    []Warning              `json:"warnings"`
	Errors      []string               `json:"errors"`
	ColumnStats map[string]ColumnStats `json:"column_stats,omitempty"`
}

// NewConversionResult creates an empty result for an input/output pair.
func NewConversionResult(inputPath, outputPath string) *ConversionResult {
	return &ConversionResult{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Warnings:   []Warning{},
		Errors:     []string{},
	}
}

// AddWarning appends a warning, preserving insertion order.
func (r *ConversionResult) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// AddError appends an error message, preserving insertion order.
func (r *ConversionResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// WarningCount returns the number of recorded warnings.
func (r *ConversionResult) WarningCount() int { return len(r.Warnings) }

// ErrorCount returns the number of recorded errors.
func (r *ConversionResult) ErrorCount() int { return len(r.Errors) }
