// Package analyzer inspects parquet files: schema, shape, per-column
// statistics and a head/tail sample. It is the diagnostic companion to
// the converter and reads files in full.
package analyzer

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/schema"
)

// SampleRows is how many rows Head and Tail carry.
const SampleRows = 5

// mostCommonLimit caps the most-common value list; it is only reported
// for columns with at most maxUniqueForCommon distinct values.
const (
	mostCommonLimit    = 5
	maxUniqueForCommon = 20
)

// ValueCount pairs a formatted value with its occurrence count.
type ValueCount struct {
	Value string
	Count int64
}

// ColumnSummary describes one column of an analyzed file.
type ColumnSummary struct {
	Name   string
	Type   string
	Nulls  int64
	Unique int64
	// Min, Max, Mean, Median and StdDev are formatted values; empty for
	// types without an ordering worth reporting.
	Min    string
	Max    string
	Mean   string
	Median string
	StdDev string
	// MostCommon lists the top values by count for low-cardinality
	// columns, ties broken by value.
	MostCommon []ValueCount
}

// FileAnalysis is the full report for one parquet file. A file that
// could not be read still produces an analysis with Err set.
type FileAnalysis struct {
	Path     string
	Err      string
	FileSize int64
	ModTime  time.Time
	Rows     int64
	Columns  []ColumnSummary
	Names    []string
	Head     [][]string
	Tail     [][]string
}

// Success reports whether the file was analyzed.
func (a *FileAnalysis) Success() bool { return a.Err == "" }

// AnalyzeFile reads path and computes the analysis report. Read
// failures are captured on the returned analysis, not returned as
// errors; only a nil path programming error can make this panic.
func AnalyzeFile(ctx context.Context, path string, logger *zap.Logger) *FileAnalysis {
	a := &FileAnalysis{Path: path}

	if info, err := os.Stat(path); err == nil {
		a.ModTime = info.ModTime()
	}

	r, err := columnar.OpenReader(path)
	if err != nil {
		a.Err = err.Error()
		logger.Warn("failed to analyze parquet file", zap.String("path", path), zap.Error(err))
		return a
	}
	defer r.Close()

	a.FileSize = r.FileSize()
	a.Rows = r.NumRows()
	a.Names = r.Schema().Names()

	for i, col := range r.Schema().Columns {
		values, err := r.ReadColumn(ctx, i, 0)
		if err != nil {
			a.Err = err.Error()
			return a
		}
		a.Columns = append(a.Columns, summarizeColumn(col, values))
	}

	rows, err := r.ReadRows(ctx, 0)
	if err != nil {
		a.Err = err.Error()
		return a
	}
	a.Head = formatRows(rows, 0, SampleRows)
	tailStart := len(rows) - SampleRows
	if tailStart < 0 {
		tailStart = 0
	}
	a.Tail = formatRows(rows, tailStart, len(rows))

	logger.Debug("analyzed parquet file",
		zap.String("path", path),
		zap.Int64("rows", a.Rows),
		zap.Int("columns", len(a.Columns)))
	return a
}

// ScanParquetFiles returns the .parquet files under dir in sorted
// order, optionally descending into subdirectories.
func ScanParquetFiles(dir string, recursive bool) ([]string, error) {
	var paths []string

	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isParquet(d.Name()) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to scan directory")
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read directory")
		}
		for _, e := range entries {
			if !e.IsDir() && isParquet(e.Name()) {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isParquet(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".parquet")
}

// AnalyzeDirectory analyzes every parquet file under dir. Individual
// unreadable files are reported on their analysis, never abort the
// scan.
func AnalyzeDirectory(ctx context.Context, dir string, recursive bool, logger *zap.Logger) ([]*FileAnalysis, error) {
	paths, err := ScanParquetFiles(dir, recursive)
	if err != nil {
		return nil, err
	}

	analyses := make([]*FileAnalysis, 0, len(paths))
	for _, p := range paths {
		analyses = append(analyses, AnalyzeFile(ctx, p, logger))
	}
	return analyses, nil
}

func summarizeColumn(col schema.Column, values []any) ColumnSummary {
	cs := ColumnSummary{Name: col.Name, Type: string(col.Type)}

	counts := make(map[any]int64)
	var (
		nums     []float64
		sum      float64
		minTime  time.Time
		maxTime  time.Time
		haveTime bool
	)

	for _, v := range values {
		if v == nil {
			cs.Nulls++
			continue
		}
		counts[v]++

		if f, ok := asFloat(v); ok {
			nums = append(nums, f)
			sum += f
		}
		if ts, ok := v.(time.Time); ok {
			if !haveTime || ts.Before(minTime) {
				minTime = ts
			}
			if !haveTime || ts.After(maxTime) {
				maxTime = ts
			}
			haveTime = true
		}
	}
	cs.Unique = int64(len(counts))

	if len(nums) > 0 {
		sort.Float64s(nums)
		mean := sum / float64(len(nums))
		cs.Min = formatValue(nums[0])
		cs.Max = formatValue(nums[len(nums)-1])
		cs.Mean = formatFloat(mean)
		cs.Median = formatFloat(median(nums))
		cs.StdDev = formatFloat(stddev(nums, mean))
	}
	if haveTime {
		cs.Min = formatValue(minTime)
		cs.Max = formatValue(maxTime)
	}
	if cs.Unique > 0 && cs.Unique <= maxUniqueForCommon {
		cs.MostCommon = topValues(counts, mostCommonLimit)
	}
	return cs
}

// median expects nums sorted.
func median(nums []float64) float64 {
	n := len(nums)
	if n%2 == 1 {
		return nums[n/2]
	}
	return (nums[n/2-1] + nums[n/2]) / 2
}

func stddev(nums []float64, mean float64) float64 {
	if len(nums) < 2 {
		return 0
	}
	var ss float64
	for _, f := range nums {
		d := f - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(nums)-1))
}

func topValues(counts map[any]int64, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: formatValue(v), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatRows(rows [][]any, from, to int) [][]string {
	if to > len(rows) {
		to = len(rows)
	}
	out := make([][]string, 0, to-from)
	for _, row := range rows[from:to] {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		out = append(out, cells)
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case time.Time:
		return n.Format(time.RFC3339)
	case string:
		return n
	default:
		return ""
	}
}
