package analyzer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/parquetry/parquetry/pkg/errors"
)

// ReportFileName is the file AnalyzeToReport writes under the output
// directory.
const ReportFileName = "parquet_analysis_report.txt"

// Render writes a human-readable report for one file.
func (a *FileAnalysis) Render(w io.Writer) {
	fmt.Fprintf(w, "%s\n", a.Path)
	if !a.Success() {
		fmt.Fprintf(w, "  FAILED: %s\n\n", a.Err)
		return
	}
	fmt.Fprintf(w, "  rows: %s   columns: %d   size: %s   modified: %s\n\n",
		humanize.Comma(a.Rows), len(a.Columns), humanize.Bytes(uint64(a.FileSize)),
		a.ModTime.Format(time.RFC3339))

	cols := tablewriter.NewWriter(w)
	cols.SetHeader([]string{"Column", "Type", "Nulls", "Unique", "Min", "Max", "Mean", "Median", "StdDev", "Most common"})
	for _, c := range a.Columns {
		cols.Append([]string{
			c.Name, c.Type,
			strconv.FormatInt(c.Nulls, 10),
			strconv.FormatInt(c.Unique, 10),
			c.Min, c.Max, c.Mean, c.Median, c.StdDev,
			formatMostCommon(c.MostCommon),
		})
	}
	cols.Render()

	if len(a.Head) > 0 {
		fmt.Fprintf(w, "\nFirst %d rows:\n", len(a.Head))
		renderSample(w, a.Names, a.Head)
	}
	if a.Rows > int64(len(a.Head)) && len(a.Tail) > 0 {
		fmt.Fprintf(w, "\nLast %d rows:\n", len(a.Tail))
		renderSample(w, a.Names, a.Tail)
	}
	fmt.Fprintln(w)
}

func formatMostCommon(vcs []ValueCount) string {
	if len(vcs) == 0 {
		return ""
	}
	parts := make([]string, len(vcs))
	for i, vc := range vcs {
		parts[i] = fmt.Sprintf("%s (%d)", vc.Value, vc.Count)
	}
	return strings.Join(parts, ", ")
}

func renderSample(w io.Writer, names []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(names)
	t.SetAutoFormatHeaders(false)
	for _, row := range rows {
		t.Append(row)
	}
	t.Render()
}

// FormatReport renders a summary table followed by per-file sections.
func FormatReport(analyses []*FileAnalysis) string {
	var sb strings.Builder

	ok := 0
	for _, a := range analyses {
		if a.Success() {
			ok++
		}
	}
	fmt.Fprintf(&sb, "Parquet analysis: %d files, %d analyzed, %d failed\n\n",
		len(analyses), ok, len(analyses)-ok)

	summary := tablewriter.NewWriter(&sb)
	summary.SetHeader([]string{"File", "Rows", "Columns", "Size", "Status"})
	for _, a := range analyses {
		status := "ok"
		if !a.Success() {
			status = "failed"
		}
		summary.Append([]string{
			filepath.Base(a.Path),
			humanize.Comma(a.Rows),
			strconv.Itoa(len(a.Columns)),
			humanize.Bytes(uint64(a.FileSize)),
			status,
		})
	}
	summary.Render()
	sb.WriteString("\n")

	for _, a := range analyses {
		a.Render(&sb)
	}
	return sb.String()
}

// WriteReport writes the formatted report into outDir and returns the
// report path.
func WriteReport(analyses []*FileAnalysis, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to create report directory")
	}
	path := filepath.Join(outDir, ReportFileName)
	if err := os.WriteFile(path, []byte(FormatReport(analyses)), 0o644); err != nil { //nolint:gosec
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to write report")
	}
	return path, nil
}
