package stats

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountValueTriState(t *testing.T) {
	c := Count(0)
	assert.True(t, c.Computed)
	assert.Equal(t, "0", c.String())

	nc := NotComputed()
	assert.False(t, nc.Computed)
	assert.Equal(t, "not computed", nc.String())

	// a real zero count is distinguishable from the marker
	assert.NotEqual(t, c, nc)
}

func TestWarningString(t *testing.T) {
	w := Warning{Kind: WarningCoercion, Column: "joined", Row: 17, Message: "cannot parse \"n/a\" as datetime"}
	assert.Contains(t, w.String(), "column joined row 17")

	w = Warning{Kind: WarningCountMismatch, Message: "row count mismatch"}
	assert.Contains(t, w.String(), "[count_mismatch]")
}

func TestResultAccumulatesInOrder(t *testing.T) {
	r := NewConversionResult("in.csv", "out.parquet")
	r.AddWarning(Warning{Kind: WarningCoercion, Message: "first"})
	r.AddWarning(Warning{Kind: WarningCountMismatch, Message: "second"})
	r.AddError("boom")

	require.Len(t, r.Warnings, 2)
	assert.Equal(t, "first", r.Warnings[0].Message)
	assert.Equal(t, "second", r.Warnings[1].Message)
	assert.Equal(t, 1, r.ErrorCount())
}

func TestReportSummaryAndSave(t *testing.T) {
	ok := NewConversionResult("a.csv", "a.parquet")
	ok.Success = true
	ok.Rows = 100

	bad := NewConversionResult("b.csv", "b.parquet")
	bad.AddError("parse: undecodable input")

	rep := NewReport([]*ConversionResult{ok, bad})
	assert.Equal(t, 2, rep.Summary.TotalFiles)
	assert.Equal(t, 1, rep.Summary.Succeeded)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, int64(100), rep.Summary.TotalRows)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, rep.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "a.csv", decoded.Results[0].InputPath)
	assert.False(t, decoded.Results[1].Success)
}
