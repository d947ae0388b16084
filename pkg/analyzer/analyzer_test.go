package analyzer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/schema"
	"github.com/parquetry/parquetry/pkg/testutil"
)

func writeSampleParquet(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	s := &schema.Schema{Columns: []schema.Column{
		{Name: "id", Type: schema.TypeInt64},
		{Name: "score", Type: schema.TypeFloat64},
		{Name: "name", Type: schema.TypeString},
		{Name: "joined", Type: schema.TypeDatetime},
	}}
	path := filepath.Join(dir, name)
	w, err := columnar.NewWriter(path, s, "snappy")
	require.NoError(t, err)
	require.NoError(t, w.WriteChunk(rows))
	require.NoError(t, w.Close())
	return path
}

func sampleRows() [][]any {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows [][]any
	for i := 0; i < 10; i++ {
		rows = append(rows, []any{
			int64(i), float64(i) * 0.5, "user", base.AddDate(0, 0, i),
		})
	}
	rows[3][1] = nil
	return rows
}

func TestAnalyzeFile(t *testing.T) {
	path := writeSampleParquet(t, t.TempDir(), "data.parquet", sampleRows())

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a := AnalyzeFile(ctx, path, testutil.TestLogger(t))
	require.True(t, a.Success())

	assert.Equal(t, int64(10), a.Rows)
	assert.Greater(t, a.FileSize, int64(0))
	assert.False(t, a.ModTime.IsZero())
	require.Len(t, a.Columns, 4)

	id := a.Columns[0]
	assert.Equal(t, "int64", id.Type)
	assert.Equal(t, int64(0), id.Nulls)
	assert.Equal(t, int64(10), id.Unique)
	assert.Equal(t, "0", id.Min)
	assert.Equal(t, "9", id.Max)
	assert.Equal(t, "4.5", id.Mean)
	assert.Equal(t, "4.5", id.Median)
	assert.NotEmpty(t, id.StdDev)

	score := a.Columns[1]
	assert.Equal(t, int64(1), score.Nulls)

	name := a.Columns[2]
	assert.Equal(t, int64(1), name.Unique)
	assert.Empty(t, name.Min)
	require.Len(t, name.MostCommon, 1)
	assert.Equal(t, "user", name.MostCommon[0].Value)
	assert.Equal(t, int64(10), name.MostCommon[0].Count)

	joined := a.Columns[3]
	assert.Equal(t, "2024-01-01T00:00:00Z", joined.Min)
	assert.Equal(t, "2024-01-10T00:00:00Z", joined.Max)

	require.Len(t, a.Head, SampleRows)
	require.Len(t, a.Tail, SampleRows)
	assert.Equal(t, "0", a.Head[0][0])
	assert.Equal(t, "9", a.Tail[len(a.Tail)-1][0])
	assert.Equal(t, "null", a.Head[3][1])
}

func TestMostCommonSkippedForHighCardinality(t *testing.T) {
	rows := make([][]any, 30)
	base := time.Now().UTC()
	for i := range rows {
		rows[i] = []any{int64(i), 0.0, "u", base}
	}
	path := writeSampleParquet(t, t.TempDir(), "wide.parquet", rows)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a := AnalyzeFile(ctx, path, testutil.TestLogger(t))
	require.True(t, a.Success())
	assert.Empty(t, a.Columns[0].MostCommon)
	assert.NotEmpty(t, a.Columns[2].MostCommon)
}

func TestAnalyzeShortFile(t *testing.T) {
	rows := sampleRows()[:2]
	path := writeSampleParquet(t, t.TempDir(), "short.parquet", rows)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	a := AnalyzeFile(ctx, path, testutil.TestLogger(t))
	require.True(t, a.Success())
	assert.Len(t, a.Head, 2)
}

func TestAnalyzeDirectorySortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeSampleParquet(t, dir, "b.parquet", sampleRows())
	writeSampleParquet(t, dir, "a.parquet", sampleRows())
	testutil.WriteFile(t, dir, "notes.txt", "not parquet")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	analyses, err := AnalyzeDirectory(ctx, dir, false, testutil.TestLogger(t))
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Equal(t, filepath.Join(dir, "a.parquet"), analyses[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.parquet"), analyses[1].Path)
}

func TestScanParquetFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeSampleParquet(t, dir, "top.parquet", sampleRows())
	writeSampleParquet(t, sub, "deep.parquet", sampleRows())

	flat, err := ScanParquetFiles(dir, false)
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	all, err := ScanParquetFiles(dir, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUnreadableFileCapturedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeSampleParquet(t, dir, "good.parquet", sampleRows())
	testutil.WriteFile(t, dir, "junk.parquet", "junk")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	analyses, err := AnalyzeDirectory(ctx, dir, false, testutil.TestLogger(t))
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.True(t, analyses[0].Success())
	assert.False(t, analyses[1].Success())
	assert.NotEmpty(t, analyses[1].Err)
}

func TestFormatAndWriteReport(t *testing.T) {
	dir := t.TempDir()
	writeSampleParquet(t, dir, "data.parquet", sampleRows())

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	analyses, err := AnalyzeDirectory(ctx, dir, false, testutil.TestLogger(t))
	require.NoError(t, err)

	out := FormatReport(analyses)
	assert.Contains(t, out, "1 files, 1 analyzed, 0 failed")
	assert.Contains(t, out, "data.parquet")
	assert.Contains(t, out, "joined")
	assert.Contains(t, out, "First 5 rows")

	reportDir := filepath.Join(dir, "reports")
	path, err := WriteReport(analyses, reportDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(reportDir, ReportFileName), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestRenderFailedAnalysis(t *testing.T) {
	a := &FileAnalysis{Path: "broken.parquet", Err: "bad footer"}

	var buf bytes.Buffer
	a.Render(&buf)
	assert.Contains(t, buf.String(), "FAILED: bad footer")
}
