package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/stats"
	"github.com/parquetry/parquetry/pkg/testutil"
)

func TestConvertFileWorkedExample(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "people.csv",
		"id,name,joined\n1,Alice,2024-01-02\n2,Bob,2024-01-03\n")

	p := New(config.New(), testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	res := p.ConvertFile(ctx, in)

	assert.True(t, res.Success)
	assert.Equal(t, string(StateDone), res.State)
	assert.Equal(t, int64(2), res.Rows)
	assert.Equal(t, 3, res.Columns)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Errors)
	assert.Greater(t, res.SourceSize, int64(0))
	assert.Greater(t, res.OutputSize, int64(0))
	assert.Equal(t, filepath.Join(dir, "people.parquet"), res.OutputPath)

	r, err := columnar.OpenReader(res.OutputPath)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(2), r.NumRows())
	assert.Equal(t, []string{"id", "name", "joined"}, r.Schema().Names())

	rows, err := r.ReadRows(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0][0])
	assert.Equal(t, "Alice", rows[0][1])
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rows[0][2])
}

func TestConvertFileNeverPanicsOrErrors(t *testing.T) {
	p := New(config.New(), testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	res := p.ConvertFile(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.False(t, res.Success)
	assert.Equal(t, string(StateFailed), res.State)
	assert.NotEmpty(t, res.Errors)

	res = p.ConvertFile(ctx, testutil.WriteFile(t, t.TempDir(), "data.json", "{}"))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)
}

func TestConvertFileOutputDir(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "data.csv", "n\n1\n")

	cfg := config.New()
	cfg.OutputDir = filepath.Join(dir, "out", "nested")

	p := New(cfg, testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	res := p.ConvertFile(ctx, in)
	require.True(t, res.Success)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "data.parquet"), res.OutputPath)
	assert.FileExists(t, res.OutputPath)
}

func TestOutputPathStripsGzSuffix(t *testing.T) {
	p := New(config.New(), testutil.TestLogger(t))
	assert.Equal(t, filepath.Join("/data", "events.parquet"), p.OutputPath("/data/events.csv.gz"))
	assert.Equal(t, filepath.Join("/data", "notes.parquet"), p.OutputPath("/data/notes.txt"))
}

func TestStrictModeEscalatesWarnings(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "data.csv", "n\n1\n2\nabc\n")

	cfg := config.New()
	cfg.SampleRows = 2
	cfg.Strict = true

	p := New(cfg, testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	res := p.ConvertFile(ctx, in)
	assert.False(t, res.Success)
	assert.Equal(t, string(StateFailed), res.State)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, stats.WarningCoercion, res.Warnings[0].Kind)
}

func TestConvertDirectoryStableOrder(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "b.csv", "n\n1\n")
	testutil.WriteFile(t, dir, "a.csv", "n\nnot_a_number_later\n")
	testutil.WriteFile(t, dir, "c.txt", "n\n3\n")
	testutil.WriteFile(t, dir, "ignored.json", "{}")

	cfg := config.New()
	cfg.Workers = 2

	p := New(cfg, testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	results, err := p.ConvertDirectory(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(dir, "a.csv"), results[0].InputPath)
	assert.Equal(t, filepath.Join(dir, "b.csv"), results[1].InputPath)
	assert.Equal(t, filepath.Join(dir, "c.txt"), results[2].InputPath)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestConvertDirectoryOneBadFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "good.csv", "n\n1\n2\n")
	// Invalid UTF-8 makes sampling fail outright.
	testutil.WriteFile(t, dir, "bad.csv", "n\n\xff\xfe\n")

	p := New(config.New(), testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	results, err := p.ConvertDirectory(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Errors)
	assert.True(t, results[1].Success)
	assert.Equal(t, int64(2), results[1].Rows)
}

func TestConvertDirectoryMissing(t *testing.T) {
	p := New(config.New(), testutil.TestLogger(t))
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := p.ConvertDirectory(ctx, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
