package verify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquetry/parquetry/pkg/columnar"
	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/schema"
	"github.com/parquetry/parquetry/pkg/stats"
	"github.com/parquetry/parquetry/pkg/testutil"
)

func writeParquet(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.parquet")
	s := &schema.Schema{Columns: []schema.Column{
		{Name: "id", Type: schema.TypeInt64},
		{Name: "name", Type: schema.TypeString},
	}}

	w, err := columnar.NewWriter(path, s, "snappy")
	require.NoError(t, err)
	require.NoError(t, w.WriteChunk(rows))
	require.NoError(t, w.Close())
	return path
}

func TestVerifyCleanOutput(t *testing.T) {
	path := writeParquet(t, [][]any{
		{int64(1), "Alice"},
		{int64(2), "Bob"},
		{int64(3), nil},
		{int64(3), "Bob"},
	})

	src := testutil.WriteFile(t, t.TempDir(), "in.csv", "id,name\n1,Alice\n2,Bob\n3,\n3,Bob\n")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rep, err := Verify(ctx, src, path, 4, 2, config.New(), testutil.TestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, int64(4), rep.Rows)
	assert.Equal(t, 2, rep.Columns)
	assert.Greater(t, rep.FileSize, int64(0))
	assert.Greater(t, rep.SourceSize, int64(0))
	assert.Empty(t, rep.Warnings)

	id := rep.ColumnStats["id"]
	assert.Equal(t, stats.Count(0), id.NullCount)
	assert.Equal(t, stats.Count(3), id.UniqueCount)

	name := rep.ColumnStats["name"]
	assert.Equal(t, stats.Count(1), name.NullCount)
	assert.Equal(t, stats.Count(2), name.UniqueCount)
}

func TestVerifyCountMismatchWarns(t *testing.T) {
	path := writeParquet(t, [][]any{{int64(1), "Alice"}})

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rep, err := Verify(ctx, "in.csv", path, 5, 3, config.New(), testutil.TestLogger(t))
	require.NoError(t, err)

	require.Len(t, rep.Warnings, 2)
	assert.Equal(t, stats.WarningCountMismatch, rep.Warnings[0].Kind)
	assert.Equal(t, stats.WarningCountMismatch, rep.Warnings[1].Kind)
}

func TestColumnLimitLeavesStatsUncomputed(t *testing.T) {
	path := writeParquet(t, [][]any{{int64(1), "Alice"}})

	cfg := config.New()
	cfg.StatsColumnLimit = 1

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rep, err := Verify(ctx, "in.csv", path, 1, 2, cfg, testutil.TestLogger(t))
	require.NoError(t, err)

	assert.True(t, rep.ColumnStats["id"].NullCount.Computed)
	assert.False(t, rep.ColumnStats["name"].NullCount.Computed)
	assert.False(t, rep.ColumnStats["name"].UniqueCount.Computed)
	assert.Equal(t, "string", rep.ColumnStats["name"].Type)
}

func TestVerifyRowsBoundsScan(t *testing.T) {
	rows := make([][]any, 20)
	for i := range rows {
		rows[i] = []any{int64(i), "x"}
	}
	path := writeParquet(t, rows)

	cfg := config.New()
	cfg.VerifyRows = 5

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	rep, err := Verify(ctx, "in.csv", path, 20, 2, cfg, testutil.TestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, stats.Count(5), rep.ColumnStats["id"].UniqueCount)
}

func TestVerifyUnreadableOutputFails(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "broken.parquet", "garbage")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := Verify(ctx, "in.csv", path, 0, 0, config.New(), testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeVerify))
}
