// Package columnar wraps the Arrow parquet writer and reader behind a
// small typed-value API. Values cross the boundary as nil, bool, int32,
// int64, float64, string, or time.Time.
package columnar

import (
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"

	"github.com/parquetry/parquetry/pkg/errors"
)

// Codec resolves a compression name to a parquet codec. The empty
// string means snappy.
func Codec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeConfig, "unsupported compression codec: %s", name)
	}
}
