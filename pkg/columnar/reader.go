package columnar

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/schema"
)

// Reader reads a parquet file written by this package (or anything else
// that sticks to the supported logical types).
type Reader struct {
	osFile      *os.File
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
	schema      *schema.Schema
	fileSize    int64
}

// OpenReader opens path for reading. Failures to parse the footer or
// schema surface as verify errors.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open parquet file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat parquet file")
	}

	fr, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed to read parquet footer")
	}

	ar, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{BatchSize: 1024}, memory.NewGoAllocator())
	if err != nil {
		fr.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed to create arrow reader")
	}

	arrowSchema, err := ar.Schema()
	if err != nil {
		fr.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed to read parquet schema")
	}

	return &Reader{
		osFile:      f,
		fileReader:  fr,
		arrowReader: ar,
		schema:      schema.FromArrow(arrowSchema),
		fileSize:    info.Size(),
	}, nil
}

// Schema returns the file schema mapped to converter types.
func (r *Reader) Schema() *schema.Schema {
	return r.schema
}

// NumRows returns the row count recorded in the file metadata.
func (r *Reader) NumRows() int64 {
	return r.fileReader.NumRows()
}

// NumCols returns the number of columns.
func (r *Reader) NumCols() int {
	return r.schema.Len()
}

// FileSize returns the on-disk size in bytes.
func (r *Reader) FileSize() int64 {
	return r.fileSize
}

// ReadColumn materializes a single column as typed values, nil for
// nulls. A limit of zero or less reads the whole column.
func (r *Reader) ReadColumn(ctx context.Context, colIdx int, limit int64) ([]any, error) {
	if colIdx < 0 || colIdx >= r.schema.Len() {
		return nil, errors.Newf(errors.ErrorTypeVerify, "column index %d out of range", colIdx)
	}

	rr, err := r.arrowReader.GetRecordReader(ctx, []int{colIdx}, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed to read column")
	}
	defer rr.Release()

	var values []any
	for rr.Next() {
		rec := rr.Record()
		col := rec.Column(0)
		for i := 0; i < col.Len(); i++ {
			values = append(values, columnValue(col, i))
			if limit > 0 && int64(len(values)) >= limit {
				return values, nil
			}
		}
	}
	if err := rr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed while scanning column")
	}
	return values, nil
}

// ReadRows materializes rows from the start of the file. A limit of
// zero or less reads everything.
func (r *Reader) ReadRows(ctx context.Context, limit int64) ([][]any, error) {
	rr, err := r.arrowReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed to read rows")
	}
	defer rr.Release()

	var rows [][]any
	for rr.Next() {
		rec := rr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]any, rec.NumCols())
			for j := 0; j < int(rec.NumCols()); j++ {
				row[j] = columnValue(rec.Column(j), i)
			}
			rows = append(rows, row)
			if limit > 0 && int64(len(rows)) >= limit {
				return rows, nil
			}
		}
	}
	if err := rr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, errors.ErrorTypeVerify, "failed while scanning rows")
	}
	return rows, nil
}

// Close releases the reader and the underlying file.
func (r *Reader) Close() error {
	err := r.fileReader.Close()
	if cerr := r.osFile.Close(); err == nil && cerr != nil && !errors.IsClosedFile(cerr) {
		err = cerr
	}
	return err
}

func columnValue(col arrow.Array, rowIdx int) any {
	if col.IsNull(rowIdx) {
		return nil
	}

	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(rowIdx)
	case *array.Int32:
		return c.Value(rowIdx)
	case *array.Int64:
		return c.Value(rowIdx)
	case *array.Float64:
		return c.Value(rowIdx)
	case *array.String:
		return c.Value(rowIdx)
	case *array.Timestamp:
		return time.Unix(0, int64(c.Value(rowIdx))).UTC()
	default:
		return nil
	}
}
