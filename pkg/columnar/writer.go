package columnar

import (
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/parquetry/parquetry/pkg/errors"
	"github.com/parquetry/parquetry/pkg/schema"
)

// Writer appends typed rows to a parquet file. Each call to WriteChunk
// produces one buffered record batch, so chunk boundaries decide the
// batch layout of the output.
type Writer struct {
	file        *os.File
	arrowSchema *arrow.Schema
	fileWriter  *pqarrow.FileWriter
	builder     *array.RecordBuilder
	rows        int64
	closed      bool
}

// NewWriter creates path (truncating any existing file) and prepares a
// parquet writer for the given schema.
func NewWriter(path string, s *schema.Schema, compression string) (*Writer, error) {
	codec, err := Codec(compression)
	if err != nil {
		return nil, err
	}

	arrowSchema := s.Arrow()

	f, err := os.Create(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file")
	}

	pool := memory.NewGoAllocator()
	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(pool),
	)

	fw, err := pqarrow.NewFileWriter(arrowSchema, f, props, arrowProps)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create parquet writer")
	}

	return &Writer{
		file:        f,
		arrowSchema: arrowSchema,
		fileWriter:  fw,
		builder:     array.NewRecordBuilder(pool, arrowSchema),
	}, nil
}

// WriteChunk writes one batch of rows. Every row must have one value
// per schema column; nil values become nulls.
func (w *Writer) WriteChunk(rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		if len(row) != len(w.arrowSchema.Fields()) {
			return errors.Newf(errors.ErrorTypeWrite, "row has %d values, schema has %d columns", len(row), len(w.arrowSchema.Fields()))
		}
		for i, value := range row {
			if err := w.appendValue(i, value); err != nil {
				return err
			}
		}
	}

	record := w.builder.NewRecord()
	defer record.Release()

	if err := w.fileWriter.WriteBuffered(record); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write record batch")
	}

	w.rows += int64(len(rows))
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

func (w *Writer) appendValue(colIdx int, value any) error {
	builder := w.builder.Field(colIdx)

	if value == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(v)

	case *array.Int32Builder:
		v, ok := value.(int32)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(v)

	case *array.Int64Builder:
		v, ok := value.(int64)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(v)

	case *array.Float64Builder:
		v, ok := value.(float64)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(v)

	case *array.StringBuilder:
		v, ok := value.(string)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(v)

	case *array.TimestampBuilder:
		v, ok := value.(time.Time)
		if !ok {
			return w.typeMismatch(colIdx, value)
		}
		b.Append(arrow.Timestamp(v.UnixNano()))

	default:
		return errors.Newf(errors.ErrorTypeWrite, "unsupported builder type %T for column %s", builder, w.arrowSchema.Field(colIdx).Name)
	}

	return nil
}

func (w *Writer) typeMismatch(colIdx int, value any) error {
	field := w.arrowSchema.Field(colIdx)
	return errors.Newf(errors.ErrorTypeWrite, "value of type %T does not match column %s (%s)", value, field.Name, field.Type)
}

// Close finalizes the parquet footer and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.builder.Release()
	if err := w.fileWriter.Close(); err != nil {
		w.file.Close()
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to close parquet writer")
	}
	// The parquet writer may have closed the sink already.
	if err := w.file.Close(); err != nil && !errors.IsClosedFile(err) {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output file")
	}
	return nil
}

// Abort closes the writer and removes the partially written file.
func (w *Writer) Abort() {
	if !w.closed {
		w.closed = true
		w.builder.Release()
		w.fileWriter.Close()
	}
	w.file.Close()
	os.Remove(w.file.Name())
}
