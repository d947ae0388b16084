// Package source reads delimited text files (CSV/TXT) as streams of
// string records, honoring the configured delimiter, encoding, header
// position and column name overrides. Inputs with a .gz suffix are
// decompressed transparently.
package source

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"

	"github.com/parquetry/parquetry/pkg/config"
	"github.com/parquetry/parquetry/pkg/errors"
)

// Reader streams records from a delimited file. Records are normalized
// to the column count: short rows are padded with empty fields, long
// rows are truncated.
type Reader struct {
	file    *os.File
	gz      *gzip.Reader
	csv     *csv.Reader
	opts    config.ParseOptions
	columns []string

	peeked    []string
	hasPeeked bool

	rowNum    int64
	checkUTF8 bool
}

// Open opens path and resolves the column names. It fails with a parse
// error when the file cannot be decoded under the configured encoding
// or when zero columns are detected.
func Open(path string, opts config.ParseOptions) (*Reader, error) {
	delim, err := opts.DelimiterRune()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open source file")
	}

	r := &Reader{file: f, opts: opts}

	var raw io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open gzip stream")
		}
		r.gz = gz
		raw = gz
	}

	decoded, checkUTF8, err := decodeReader(raw, opts.Encoding)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.checkUTF8 = checkUTF8

	cr := csv.NewReader(decoded)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	r.csv = cr

	if err := r.resolveColumns(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// resolveColumns skips rows preceding the header, reads the header row
// if configured, and applies column name overrides.
func (r *Reader) resolveColumns() error {
	if r.opts.HeaderRow != nil {
		for i := 0; i < *r.opts.HeaderRow; i++ {
			if _, err := r.readRaw(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeParse, "failed to reach header row")
			}
		}
		header, err := r.readRaw()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeParse, "failed to read header row")
		}
		names := make([]string, len(header))
		for i, h := range header {
			names[i] = strings.TrimSpace(h)
		}
		r.columns = names
	} else {
		// No header: peek the first record to learn the width.
		rec, err := r.readRaw()
		if err == io.EOF {
			return errors.New(errors.ErrorTypeParse, "no columns detected: file is empty")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeParse, "failed to read first record")
		}
		r.peeked = rec
		r.hasPeeked = true
		names := make([]string, len(rec))
		for i := range rec {
			names[i] = "column_" + strconv.Itoa(i)
		}
		r.columns = names
	}

	if len(r.opts.ColumnNames) > 0 {
		r.columns = r.opts.ColumnNames
	}
	if len(r.columns) == 0 {
		return errors.New(errors.ErrorTypeParse, "no columns detected")
	}
	return nil
}

func (r *Reader) readRaw() ([]string, error) {
	rec, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "malformed record")
	}
	if r.checkUTF8 {
		for _, field := range rec {
			if !utf8.ValidString(field) {
				return nil, errors.Newf(errors.ErrorTypeParse, "input is not valid %s", r.encodingName())
			}
		}
	}
	return rec, nil
}

func (r *Reader) encodingName() string {
	if r.opts.Encoding == "" {
		return "utf-8"
	}
	return r.opts.Encoding
}

// Columns returns the resolved column names in source order.
func (r *Reader) Columns() []string {
	return r.columns
}

// RowNum returns how many data records have been returned so far.
func (r *Reader) RowNum() int64 {
	return r.rowNum
}

// Next returns the next data record normalized to the column count, or
// io.EOF when the file is exhausted.
func (r *Reader) Next() ([]string, error) {
	var rec []string
	var err error
	if r.hasPeeked {
		rec, r.peeked, r.hasPeeked = r.peeked, nil, false
	} else {
		rec, err = r.readRaw()
		if err != nil {
			return nil, err
		}
	}

	if len(rec) != len(r.columns) {
		normalized := make([]string, len(r.columns))
		copy(normalized, rec)
		rec = normalized
	}
	r.rowNum++
	return rec, nil
}

// Close releases the underlying file handles.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
