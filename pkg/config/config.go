// Package config provides the configuration system for parquetry.
// It defines a single Config structure with every recognized option
// enumerated and a documented default, loaded from YAML or JSON files
// with environment variable substitution.
//
// The configuration is organized into logical sections:
//   - CSV / TXT: per-file-type parse options
//   - DatetimeFormats: strftime-style formats tried during inference
//   - Conversion tuning: compression, sample size, chunk size, workers
//   - Verification: column-stats limit, verify row bound
//   - Logging: level and optional log file
//
// Unknown keys in configuration files are ignored; this is the single
// documented policy for unrecognized options.
package config

import (
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/parquetry/parquetry/pkg/errors"
)

// ParseOptions holds per-file-type parsing configuration.
type ParseOptions struct {
	// Delimiter is the field separator; escape forms "\t" and "tab" are
	// resolved to a tab. Must resolve to exactly one rune.
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Encoding names the source text encoding (utf-8, latin-1,
	// iso-8859-1, windows-1252, utf-16, utf-16le, utf-16be, ascii)
	Encoding string `yaml:"encoding" json:"encoding"`
	// HeaderRow is the zero-based index of the header row; nil means the
	// file has no header and columns are named column_0, column_1, ...
	HeaderRow *int `yaml:"header" json:"header"`
	// NAValues are tokens treated as null
	NAValues []string `yaml:"na_values" json:"na_values"`
	// LowMemory trades throughput for a smaller working set by shrinking
	// effective chunk sizes
	LowMemory bool `yaml:"low_memory" json:"low_memory"`
	// ChunkSize overrides the global chunk size for this file type (0 = inherit)
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// ColumnNames overrides the column names read from the header
	ColumnNames []string `yaml:"column_names" json:"column_names"`
}

// DatetimeFormats lists strftime-style formats tried during inference.
// The default format is tried first, then each custom format in listed
// order; the first format that parses every sampled value wins.
type DatetimeFormats struct {
	Default string   `yaml:"default" json:"default"`
	Custom  []string `yaml:"custom" json:"custom"`
}

// All returns the default format followed by the custom formats.
func (d DatetimeFormats) All() []string {
	out := make([]string, 0, len(d.Custom)+1)
	if d.Default != "" {
		out = append(out, d.Default)
	}
	return append(out, d.Custom...)
}

// Config is the root configuration for conversion and analysis.
type Config struct {
	CSV             ParseOptions    `yaml:"csv" json:"csv"`
	TXT             ParseOptions    `yaml:"txt" json:"txt"`
	DatetimeFormats DatetimeFormats `yaml:"datetime_formats" json:"datetime_formats"`

	// Compression selects the parquet codec: snappy, gzip, zstd, lz4,
	// brotli or none
	Compression string `yaml:"compression" json:"compression"`
	// SampleRows bounds how many records are read to infer the schema
	SampleRows int `yaml:"sample_rows" json:"sample_rows"`
	// ChunkSize is the number of records streamed and written as a unit
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// PreferInt32 narrows integer columns to int32 when every sampled
	// value fits
	PreferInt32 bool `yaml:"prefer_int32" json:"prefer_int32"`
	// BoolValues overrides the boolean vocabulary (case-insensitive),
	// listed as alternating true/false pairs; empty means
	// {true,false,1,0,yes,no}
	BoolValues []string `yaml:"bool_values" json:"bool_values"`

	// StatsColumnLimit bounds how many columns get null/unique counts
	// during verification; columns beyond it are reported as not computed
	StatsColumnLimit int `yaml:"stats_column_limit" json:"stats_column_limit"`
	// VerifyRows bounds how many output rows are scanned for column
	// stats (0 = all rows)
	VerifyRows int `yaml:"verify_rows" json:"verify_rows"`

	// Workers bounds directory-batch concurrency
	Workers int `yaml:"workers" json:"workers"`
	// Strict escalates warnings to failures
	Strict bool `yaml:"strict" json:"strict"`

	OutputDir string `yaml:"output_dir" json:"output_dir"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFile   string `yaml:"log_file" json:"log_file"`
}

// New returns a Config populated with defaults. Specific options can be
// overridden after loading or via CLI flags.
func New() *Config {
	return &Config{
		CSV: ParseOptions{
			Delimiter: ",",
			Encoding:  "utf-8",
			HeaderRow: intPtr(0),
			NAValues:  []string{"", "NA", "NULL"},
		},
		TXT: ParseOptions{
			Delimiter: "\t",
			Encoding:  "utf-8",
			HeaderRow: intPtr(0),
			NAValues:  []string{"", "NA", "NULL"},
		},
		DatetimeFormats: DatetimeFormats{
			Default: "%Y-%m-%d",
		},
		Compression:      "snappy",
		SampleRows:       1000,
		ChunkSize:        10000,
		StatsColumnLimit: 50,
		Workers:          runtime.NumCPU(),
		LogLevel:         "info",
	}
}

// OptionsFor returns the parse options for a source path based on its
// extension, or an error for unsupported file types. A trailing .gz is
// stripped before the extension check.
func (c *Config) OptionsFor(path string) (ParseOptions, error) {
	ext := strings.ToLower(path)
	ext = strings.TrimSuffix(ext, ".gz")
	switch {
	case strings.HasSuffix(ext, ".csv"):
		return c.CSV, nil
	case strings.HasSuffix(ext, ".txt"):
		return c.TXT, nil
	}
	return ParseOptions{}, errors.Newf(errors.ErrorTypeConfig, "unsupported file type: %s", path)
}

// EffectiveChunkSize resolves the chunk size for a file type, honoring
// the per-type override and the low-memory flag.
func (c *Config) EffectiveChunkSize(opts ParseOptions) int {
	size := c.ChunkSize
	if opts.ChunkSize > 0 {
		size = opts.ChunkSize
	}
	if opts.LowMemory && size > 1024 {
		size = 1024
	}
	return size
}

// DelimiterRune resolves the configured delimiter to a single rune.
func (o ParseOptions) DelimiterRune() (rune, error) {
	d := o.Delimiter
	switch d {
	case "\\t", "tab":
		d = "\t"
	case "":
		d = ","
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "delimiter must be a single character, got %q", o.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(d)
	return r, nil
}

// IsNA reports whether the value is one of the configured null tokens.
func (o ParseOptions) IsNA(value string) bool {
	for _, na := range o.NAValues {
		if value == na {
			return true
		}
	}
	return false
}

// Validate validates the configuration for correctness. Call it after
// loading to catch errors early.
func (c *Config) Validate() error {
	if _, err := c.CSV.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.TXT.DelimiterRune(); err != nil {
		return err
	}
	if c.SampleRows <= 0 {
		return errors.New(errors.ErrorTypeConfig, "sample_rows must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "chunk_size must be positive")
	}
	if c.StatsColumnLimit < 0 {
		return errors.New(errors.ErrorTypeConfig, "stats_column_limit cannot be negative")
	}
	if c.VerifyRows < 0 {
		return errors.New(errors.ErrorTypeConfig, "verify_rows cannot be negative")
	}
	if len(c.BoolValues)%2 != 0 {
		return errors.New(errors.ErrorTypeConfig, "bool_values must list alternating true/false pairs")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	switch strings.ToLower(c.Compression) {
	case "", "snappy", "gzip", "zstd", "lz4", "brotli", "none", "uncompressed":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported compression codec: %s", c.Compression)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "invalid log level: %s", c.LogLevel)
	}
	return nil
}

func intPtr(v int) *int { return &v }
