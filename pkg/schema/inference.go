package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/parquetry/parquetry/pkg/stats"
)

// defaultBoolVocabulary is the boolean token set used when the
// configuration does not supply one. Tokens alternate as true/false
// pairs.
var defaultBoolVocabulary = []string{"true", "false", "1", "0", "yes", "no"}

// boolTruth builds the token-to-truth map for a boolean vocabulary.
// The vocabulary lists alternating true/false pairs, like the default
// {true,false,1,0,yes,no}; tokens match case-insensitively.
func boolTruth(values []string) map[string]bool {
	vocab := values
	if len(vocab) == 0 {
		vocab = defaultBoolVocabulary
	}
	truth := make(map[string]bool, len(vocab))
	for i, v := range vocab {
		truth[strings.ToLower(v)] = i%2 == 0
	}
	return truth
}

// InferOptions configures the inference engine.
type InferOptions struct {
	// DatetimeFormats are strftime-style formats in resolution order:
	// the default format first, then each custom format as listed.
	DatetimeFormats []string
	// BoolValues overrides the boolean vocabulary (case-insensitive),
	// listed as alternating true/false pairs
	BoolValues []string
	// PreferInt32 narrows integer columns to int32 when every sampled
	// value fits
	PreferInt32 bool
}

type datetimeLayout struct {
	format string
	layout string
}

// Inferencer determines the most specific compatible type for a column
// of raw string values. Resolution order is datetime, boolean, integer,
// float, then string; the first rule that matches every non-null value
// wins. Inference is a pure function of the value set and the options,
// so sampling the same unmodified file always yields the same schema.
type Inferencer struct {
	layouts     []datetimeLayout
	boolVocab   map[string]bool
	preferInt32 bool
}

// NewInferencer creates an inference engine from the given options.
func NewInferencer(opts InferOptions) *Inferencer {
	e := &Inferencer{
		layouts:     make([]datetimeLayout, 0, len(opts.DatetimeFormats)),
		boolVocab:   boolTruth(opts.BoolValues),
		preferInt32: opts.PreferInt32,
	}
	for _, f := range opts.DatetimeFormats {
		e.layouts = append(e.layouts, datetimeLayout{format: f, layout: Layout(f)})
	}
	return e
}

// InferSchema infers a full schema. names holds the column names in
// source order; columns[i] holds the non-null sampled values of column
// i. Warnings flag ambiguous datetime columns that were demoted to
// string.
func (e *Inferencer) InferSchema(names []string, columns [][]string) (*Schema, []stats.Warning) {
	cols := make([]Column, len(names))
	var warnings []stats.Warning
	for i, name := range names {
		col, ws := e.InferColumn(name, columns[i])
		cols[i] = col
		warnings = append(warnings, ws...)
	}
	return &Schema{Columns: cols}, warnings
}

// InferColumn infers the type of a single column from its non-null
// sampled values. An empty value set defaults to string and never
// errors.
func (e *Inferencer) InferColumn(name string, values []string) (Column, []stats.Warning) {
	if len(values) == 0 {
		return Column{Name: name, Type: TypeString}, nil
	}

	if col, ok, warnings := e.inferDatetime(name, values); ok || warnings != nil {
		if ok {
			return col, nil
		}
		return Column{Name: name, Type: TypeString}, warnings
	}

	if e.allBool(values) {
		return Column{Name: name, Type: TypeBool}, nil
	}

	if t, ok := e.inferInt(values); ok {
		return Column{Name: name, Type: t}, nil
	}

	if allFloat(values) {
		return Column{Name: name, Type: TypeFloat64}, nil
	}

	return Column{Name: name, Type: TypeString}, nil
}

// inferDatetime resolves a column to datetime only when a single format
// parses every value. Values split across different formats are a
// documented demotion: promoting under one format would corrupt the
// rows that only parse under another, so the column falls back to
// string with an ambiguity warning.
func (e *Inferencer) inferDatetime(name string, values []string) (Column, bool, []stats.Warning) {
	if len(e.layouts) == 0 {
		return Column{}, false, nil
	}

	for _, dl := range e.layouts {
		if parsesAll(dl.layout, values) {
			return Column{Name: name, Type: TypeDatetime, Format: dl.format, Layout: dl.layout}, true, nil
		}
	}

	// No single format covers the column. If every value still parses
	// under some listed format, the column is mixed-format.
	seen := make(map[string]struct{})
	for _, v := range values {
		matched := ""
		for _, dl := range e.layouts {
			if _, err := time.Parse(dl.layout, strings.TrimSpace(v)); err == nil {
				matched = dl.format
				break
			}
		}
		if matched == "" {
			return Column{}, false, nil
		}
		seen[matched] = struct{}{}
	}

	formats := make([]string, 0, len(seen))
	for f := range seen {
		formats = append(formats, f)
	}
	w := stats.Warning{
		Kind:    stats.WarningAmbiguousDatetime,
		Column:  name,
		Message: "values match " + strconv.Itoa(len(formats)) + " datetime formats; column demoted to string",
	}
	return Column{}, false, []stats.Warning{w}
}

func parsesAll(layout string, values []string) bool {
	for _, v := range values {
		if _, err := time.Parse(layout, strings.TrimSpace(v)); err != nil {
			return false
		}
	}
	return true
}

func (e *Inferencer) allBool(values []string) bool {
	for _, v := range values {
		if _, ok := e.boolVocab[strings.ToLower(strings.TrimSpace(v))]; !ok {
			return false
		}
	}
	return true
}

// inferInt requires every value to parse as a base-10 integer. Values
// overflowing int64 fail the rule and fall through to the float rule.
func (e *Inferencer) inferInt(values []string) (ColumnType, bool) {
	allInt32 := true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return TypeInt64, false
		}
		if allInt32 {
			if _, err := strconv.ParseInt(v, 10, 32); err != nil {
				allInt32 = false
			}
		}
	}
	if e.preferInt32 && allInt32 {
		return TypeInt32, true
	}
	return TypeInt64, true
}

func allFloat(values []string) bool {
	for _, v := range values {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false
		}
	}
	return true
}
