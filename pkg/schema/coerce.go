package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coercer converts raw string cells to typed values under a frozen
// schema. It applies the same parsing rules the inference engine used,
// so every sampled value is guaranteed to coerce cleanly.
type Coercer struct {
	boolVocab map[string]bool
}

// NewCoercer creates a coercer with the given boolean vocabulary,
// listed as alternating true/false pairs; empty means the default
// vocabulary.
func NewCoercer(boolValues []string) *Coercer {
	return &Coercer{boolVocab: boolTruth(boolValues)}
}

// Coerce converts one cell. The returned value is nil only on error;
// null handling happens before coercion.
func (c *Coercer) Coerce(col Column, value string) (any, error) {
	switch col.Type {
	case TypeInt32:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int32", value)
		}
		return int32(v), nil

	case TypeInt64:
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int64", value)
		}
		return v, nil

	case TypeFloat64:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a float64", value)
		}
		return v, nil

	case TypeBool:
		truth, ok := c.boolVocab[strings.ToLower(strings.TrimSpace(value))]
		if !ok {
			return nil, fmt.Errorf("%q is not in the boolean vocabulary", value)
		}
		return truth, nil

	case TypeDatetime:
		if col.Layout == "" {
			return nil, fmt.Errorf("column %s has no datetime layout", col.Name)
		}
		t, err := time.Parse(col.Layout, strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%q does not match datetime format %s", value, col.Format)
		}
		return t, nil

	default:
		return value, nil
	}
}
