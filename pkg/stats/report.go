package stats

import (
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/parquetry/parquetry/pkg/errors"
)

// Summary aggregates a batch of conversion results.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	TotalFiles  int       `json:"total_files"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	TotalRows   int64     `json:"total_rows"`
	Warnings    int       `json:"warnings"`
}

// Report is the serializable form of a batch conversion.
type Report struct {
	Summary Summary             `json:"summary"`
	Results []*ConversionResult `json:"results"`
}

// NewReport builds a report over results in their original order.
func NewReport(results []*ConversionResult) *Report {
	s := Summary{
		GeneratedAt: time.Now().UTC(),
		TotalFiles:  len(results),
	}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.TotalRows += r.Rows
		s.Warnings += len(r.Warnings)
	}
	return &Report{Summary: s, Results: results}
}

// Save writes the report as indented JSON.
func (rep *Report) Save(path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to marshal conversion report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write conversion report")
	}
	return nil
}
