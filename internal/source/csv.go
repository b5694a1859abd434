package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/srukf/internal/ukf"
)

// ReadCSV reads a whole series. A first record whose time column is not a
// number is treated as a header and skipped.
func ReadCSV(r io.Reader, nInputs, nOutputs int) (ukf.Series, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var b seriesBuilder
	b.init(nInputs)
	for rec := 0; ; rec++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ukf.Series{}, fmt.Errorf("read csv: %w", err)
		}
		if rec == 0 && isHeader(fields) {
			continue
		}
		line, _ := cr.FieldPos(0)
		s, err := parseFields(fields, nInputs, nOutputs)
		if err != nil {
			return ukf.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		b.add(s)
	}
	return b.series, nil
}

func isHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	return err != nil
}

// seriesBuilder appends samples to a ukf.Series. Inputs stay nil for models
// without inputs.
type seriesBuilder struct {
	series  ukf.Series
	inputs  bool
	hasLast bool
	last    float64
}

func (b *seriesBuilder) init(nInputs int) {
	b.inputs = nInputs > 0
}

func (b *seriesBuilder) add(s Sample) {
	b.series.Times = append(b.series.Times, s.Time)
	if b.inputs {
		b.series.Inputs = append(b.series.Inputs, s.InputVec())
	}
	b.series.Measurements = append(b.series.Measurements, s.MeasurementVec())
	b.hasLast, b.last = true, s.Time
}

// after reports whether t is strictly later than the last added sample.
func (b *seriesBuilder) after(t float64) bool {
	return !b.hasLast || t > b.last
}
