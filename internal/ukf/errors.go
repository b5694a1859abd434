package ukf

import (
	"errors"
	"fmt"
)

var (
	// ErrDimension is returned when a vector or matrix does not match the
	// dimensions fixed by the Config.
	ErrDimension = errors.New("ukf: dimension mismatch")
	// ErrInvalidConfig is returned when dimensions or spread parameters cannot
	// produce a valid filter.
	ErrInvalidConfig = errors.New("ukf: invalid configuration")
	// ErrModel wraps failures reported by the Model collaborator.
	ErrModel = errors.New("ukf: model evaluation failed")
)

// DimensionError describes which argument had the wrong shape.
type DimensionError struct {
	Name       string
	Rows, Cols int
	WantRows   int
	WantCols   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("ukf: %s is %dx%d, want %dx%d", e.Name, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// Unwrap lets errors.Is(err, ErrDimension) match.
func (e *DimensionError) Unwrap() error { return ErrDimension }

func dimErr(name string, r, c, wr, wc int) error {
	return &DimensionError{Name: name, Rows: r, Cols: c, WantRows: wr, WantCols: wc}
}
