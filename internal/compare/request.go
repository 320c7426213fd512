package compare

import (
	"errors"
	"fmt"

	"github.com/torosent/querybench/internal/driver"
)

const (
	DefaultSampleCount = 10
	MaxSampleCount     = 100
)

// Request selects what a comparison runs. Empty Drivers means every
// registered driver; empty Queries means the whole catalog.
type Request struct {
	Drivers     []driver.Type
	Queries     []string
	SampleCount int
}

// NormalizeSampleCount applies the default to a missing count, rejects
// non-positive counts and clamps large ones to MaxSampleCount.
func NormalizeSampleCount(n *int) (int, error) {
	if n == nil {
		return DefaultSampleCount, nil
	}
	if *n <= 0 {
		return 0, &InputValidationError{Field: "sampleCount", Reason: fmt.Sprintf("must be positive, got %d", *n)}
	}
	return min(*n, MaxSampleCount), nil
}

// NewRequest validates raw caller input.
func NewRequest(drivers, queries []string, sampleCount *int) (Request, error) {
	n, err := NormalizeSampleCount(sampleCount)
	if err != nil {
		return Request{}, err
	}

	types, err := driver.ParseTypes(drivers)
	if err != nil {
		var unknown *driver.UnknownTypeError
		if errors.As(err, &unknown) {
			return Request{}, &InputValidationError{Field: "drivers", Reason: err.Error()}
		}
		return Request{}, err
	}

	return Request{Drivers: types, Queries: queries, SampleCount: n}, nil
}
