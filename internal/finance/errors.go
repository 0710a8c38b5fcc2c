package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrAggregation marks every failure surfaced by the Aggregator.
	ErrAggregation = errors.New("finance: aggregation failed")
	// ErrInvalidRecord indicates a structurally invalid input record.
	ErrInvalidRecord = errors.New("finance: invalid record")
	// ErrInvalidPeriod indicates an unknown chart period or month count.
	ErrInvalidPeriod = errors.New("finance: invalid period")
)

// AggregationError wraps the failure of a single pipeline step.
type AggregationError struct {
	Op  string
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("finance: aggregation failed at %s: %v", e.Op, e.Err)
}

// Unwrap returns the originating cause.
func (e *AggregationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrAggregation) match any AggregationError.
func (e *AggregationError) Is(target error) bool {
	return target == ErrAggregation
}
