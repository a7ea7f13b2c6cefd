package relcore

import (
	boom "github.com/tylertreat/BoomFilters"
)

// StringHistogram estimates the selectivity of equality predicates over a
// string field using a Count-Min Sketch rather than an equi-width bucket
// scheme: strings don't have a natural total order cheap to bucket by
// range, but a frequency sketch answers "how common is this exact value"
// in bounded space (spec.md §4.6, grounded on the teacher pack's own
// string_histogram.go).
type StringHistogram struct {
	cms   *boom.CountMinSketch
	count uint64
}

// NewStringHistogram constructs a sketch with a 0.1% error bound at 99.9%
// confidence, matching the teacher's own sizing.
func NewStringHistogram() (*StringHistogram, error) {
	return &StringHistogram{cms: boom.NewCountMinSketch(0.001, 0.999)}, nil
}

func (h *StringHistogram) AddValue(s string) {
	h.cms.Add([]byte(s))
	h.count++
}

// EstimateSelectivity estimates the fraction of rows satisfying "x op s".
// Only OpEq/OpNeq/OpLike are meaningful against a frequency sketch (there is
// no ordering to support OpLt/OpGt); those fall back to a neutral 0.5.
func (h *StringHistogram) EstimateSelectivity(op BoolOp, s string) float64 {
	if h.count == 0 {
		return 0.0
	}
	freq := float64(h.cms.Count([]byte(s))) / float64(h.count)

	switch op {
	case OpEq, OpLike:
		return freq
	case OpNeq:
		return 1.0 - freq
	default:
		return 0.5
	}
}
