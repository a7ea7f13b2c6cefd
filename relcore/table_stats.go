package relcore

import (
	"math"

	"go.uber.org/zap"
)

// CostPerPage is the assumed cost of one page read, used to weight scan
// cost estimates (spec.md §4.6).
const CostPerPage = 1000

// NumHistBins is the default bucket count for a table's integer histograms.
const NumHistBins = 100

// TableStats summarizes one table's shape for the query planner: page and
// tuple counts, and a per-field histogram for selectivity estimation
// (spec.md §4.6).
type TableStats struct {
	basePages  int
	baseTups   int
	histograms map[string]any
	tupleDesc  *TupleDesc
}

// ComputeTableStats builds a TableStats for dbFile by scanning it twice
// inside its own committed transaction: once to learn each integer field's
// min/max (needed to size its histogram's buckets), once to populate the
// histograms (spec.md §4.6).
func ComputeTableStats(bp *BufferPool, dbFile DBFile, log *zap.Logger) (*TableStats, error) {
	log = loggerOrNop(log)
	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		return nil, err
	}

	td := dbFile.Descriptor()

	mins, maxs, err := tableMinMax(tid, dbFile)
	if err != nil {
		bp.AbortTransaction(tid)
		return nil, err
	}

	hists := make(map[string]any, len(td.Fields))
	for i, f := range td.Fields {
		switch f.Ftype {
		case IntType:
			h, err := NewIntHistogram(NumHistBins, mins[i], maxs[i])
			if err != nil {
				bp.AbortTransaction(tid)
				return nil, err
			}
			hists[f.Fname] = h
		case StringType:
			h, err := NewStringHistogram()
			if err != nil {
				bp.AbortTransaction(tid)
				return nil, err
			}
			hists[f.Fname] = h
		}
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		bp.AbortTransaction(tid)
		return nil, err
	}

	baseTups := 0
	for tup, err := iter(); ; tup, err = iter() {
		if err != nil {
			bp.AbortTransaction(tid)
			return nil, err
		}
		if tup == nil {
			break
		}
		for i, f := range td.Fields {
			switch f.Ftype {
			case IntType:
				hists[f.Fname].(*IntHistogram).AddValue(tup.Fields[i].(IntField).Value)
			case StringType:
				hists[f.Fname].(*StringHistogram).AddValue(tup.Fields[i].(StringField).Value)
			}
		}
		baseTups++
	}

	bp.CommitTransaction(tid)
	log.Debug("computed table stats", zap.Int32("table_id", dbFile.ID()), zap.Int("tuples", baseTups))

	return &TableStats{
		basePages:  dbFile.NumPages(),
		baseTups:   baseTups,
		histograms: hists,
		tupleDesc:  td,
	}, nil
}

func tableMinMax(tid TransactionID, dbFile DBFile) ([]int64, []int64, error) {
	td := dbFile.Descriptor()
	mins := make([]int64, len(td.Fields))
	maxs := make([]int64, len(td.Fields))
	for i := range mins {
		mins[i] = math.MaxInt32
		maxs[i] = math.MinInt32
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		return nil, nil, err
	}
	for tup, err := iter(); ; tup, err = iter() {
		if err != nil {
			return nil, nil, err
		}
		if tup == nil {
			break
		}
		for i, f := range td.Fields {
			if f.Ftype != IntType {
				continue
			}
			v := tup.Fields[i].(IntField).Value
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
	}
	for i := range mins {
		if mins[i] > maxs[i] {
			mins[i], maxs[i] = 0, 0
		}
	}
	return mins, maxs, nil
}

// EstimateScanCost estimates the I/O cost of a full sequential scan as
// total_tuples * io_cost_per_page (spec.md §4.6).
func (t *TableStats) EstimateScanCost() float64 {
	return float64(t.baseTups) * CostPerPage
}

// EstimateCardinality estimates the number of rows a predicate of the given
// selectivity would pass.
func (t *TableStats) EstimateCardinality(selectivity float64) int {
	return int(float64(t.baseTups) * selectivity)
}

// EstimateSelectivity looks up field's histogram and estimates the
// selectivity of "field op value". Returns 1.0 (no filtering assumed) if
// field has no histogram, e.g. because it isn't part of this table's
// schema.
func (t *TableStats) EstimateSelectivity(field string, op BoolOp, value DBValue) (float64, error) {
	hist, ok := t.histograms[field]
	if !ok {
		return 1.0, nil
	}

	switch h := hist.(type) {
	case *IntHistogram:
		iv, ok := value.(IntField)
		if !ok {
			return 1.0, newErr(IllegalArgumentError, "field "+field+" is int-typed but value is not an IntField")
		}
		return h.EstimateSelectivity(op, iv.Value), nil
	case *StringHistogram:
		sv, ok := value.(StringField)
		if !ok {
			return 1.0, newErr(IllegalArgumentError, "field "+field+" is string-typed but value is not a StringField")
		}
		return h.EstimateSelectivity(op, sv.Value), nil
	}
	return 1.0, newErr(DbLogicError, "unexpected histogram type for field "+field)
}
