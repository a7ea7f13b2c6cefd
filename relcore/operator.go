package relcore

// Operator is the pull-based iterator contract every query-plan node
// implements: a Descriptor describing the shape of tuples it produces, and
// an Iterator that hands back a closure yielding one tuple per call, nil
// when exhausted (spec.md §4.5). There is no separate open/rewind/close
// step: Iterator itself does any setup work (materializing a sorted list,
// probing a child), and a fresh call to Iterator is how a plan is rewound.
type Operator interface {
	Descriptor() *TupleDesc
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}

// fetchAllTuples drains an iterator into a slice. Used by the blocking
// operators (OrderBy, the sort-merge Join) that must materialize their
// input before producing any output.
func fetchAllTuples(iter func() (*Tuple, error)) ([]*Tuple, error) {
	var tuples []*Tuple
	for {
		t, err := iter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return tuples, nil
		}
		tuples = append(tuples, t)
	}
}
