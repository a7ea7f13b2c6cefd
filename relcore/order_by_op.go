package relcore

// OrderBy materializes its child's entire output and emits it sorted by one
// or more key expressions, each independently ascending or descending
// (spec.md §4.5, supplemental operator).
type OrderBy struct {
	orderBy   []Expr
	child     Operator
	ascending []bool
}

// NewOrderBy constructs a sort of child's output by orderByFields, with
// ascending[i] selecting the direction of orderByFields[i].
func NewOrderBy(orderByFields []Expr, child Operator, ascending []bool) (*OrderBy, error) {
	return &OrderBy{orderBy: orderByFields, child: child, ascending: ascending}, nil
}

func (o *OrderBy) Descriptor() *TupleDesc {
	return o.child.Descriptor()
}

func (o *OrderBy) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := o.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	res, err := fetchAllTuples(childIter)
	if err != nil {
		return nil, err
	}

	sortTupleSlice(res, o.orderBy, o.ascending)

	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(res) {
			return nil, nil
		}
		t := res[idx]
		idx++
		return t, nil
	}, nil
}
