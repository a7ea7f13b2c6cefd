package relcore

// EqualityJoin implements an equi-join between two child operators as a
// sort-merge join: both sides are read fully into memory, sorted on their
// join keys, and merged (spec.md §4.5).
type EqualityJoin struct {
	leftField, rightField Expr
	left, right           Operator
}

// NewJoin constructs an equality join on leftField (evaluated against left's
// tuples) and rightField (evaluated against right's), which must agree in
// type.
func NewJoin(left Operator, leftField Expr, right Operator, rightField Expr) (*EqualityJoin, error) {
	if leftField.GetExprType().Ftype != rightField.GetExprType().Ftype {
		return nil, newErr(IllegalArgumentError, "join: field types do not match")
	}
	return &EqualityJoin{leftField: leftField, rightField: rightField, left: left, right: right}, nil
}

func (j *EqualityJoin) Descriptor() *TupleDesc {
	return j.left.Descriptor().Merge(j.right.Descriptor())
}

// Iterator materializes and sorts both sides on their join key, then merges
// them: runs of equal keys on each side are cross-joined against each
// other, so duplicate keys still produce every matching pair.
func (j *EqualityJoin) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	leftIter, err := j.left.Iterator(tid)
	if err != nil {
		return nil, err
	}
	leftTuples, err := fetchAllTuples(leftIter)
	if err != nil {
		return nil, err
	}

	rightIter, err := j.right.Iterator(tid)
	if err != nil {
		return nil, err
	}
	rightTuples, err := fetchAllTuples(rightIter)
	if err != nil {
		return nil, err
	}

	sortTupleSlice(leftTuples, []Expr{j.leftField}, []bool{true})
	sortTupleSlice(rightTuples, []Expr{j.rightField}, []bool{true})

	joined := mergeJoin(leftTuples, rightTuples, j.leftField, j.rightField)
	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(joined) {
			return nil, nil
		}
		t := joined[idx]
		idx++
		return t, nil
	}, nil
}

// mergeJoin walks both sorted sides and cross-joins each matching run of
// equal keys. leftField is always evaluated against a left tuple and
// rightField against a right tuple — unlike compareField, there is no
// ambiguity about which side a tuple belongs to, so this works even for a
// self-join where both sides share an identical schema and qualifier.
func mergeJoin(left, right []*Tuple, leftField, rightField Expr) []*Tuple {
	var out []*Tuple
	i, k := 0, 0
	for i < len(left) && k < len(right) {
		lv, err := leftField.EvalExpr(left[i])
		if err != nil {
			break
		}
		rv, err := rightField.EvalExpr(right[k])
		if err != nil {
			break
		}
		switch {
		case lv.EvalPred(rv, OpEq):
			iEnd := equalRunEnd(left, i, leftField)
			kEnd := equalRunEnd(right, k, rightField)
			for a := i; a < iEnd; a++ {
				for b := k; b < kEnd; b++ {
					out = append(out, mergeTuples(left[a], right[b]))
				}
			}
			i, k = iEnd, kEnd
		case lv.EvalPred(rv, OpLt):
			i++
		default:
			k++
		}
	}
	return out
}

func equalRunEnd(tuples []*Tuple, start int, field Expr) int {
	end := start + 1
	for end < len(tuples) {
		v1, err1 := field.EvalExpr(tuples[start])
		v2, err2 := field.EvalExpr(tuples[end])
		if err1 != nil || err2 != nil || !v1.EvalPred(v2, OpEq) {
			break
		}
		end++
	}
	return end
}
