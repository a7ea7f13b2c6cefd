package relcore

// LimitOp caps its child's output to the first N tuples, where N is itself
// an expression (typically a ConstExpr) evaluated once up front (spec.md
// §4.5, supplemental operator).
type LimitOp struct {
	child     Operator
	limitTups Expr
}

// NewLimitOp constructs a limit of lim tuples over child.
func NewLimitOp(lim Expr, child Operator) *LimitOp {
	return &LimitOp{child: child, limitTups: lim}
}

func (l *LimitOp) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

func (l *LimitOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	limVal, err := l.limitTups.EvalExpr(nil)
	if err != nil {
		return nil, err
	}
	lim, ok := limVal.(IntField)
	if !ok {
		return nil, newErr(IllegalArgumentError, "limit expression must be an int")
	}

	childIter, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	count := int64(0)

	return func() (*Tuple, error) {
		if count >= lim.Value {
			return nil, nil
		}
		tuple, err := childIter()
		if err != nil || tuple == nil {
			return nil, err
		}
		count++
		return tuple, nil
	}, nil
}
