package relcore

// InsertOp drains its child and inserts every tuple it produces into a
// table, emitting a single result tuple naming how many rows were inserted
// (spec.md §4.5).
type InsertOp struct {
	bufPool    *BufferPool
	insertFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewInsertOp constructs an insert of child's output into insertFile,
// routed through bufPool so inserted pages are locked and marked dirty
// under tid like any other write.
func NewInsertOp(bufPool *BufferPool, insertFile DBFile, child Operator) *InsertOp {
	return &InsertOp{
		bufPool:    bufPool,
		insertFile: insertFile,
		child:      child,
		res: &TupleDesc{Fields: []FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

func (iop *InsertOp) Descriptor() *TupleDesc {
	return iop.res
}

func (iop *InsertOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := iop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	done := false

	return func() (*Tuple, error) {
		if done {
			return nil, nil
		}
		done = true

		var count int64
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := iop.bufPool.InsertTuple(tid, iop.insertFile, t); err != nil {
				return nil, err
			}
			count++
		}

		return &Tuple{
			Desc:   *iop.Descriptor(),
			Fields: []DBValue{IntField{Value: count}},
		}, nil
	}, nil
}
