package relcore

// DeleteOp drains its child and deletes every tuple it produces (by
// RecordID) from a table, emitting a single result tuple naming how many
// rows were deleted (spec.md §4.5).
type DeleteOp struct {
	bufPool    *BufferPool
	deleteFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewDeleteOp constructs a delete of child's output from deleteFile, routed
// through bufPool so deleted pages are locked and marked dirty under tid.
func NewDeleteOp(bufPool *BufferPool, deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{
		bufPool:    bufPool,
		deleteFile: deleteFile,
		child:      child,
		res: &TupleDesc{Fields: []FieldType{{
			Fname: "count",
			Ftype: IntType,
		}}},
	}
}

func (dop *DeleteOp) Descriptor() *TupleDesc {
	return dop.res
}

func (dop *DeleteOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := dop.child.Iterator(tid)
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
			if err := dop.bufPool.DeleteTuple(tid, dop.deleteFile, t); err != nil {
				return nil, err
			}
			count++
		}

		return &Tuple{
			Desc:   *dop.Descriptor(),
			Fields: []DBValue{IntField{Value: count}},
		}, nil
	}, nil
}
