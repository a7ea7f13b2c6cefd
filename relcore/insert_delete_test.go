package relcore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// literalSource is a fixed in-memory Operator used to feed Insert/Delete
// their child rows without needing a second heap file.
type literalSource struct {
	desc   *TupleDesc
	tuples []*Tuple
}

func (l *literalSource) Descriptor() *TupleDesc { return l.desc }

func (l *literalSource) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(l.tuples) {
			return nil, nil
		}
		t := l.tuples[idx]
		idx++
		return t, nil
	}, nil
}

func TestInsertOp(t *testing.T) {
	bp := NewBufferPool(50, nil)
	path := filepath.Join(t.TempDir(), "people.dat")
	hf, err := NewHeapFile(path, peopleDesc(), bp)
	require.NoError(t, err)

	source := &literalSource{desc: hf.Descriptor(), tuples: []*Tuple{
		{Desc: *hf.Descriptor(), Fields: []DBValue{StringField{Value: "alice", Width: StringLength}, IntField{Value: 30}}},
		{Desc: *hf.Descriptor(), Fields: []DBValue{StringField{Value: "bob", Width: StringLength}, IntField{Value: 25}}},
	}}

	insert := NewInsertOp(bp, hf, source)
	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	iter, err := insert.Iterator(tid)
	require.NoError(t, err)
	result, err := iter()
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Fields[0].(IntField).Value)
	bp.CommitTransaction(tid)

	readTid := NewTID()
	require.NoError(t, bp.BeginTransaction(readTid))
	scanIter, err := hf.Iterator(readTid)
	require.NoError(t, err)
	rows := drain(t, scanIter)
	require.Len(t, rows, 2)
	bp.CommitTransaction(readTid)
}

func TestDeleteOp(t *testing.T) {
	hf, bp := newPeopleTable(t, []testRow{{"alice", 30}, {"bob", 25}})

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	scanIter, err := hf.Iterator(tid)
	require.NoError(t, err)
	rows := drain(t, scanIter)
	bp.CommitTransaction(tid)
	require.Len(t, rows, 2)

	source := &literalSource{desc: hf.Descriptor(), tuples: rows[:1]}
	del := NewDeleteOp(bp, hf, source)

	delTid := NewTID()
	require.NoError(t, bp.BeginTransaction(delTid))
	iter, err := del.Iterator(delTid)
	require.NoError(t, err)
	result, err := iter()
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Fields[0].(IntField).Value)
	bp.CommitTransaction(delTid)

	verifyTid := NewTID()
	require.NoError(t, bp.BeginTransaction(verifyTid))
	verifyIter, err := hf.Iterator(verifyTid)
	require.NoError(t, err)
	remaining := drain(t, verifyIter)
	require.Len(t, remaining, 1)
	require.Equal(t, "bob", remaining[0].Fields[0].(StringField).Value)
	bp.CommitTransaction(verifyTid)
}
