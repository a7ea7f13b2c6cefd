package relcore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func ordersDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "person_id", Ftype: IntType},
		{Fname: "item", Ftype: StringType},
	}}
}

func newOrdersTable(t *testing.T, bp *BufferPool, rows []struct {
	personID int64
	item     string
}) *HeapFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.dat")
	hf, err := NewHeapFile(path, ordersDesc(), bp)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	for _, r := range rows {
		tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{
			IntField{Value: r.personID},
			StringField{Value: r.item, Width: StringLength},
		}}
		require.NoError(t, bp.InsertTuple(tid, hf, tup))
	}
	bp.CommitTransaction(tid)
	return hf
}

func TestEqualityJoin(t *testing.T) {
	bp := NewBufferPool(50, nil)
	people, _ := newPeopleTableInPool(t, bp, []testRow{{"alice", 1}, {"bob", 2}, {"carol", 3}})
	orders := newOrdersTable(t, bp, []struct {
		personID int64
		item     string
	}{
		{1, "widget"}, {1, "gadget"}, {2, "gizmo"},
	})

	peopleScan := NewSeqScan(people, "p")
	ordersScan := NewSeqScan(orders, "o")

	join, err := NewJoin(
		peopleScan, &FieldExpr{Field: FieldType{Fname: "age", TableQualifier: "p", Ftype: IntType}},
		ordersScan, &FieldExpr{Field: FieldType{Fname: "person_id", TableQualifier: "o", Ftype: IntType}},
	)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	iter, err := join.Iterator(tid)
	require.NoError(t, err)
	rows := drain(t, iter)
	require.Len(t, rows, 3) // alice x2, bob x1
	bp.CommitTransaction(tid)
}

func newPeopleTableInPool(t *testing.T, bp *BufferPool, rows []testRow) (*HeapFile, *BufferPool) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.dat")
	hf, err := NewHeapFile(path, peopleDesc(), bp)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	for _, r := range rows {
		tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{
			StringField{Value: r.name, Width: StringLength},
			IntField{Value: r.age},
		}}
		require.NoError(t, bp.InsertTuple(tid, hf, tup))
	}
	bp.CommitTransaction(tid)
	return hf, bp
}
