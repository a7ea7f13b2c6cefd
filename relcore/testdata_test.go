package relcore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// peopleDesc is the schema shared by the operator tests: name (string), age
// (int).
func peopleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "name", Ftype: StringType},
		{Fname: "age", Ftype: IntType},
	}}
}

type testRow struct {
	name string
	age  int64
}

// newPeopleTable builds a fresh heap file under a temp dir, loaded with
// rows inside one committed transaction, and returns it alongside the pool
// backing it.
func newPeopleTable(t *testing.T, rows []testRow) (*HeapFile, *BufferPool) {
	t.Helper()
	bp := NewBufferPool(50, nil)
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

func drain(t *testing.T, iter func() (*Tuple, error)) []*Tuple {
	t.Helper()
	var out []*Tuple
	for {
		tup, err := iter()
		require.NoError(t, err)
		if tup == nil {
			return out
		}
		out = append(out, tup)
	}
}
