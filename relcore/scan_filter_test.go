package relcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeqScan(t *testing.T) {
	hf, bp := newPeopleTable(t, []testRow{{"alice", 30}, {"bob", 25}})
	scan := NewSeqScan(hf, "people")

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	iter, err := scan.Iterator(tid)
	require.NoError(t, err)

	rows := drain(t, iter)
	require.Len(t, rows, 2)
	require.Equal(t, "people", rows[0].Desc.Fields[0].TableQualifier)
	bp.CommitTransaction(tid)
}

func TestFilterOperator(t *testing.T) {
	hf, bp := newPeopleTable(t, []testRow{{"alice", 30}, {"bob", 25}, {"carol", 40}})
	scan := NewSeqScan(hf, "people")

	ageField := &FieldExpr{Field: FieldType{Fname: "age", TableQualifier: "people", Ftype: IntType}}
	threshold := &ConstExpr{Value: IntField{Value: 28}, Ftype: IntType}
	filter, err := NewFilter(ageField, OpGt, threshold, scan)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	iter, err := filter.Iterator(tid)
	require.NoError(t, err)

	rows := drain(t, iter)
	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Greater(t, r.Fields[1].(IntField).Value, int64(28))
	}
	bp.CommitTransaction(tid)
}
