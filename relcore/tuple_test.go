package relcore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testTupleDesc() TupleDesc {
	return TupleDesc{Fields: []FieldType{
		{Fname: "name", Ftype: StringType},
		{Fname: "age", Ftype: IntType},
	}}
}

func TestTupleWriteReadRoundTrip(t *testing.T) {
	desc := testTupleDesc()
	tup := &Tuple{Desc: desc, Fields: []DBValue{
		StringField{Value: "josie", Width: StringLength},
		IntField{Value: 20},
	}}

	buf := tup.writeTo(nil)
	require.Len(t, buf, desc.Size())

	got, off, err := readTupleFrom(buf, 0, &desc)
	require.NoError(t, err)
	require.Equal(t, len(buf), off)
	require.True(t, tup.Equals(got), "round-tripped tuple should equal original")
}

func TestTupleEquals(t *testing.T) {
	desc := testTupleDesc()
	a := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "x"}, IntField{Value: 1}}}
	b := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "x"}, IntField{Value: 1}}}
	c := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "y"}, IntField{Value: 1}}}

	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
}

func TestMergeTuples(t *testing.T) {
	desc := testTupleDesc()
	a := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "x"}, IntField{Value: 1}}}
	b := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "y"}, IntField{Value: 2}}}

	merged := mergeTuples(a, b)
	require.Len(t, merged.Fields, 4)

	want := TupleDesc{Fields: append(append([]FieldType{}, desc.Fields...), desc.Fields...)}
	if diff := cmp.Diff(want, merged.Desc); diff != "" {
		t.Errorf("merged descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestTupleProject(t *testing.T) {
	desc := testTupleDesc()
	tup := &Tuple{Desc: desc, Fields: []DBValue{StringField{Value: "josie"}, IntField{Value: 20}}}

	proj, err := tup.project([]FieldType{{Fname: "age", Ftype: IntType}})
	require.NoError(t, err)
	require.Len(t, proj.Fields, 1)
	require.Equal(t, IntField{Value: 20}, proj.Fields[0])
}

func TestSortTupleSlice(t *testing.T) {
	desc := TupleDesc{Fields: []FieldType{{Fname: "n", Ftype: IntType}}}
	tuples := []*Tuple{
		{Desc: desc, Fields: []DBValue{IntField{Value: 3}}},
		{Desc: desc, Fields: []DBValue{IntField{Value: 1}}},
		{Desc: desc, Fields: []DBValue{IntField{Value: 2}}},
	}
	key := &FieldExpr{Field: FieldType{Fname: "n", Ftype: IntType}}
	sortTupleSlice(tuples, []Expr{key}, []bool{true})

	var got []int64
	for _, tup := range tuples {
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	require.Equal(t, []int64{1, 2, 3}, got)
}
