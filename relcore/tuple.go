package relcore

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// PageID identifies a page within a table: the owning table's id and a
// zero-based page number within that table's heap file (spec.md §3).
type PageID struct {
	TableID int32
	PageNo  int32
}

// RecordID locates one tuple on one page.
type RecordID struct {
	Page PageID
	Slot int
}

// Tuple is a fixed-schema record: a schema reference, field values matching
// that schema's arity and types, and an optional RecordID assigned once the
// tuple is resident on a page.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordID
}

// writeTo serializes t's fields, in schema order, onto buf using spec.md
// §6's wire format (big-endian ints; length-prefixed, padded strings).
func (t *Tuple) writeTo(buf []byte) []byte {
	for _, f := range t.Fields {
		buf = f.writeTo(buf)
	}
	return buf
}

// readTupleFrom decodes one tuple of the given schema from buf, starting at
// offset off, returning the tuple and the offset just past it.
func readTupleFrom(buf []byte, off int, desc *TupleDesc) (*Tuple, int, error) {
	fields := make([]DBValue, len(desc.Fields))
	for i, ft := range desc.Fields {
		switch ft.Ftype {
		case IntType:
			if off+4 > len(buf) {
				return nil, off, newErr(IoError, "truncated int field")
			}
			v := int32(binary.BigEndian.Uint32(buf[off : off+4]))
			fields[i] = IntField{Value: int64(v)}
			off += 4
		case StringType:
			width := ft.Width
			if width == 0 {
				width = StringLength
			}
			if off+4+width > len(buf) {
				return nil, off, newErr(IoError, "truncated string field")
			}
			n := int(binary.BigEndian.Uint32(buf[off : off+4]))
			off += 4
			if n > width {
				n = width
			}
			fields[i] = StringField{Value: string(buf[off : off+n]), Width: width}
			off += width
		default:
			return nil, off, newErr(IllegalArgumentError, "unknown field type")
		}
	}
	return &Tuple{Desc: *desc, Fields: fields}, off, nil
}

// Equals reports whether t1 and t2 have equal schemas (positionally, by
// type) and equal field values. RecordIDs are not compared.
func (t1 *Tuple) Equals(t2 *Tuple) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	if !t1.Desc.Equals(&t2.Desc) || len(t1.Fields) != len(t2.Fields) {
		return false
	}
	for i := range t1.Fields {
		if !t1.Fields[i].EvalPred(t2.Fields[i], OpEq) {
			return false
		}
	}
	return true
}

// mergeTuples concatenates t2's fields onto t1, producing a new Tuple whose
// schema is the merge of both inputs' schemas (spec.md §4.5 Join).
func mergeTuples(t1, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	desc := t1.Desc.Merge(&t2.Desc)
	fields := make([]DBValue, 0, len(t1.Fields)+len(t2.Fields))
	fields = append(fields, t1.Fields...)
	fields = append(fields, t2.Fields...)
	return &Tuple{Desc: *desc, Fields: fields}
}

// project builds a new tuple containing only the named fields, in the order
// given, preferring a TableQualifier match (carried from the teacher's
// Project operator).
func (t *Tuple) project(fields []FieldType) (*Tuple, error) {
	out := &Tuple{Desc: TupleDesc{}}
	for _, f := range fields {
		idx, err := findField(f, &t.Desc)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, t.Fields[idx])
		out.Desc.Fields = append(out.Desc.Fields, t.Desc.Fields[idx])
	}
	return out, nil
}

// orderState is the result of comparing two tuples along an Expr.
type orderState int

const (
	orderLess orderState = iota
	orderEqual
	orderGreater
)

func (t *Tuple) compareField(t2 *Tuple, field Expr) (orderState, error) {
	v1, err := field.EvalExpr(t)
	if err != nil {
		return orderEqual, err
	}
	v2, err := field.EvalExpr(t2)
	if err != nil {
		return orderEqual, err
	}
	switch {
	case v1.EvalPred(v2, OpEq):
		return orderEqual, nil
	case v1.EvalPred(v2, OpLt):
		return orderLess, nil
	default:
		return orderGreater, nil
	}
}

// tupleKey returns a value usable as a map key that uniquely identifies t's
// field contents (used by DISTINCT projection). String fields are
// length-prefixed so that a delimiter byte occurring inside a value can
// never be mistaken for a field boundary.
func (t *Tuple) tupleKey() string {
	var sb strings.Builder
	for _, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			fmt.Fprintf(&sb, "i:%d|", v.Value)
		case StringField:
			fmt.Fprintf(&sb, "s%d:%s", len(v.Value), v.Value)
		}
	}
	return sb.String()
}

// sortTuples implements sort.Interface over a slice of tuples, ordered by a
// sequence of Expr keys each with its own ascending/descending direction.
type sortTuples struct {
	keys      []Expr
	ascending []bool
	tuples    []*Tuple
}

func (s sortTuples) Len() int      { return len(s.tuples) }
func (s sortTuples) Swap(i, j int) { s.tuples[i], s.tuples[j] = s.tuples[j], s.tuples[i] }
func (s sortTuples) Less(i, j int) bool {
	for k, expr := range s.keys {
		ord, err := s.tuples[i].compareField(s.tuples[j], expr)
		if err != nil || ord == orderEqual {
			continue
		}
		if s.ascending[k] {
			return ord == orderLess
		}
		return ord == orderGreater
	}
	return false
}

func sortTupleSlice(tuples []*Tuple, keys []Expr, ascending []bool) {
	sort.Sort(sortTuples{keys: keys, ascending: ascending, tuples: tuples})
}

// PrettyPrint renders t as a comma-separated line, mirroring the teacher's
// debug-printing helper.
func (t *Tuple) PrettyPrint() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			parts[i] = formatInt(v.Value)
		case StringField:
			parts[i] = v.Value
		}
	}
	return strings.Join(parts, ",")
}
