package relcore

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// DBType is the closed enumeration of column types relcore understands.
type DBType int

const (
	IntType DBType = iota
	StringType
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// StringLength is the fixed declared width used for StringType fields that
// don't otherwise specify one (e.g. in tests and CSV loading).
const StringLength = 64

// Size returns the serialized size in bytes of a field of this type, given
// the declared width (only meaningful for StringType; ignored for IntType).
func (t DBType) Size(width int) int {
	switch t {
	case IntType:
		return 4
	case StringType:
		return 4 + width
	}
	return 0
}

// FieldType names and types one column of a TupleDesc.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
	// Width is the declared storage width of a StringType field. Unused for
	// IntType.
	Width int
}

// TupleDesc is the "type" of a tuple: an ordered list of fields. Equality
// across TupleDescs is positional on types only (spec.md §3).
type TupleDesc struct {
	Fields []FieldType
}

// Equals reports whether d1 and d2 have the same arity and the same type at
// every position. Names are not compared.
func (d1 *TupleDesc) Equals(d2 *TupleDesc) bool {
	if len(d1.Fields) != len(d2.Fields) {
		return false
	}
	for i := range d1.Fields {
		if d1.Fields[i].Ftype != d2.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// Size returns the number of bytes one tuple of this schema occupies on a
// page: the sum of each field's serialized size.
func (d *TupleDesc) Size() int {
	total := 0
	for _, f := range d.Fields {
		width := f.Width
		if f.Ftype == StringType && width == 0 {
			width = StringLength
		}
		total += f.Ftype.Size(width)
	}
	return total
}

// Copy returns a deep copy of the field slice (but not of field strings,
// which are immutable in Go).
func (d *TupleDesc) Copy() *TupleDesc {
	fields := make([]FieldType, len(d.Fields))
	copy(fields, d.Fields)
	return &TupleDesc{Fields: fields}
}

// Merge returns the concatenation of d and other's fields, left to right.
func (d *TupleDesc) Merge(other *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(d.Fields)+len(other.Fields))
	fields = append(fields, d.Fields...)
	fields = append(fields, other.Fields...)
	return &TupleDesc{Fields: fields}
}

// findField locates the best match for field in desc by name. When field
// specifies a TableQualifier, only a field with that qualifier matches;
// when it does not, an unqualified field is preferred, falling back to the
// first field of that name. Mirrors the teacher's findFieldInTd resolution
// rule.
func findField(field FieldType, desc *TupleDesc) (int, error) {
	best := -1
	for i, f := range desc.Fields {
		if f.Fname != field.Fname {
			continue
		}
		if field.TableQualifier == "" || f.TableQualifier == field.TableQualifier {
			if f.TableQualifier == field.TableQualifier {
				return i, nil
			}
			if best == -1 {
				best = i
			}
		}
	}
	if best == -1 {
		return -1, newErr(IllegalArgumentError, "field "+field.TableQualifier+"."+field.Fname+" not found")
	}
	return best, nil
}

// BoolOp is a comparison operator usable between two field values.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
)

// DBValue is a typed field value. IntField and StringField implement it.
type DBValue interface {
	// EvalPred evaluates "self <op> other" and returns the boolean result.
	EvalPred(other DBValue, op BoolOp) bool
	// writeTo serializes the value onto buf per spec.md §6's wire format.
	writeTo(buf []byte) []byte
}

// IntField is a 4-byte signed integer field value.
type IntField struct {
	Value int64
}

func (f IntField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq, OpLike:
		return f.Value == o.Value
	case OpNeq:
		return f.Value != o.Value
	case OpLt:
		return f.Value < o.Value
	case OpLe:
		return f.Value <= o.Value
	case OpGt:
		return f.Value > o.Value
	case OpGe:
		return f.Value >= o.Value
	}
	return false
}

func (f IntField) writeTo(buf []byte) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(int32(f.Value)))
	return append(buf, tmp[:]...)
}

// StringField is a fixed-width, length-prefixed string field value.
type StringField struct {
	Value string
	Width int
}

func (f StringField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == o.Value
	case OpNeq:
		return f.Value != o.Value
	case OpLt:
		return f.Value < o.Value
	case OpLe:
		return f.Value <= o.Value
	case OpGt:
		return f.Value > o.Value
	case OpGe:
		return f.Value >= o.Value
	case OpLike:
		return strings.Contains(f.Value, o.Value)
	}
	return false
}

func (f StringField) writeTo(buf []byte) []byte {
	width := f.Width
	if width == 0 {
		width = StringLength
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f.Value)))
	buf = append(buf, lenBuf[:]...)
	payload := make([]byte, width)
	copy(payload, f.Value)
	return append(buf, payload...)
}

// Expr is an expression that can be evaluated against a tuple, returning a
// DBValue. FieldExpr extracts a named field; ConstExpr returns a constant.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts the value of a single field from a tuple.
type FieldExpr struct {
	Field FieldType
}

func (e *FieldExpr) GetExprType() FieldType { return e.Field }

func (e *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := findField(e.Field, &t.Desc)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

// ConstExpr evaluates to a fixed DBValue regardless of the input tuple.
type ConstExpr struct {
	Value DBValue
	Ftype DBType
}

func (e *ConstExpr) GetExprType() FieldType { return FieldType{Ftype: e.Ftype} }

func (e *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return e.Value, nil
}

// formatInt is a small helper used by pretty-printing code.
func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
