package relcore

// AggState accumulates one aggregate function's running value across a
// group of tuples (spec.md §4.5).
type AggState interface {
	// Init prepares the state. alias names the output field; expr extracts
	// the value to aggregate from each input tuple.
	Init(alias string, expr Expr) error
	// Copy returns an independent state with the same alias/expr, zeroed.
	Copy() AggState
	AddTuple(*Tuple)
	Finalize() *Tuple
	GetTupleDesc() *TupleDesc
}

// CountAggState implements COUNT.
type CountAggState struct {
	alias string
	expr  Expr
	count int64
}

func (a *CountAggState) Copy() AggState { return &CountAggState{alias: a.alias, expr: a.expr} }

func (a *CountAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.count = alias, expr, 0
	return nil
}

func (a *CountAggState) AddTuple(t *Tuple) { a.count++ }

func (a *CountAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *CountAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: a.count}}}
}

// SumAggState implements SUM over an integer expression.
type SumAggState struct {
	alias string
	expr  Expr
	sum   int64
}

func (a *SumAggState) Copy() AggState { return &SumAggState{alias: a.alias, expr: a.expr} }

func (a *SumAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum = alias, expr, 0
	return nil
}

func (a *SumAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
	}
}

func (a *SumAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *SumAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: a.sum}}}
}

// AvgAggState implements AVG over an integer expression, truncating toward
// zero at Finalize. The sum and count accumulate independently across
// AddTuple calls; the division happens exactly once, at the end.
type AvgAggState struct {
	alias string
	expr  Expr
	sum   int64
	count int64
}

func (a *AvgAggState) Copy() AggState { return &AvgAggState{alias: a.alias, expr: a.expr} }

func (a *AvgAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.sum, a.count = alias, expr, 0, 0
	return nil
}

func (a *AvgAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
		a.count++
	}
}

func (a *AvgAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *AvgAggState) Finalize() *Tuple {
	var avg int64
	if a.count > 0 {
		avg = a.sum / a.count
	}
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: avg}}}
}

// MaxAggState implements MAX over any ordered field.
type MaxAggState struct {
	alias   string
	expr    Expr
	maximum DBValue
}

func (a *MaxAggState) Copy() AggState { return &MaxAggState{alias: a.alias, expr: a.expr} }

func (a *MaxAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.maximum = alias, expr, nil
	return nil
}

func (a *MaxAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.maximum == nil || v.EvalPred(a.maximum, OpGt) {
		a.maximum = v
	}
}

func (a *MaxAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}

func (a *MaxAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.maximum}}
}

// MinAggState implements MIN over any ordered field.
type MinAggState struct {
	alias   string
	expr    Expr
	minimum DBValue
}

func (a *MinAggState) Copy() AggState { return &MinAggState{alias: a.alias, expr: a.expr} }

func (a *MinAggState) Init(alias string, expr Expr) error {
	a.alias, a.expr, a.minimum = alias, expr, nil
	return nil
}

func (a *MinAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.minimum == nil || v.EvalPred(a.minimum, OpLt) {
		a.minimum = v
	}
}

func (a *MinAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.expr.GetExprType().Ftype}}}
}

func (a *MinAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.minimum}}
}
