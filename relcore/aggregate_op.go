package relcore

import "strings"

// Aggregate groups its child's tuples by zero or more group-by expressions
// and computes one or more AggState values per group, emitting one result
// tuple per group (or a single tuple, for no group-by) once the child is
// exhausted (spec.md §4.5).
type Aggregate struct {
	child      Operator
	groupBys   []Expr
	newStates  []AggState
	aliases    []string
	descriptor *TupleDesc
}

// NewAggregateOp constructs an aggregate over child. newStates are
// zero-valued (uninitialized) AggState instances, one per output aggregate
// column, in the order aliases/exprs name them; each is Copy()'d per group.
func NewAggregateOp(child Operator, exprs []Expr, aliases []string, newStates []AggState, groupBys []Expr) (*Aggregate, error) {
	for i, st := range newStates {
		if err := st.Init(aliases[i], exprs[i]); err != nil {
			return nil, err
		}
	}
	fields := make([]FieldType, 0, len(groupBys)+len(newStates))
	for _, g := range groupBys {
		fields = append(fields, g.GetExprType())
	}
	for _, st := range newStates {
		fields = append(fields, st.GetTupleDesc().Fields[0])
	}
	return &Aggregate{
		child:      child,
		groupBys:   groupBys,
		newStates:  newStates,
		aliases:    aliases,
		descriptor: &TupleDesc{Fields: fields},
	}, nil
}

func (a *Aggregate) Descriptor() *TupleDesc {
	return a.descriptor
}

type aggGroup struct {
	keyFields []DBValue
	states    []AggState
}

// groupKey builds a string uniquely identifying t's group-by values.
// String fields are length-prefixed rather than delimiter-terminated, so a
// '|' occurring inside a value can never be mistaken for a field boundary
// and cause two distinct groups to collide (the same scheme as
// Tuple.tupleKey).
func (a *Aggregate) groupKey(t *Tuple) (string, []DBValue, error) {
	var sb strings.Builder
	vals := make([]DBValue, len(a.groupBys))
	for i, g := range a.groupBys {
		v, err := g.EvalExpr(t)
		if err != nil {
			return "", nil, err
		}
		vals[i] = v
		switch vv := v.(type) {
		case IntField:
			sb.WriteString("i:")
			sb.WriteString(formatInt(vv.Value))
			sb.WriteByte('|')
		case StringField:
			sb.WriteString("s")
			sb.WriteString(formatInt(int64(len(vv.Value))))
			sb.WriteByte(':')
			sb.WriteString(vv.Value)
		}
	}
	return sb.String(), vals, nil
}

// Iterator is blocking: it consumes the entire child before producing any
// output, since a group's final value isn't known until every tuple that
// might belong to it has been seen.
func (a *Aggregate) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := a.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*aggGroup)
	var order []string

	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		key, keyVals, err := a.groupKey(t)
		if err != nil {
			return nil, err
		}
		g, ok := groups[key]
		if !ok {
			states := make([]AggState, len(a.newStates))
			for i, st := range a.newStates {
				states[i] = st.Copy()
			}
			g = &aggGroup{keyFields: keyVals, states: states}
			groups[key] = g
			order = append(order, key)
		}
		for _, st := range g.states {
			st.AddTuple(t)
		}
	}

	// No group-by and no input rows still yields one row (e.g. COUNT(*) of
	// an empty table is 0, not "no rows").
	if len(order) == 0 && len(a.groupBys) == 0 {
		states := make([]AggState, len(a.newStates))
		for i, st := range a.newStates {
			states[i] = st.Copy()
		}
		groups[""] = &aggGroup{states: states}
		order = append(order, "")
	}

	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(order) {
			return nil, nil
		}
		g := groups[order[idx]]
		idx++

		fields := make([]DBValue, 0, len(g.keyFields)+len(g.states))
		fields = append(fields, g.keyFields...)
		for _, st := range g.states {
			finalized := st.Finalize()
			fields = append(fields, finalized.Fields[0])
		}
		return &Tuple{Desc: *a.descriptor, Fields: fields}, nil
	}, nil
}
