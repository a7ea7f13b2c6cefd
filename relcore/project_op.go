package relcore

// Project narrows each child tuple to selectFields, renamed to outputNames,
// optionally suppressing duplicate result rows (spec.md §4.5, supplemental
// operator).
type Project struct {
	selectFields []Expr
	outputNames  []string
	child        Operator
	distinct     bool
}

// NewProjectOp constructs a projection of child's output onto selectFields,
// renamed outputNames (same length as selectFields).
func NewProjectOp(selectFields []Expr, outputNames []string, distinct bool, child Operator) (Operator, error) {
	if len(selectFields) != len(outputNames) {
		return nil, newErr(IllegalArgumentError, "project: selectFields and outputNames must have the same length")
	}
	return &Project{
		selectFields: selectFields,
		outputNames:  outputNames,
		distinct:     distinct,
		child:        child,
	}, nil
}

func (p *Project) Descriptor() *TupleDesc {
	desc := &TupleDesc{Fields: make([]FieldType, len(p.selectFields))}
	for i, f := range p.selectFields {
		ft := f.GetExprType()
		ft.Fname = p.outputNames[i]
		desc.Fields[i] = ft
	}
	return desc
}

func (p *Project) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := p.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	projDesc := *p.Descriptor()

	var seen map[string]struct{}
	if p.distinct {
		seen = make(map[string]struct{})
	}

	return func() (*Tuple, error) {
		for {
			tuple, err := childIter()
			if err != nil {
				return nil, err
			}
			if tuple == nil {
				return nil, nil
			}

			out := &Tuple{Desc: projDesc, Fields: make([]DBValue, len(p.selectFields))}
			for i, f := range p.selectFields {
				v, err := f.EvalExpr(tuple)
				if err != nil {
					return nil, err
				}
				out.Fields[i] = v
			}

			if p.distinct {
				key := out.tupleKey()
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}

			return out, nil
		}
	}, nil
}
