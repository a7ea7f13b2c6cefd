package relcore

// SeqScan reads every tuple of one table, unfiltered, in page order. The
// leaf operator of every plan that touches a table (spec.md §4.5).
type SeqScan struct {
	file  DBFile
	alias string
	desc  *TupleDesc
}

// NewSeqScan constructs a scan of file, labeling its output fields with
// alias as their table qualifier so joins over self-referencing or repeated
// tables can disambiguate columns.
func NewSeqScan(file DBFile, alias string) *SeqScan {
	src := file.Descriptor()
	fields := make([]FieldType, len(src.Fields))
	for i, f := range src.Fields {
		fields[i] = FieldType{Fname: f.Fname, TableQualifier: alias, Ftype: f.Ftype, Width: f.Width}
	}
	return &SeqScan{file: file, alias: alias, desc: &TupleDesc{Fields: fields}}
}

func (s *SeqScan) Descriptor() *TupleDesc { return s.desc }

// Iterator delegates directly to the backing file's own iterator, relabeling
// each tuple's schema with the scan's alias.
func (s *SeqScan) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	fileIter, err := s.file.Iterator(tid)
	if err != nil {
		return nil, err
	}
	return func() (*Tuple, error) {
		t, err := fileIter()
		if err != nil || t == nil {
			return t, err
		}
		clone := *t
		clone.Desc = *s.desc
		return &clone, nil
	}, nil
}
