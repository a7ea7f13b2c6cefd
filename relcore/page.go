package relcore

// DBFile is the capability set a table's on-disk storage must provide: page
// I/O, tuple insert/delete, and a transaction-scoped sequential iterator
// (spec.md §9 "replace polymorphic file hierarchies with a capability set").
type DBFile interface {
	ID() int32
	Descriptor() *TupleDesc
	NumPages() int
	readPage(pageNo int) (Page, error)
	flushPage(p Page) error
	insertTuple(t *Tuple, tid TransactionID) ([]Page, error)
	deleteTuple(t *Tuple, tid TransactionID) ([]Page, error)
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
	pageKey(pageNo int) PageID
}

// Page is the capability set the buffer pool needs from any resident page:
// dirty-tracking and a serialized byte image. HeapPage is the only concrete
// variant this core implements (spec.md §3).
type Page interface {
	ID() PageID
	isDirty() (TransactionID, bool)
	setDirty(tid TransactionID, dirty bool)
	getFile() DBFile
	serialize() []byte
}
