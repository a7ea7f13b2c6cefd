package relcore

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// HeapFile maps one table to a backing file on disk: an array of heap pages
// indexed by page number (spec.md §4.4).
type HeapFile struct {
	backingFile string
	tableID     int32
	tupleDesc   *TupleDesc
	bufPool     *BufferPool
	growLock    sync.Mutex // guards num-pages growth (spec.md §4.4, §5)
	log         *zap.Logger
}

// NewHeapFile opens (or creates) a heap file backed by path, with the given
// schema, registered against bp. The table id is derived deterministically
// from the backing path, per spec.md §4.4.
func NewHeapFile(path string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, wrapErr(IoError, "open heap file "+path, err)
	}
	f.Close()

	h := fnv.New32a()
	h.Write([]byte(path))

	hf := &HeapFile{
		backingFile: path,
		tableID:     int32(h.Sum32()),
		tupleDesc:   td,
		bufPool:     bp,
		log:         loggerOrNop(bp.log),
	}
	return hf, nil
}

// ID returns this file's stable table id (spec.md §4.4).
func (f *HeapFile) ID() int32 { return f.tableID }

// Descriptor returns the schema all tuples in this file share.
func (f *HeapFile) Descriptor() *TupleDesc { return f.tupleDesc }

// BackingFile returns the path of the file backing this table.
func (f *HeapFile) BackingFile() string { return f.backingFile }

// NumPages returns the number of pages currently in the file: floor(size /
// PageSize) (spec.md §4.4).
func (f *HeapFile) NumPages() int {
	info, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(info.Size() / PageSize)
}

func (f *HeapFile) pageKey(pageNo int) PageID {
	return PageID{TableID: f.tableID, PageNo: int32(pageNo)}
}

// readPage seeks to pageNo's offset and reads exactly PageSize bytes,
// constructing a heapPage (spec.md §4.4).
func (f *HeapFile) readPage(pageNo int) (Page, error) {
	if pageNo < 0 || pageNo >= f.NumPages() {
		return nil, newErr(DbLogicError, "page out of range")
	}
	file, err := os.OpenFile(f.backingFile, os.O_RDONLY, 0666)
	if err != nil {
		return nil, wrapErr(IoError, "open for read", err)
	}
	defer file.Close()

	buf := make([]byte, PageSize)
	off := int64(pageNo) * PageSize
	if _, err := file.ReadAt(buf, off); err != nil {
		return nil, wrapErr(IoError, "read page", err)
	}
	return initHeapPageFromBuffer(f.pageKey(pageNo), f.tupleDesc, f, buf)
}

// flushPage writes p's current serialized contents back to its slot in the
// backing file and clears its dirty flag. Called by the buffer pool on
// commit, and administratively by FlushAllPages. Writes unconditionally;
// the NO-STEAL guarantee lives entirely in eviction policy (spec.md §4.2
// Open Question).
func (f *HeapFile) flushPage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return newErr(DbLogicError, "flushPage: not a heap page")
	}
	file, err := os.OpenFile(f.backingFile, os.O_RDWR, 0666)
	if err != nil {
		return wrapErr(IoError, "open for write", err)
	}
	defer file.Close()

	off := int64(hp.pid.PageNo) * PageSize
	if _, err := file.WriteAt(hp.serialize(), off); err != nil {
		return wrapErr(IoError, "write page", err)
	}
	hp.setDirty(0, false)
	return nil
}

// writeNewPage appends a brand-new page to the end of the file, extending
// it. Must be called while holding growLock.
func (f *HeapFile) writeNewPage(hp *heapPage) error {
	file, err := os.OpenFile(f.backingFile, os.O_RDWR, 0666)
	if err != nil {
		return wrapErr(IoError, "open for append", err)
	}
	defer file.Close()
	off := int64(hp.pid.PageNo) * PageSize
	if _, err := file.WriteAt(hp.serialize(), off); err != nil {
		return wrapErr(IoError, "write new page", err)
	}
	return nil
}

// insertTuple implements spec.md §4.4's Insert algorithm: probe existing
// pages in X mode for free space (releasing the lock immediately if a page
// turns out full — a deliberate, documented exception to strict 2PL, see
// DESIGN.md "Open Question decisions"), and fall back to allocating a fresh page under the
// file's growth mutex if none had room.
func (f *HeapFile) insertTuple(t *Tuple, tid TransactionID) ([]Page, error) {
	if !t.Desc.Equals(f.tupleDesc) {
		return nil, ErrSchemaMismatch
	}

	numPages := f.NumPages()
	for i := 0; i < numPages; i++ {
		page, err := f.bufPool.GetPage(tid, f, i, WritePerm)
		if err != nil {
			return nil, err
		}
		hp := page.(*heapPage)
		if hp.emptySlotCount() > 0 {
			if _, err := hp.insertTuple(t); err != nil {
				return nil, err
			}
			hp.setDirty(tid, true)
			return []Page{hp}, nil
		}
		// This page had no room; the lock was only needed to learn that,
		// so release it now rather than holding it until commit (spec.md
		// §4.4, "release after probe").
		f.bufPool.ReleasePage(tid, f.pageKey(i))
	}

	f.growLock.Lock()
	defer f.growLock.Unlock()

	// Re-read the page count under the lock: another transaction may have
	// grown the file while we were probing. Pages are not probed again, so
	// a slot freed meanwhile is not reused by this insert. The new page is written to
	// disk empty, before t is inserted into it, so that an abort before
	// commit leaves behind nothing worse than a harmless empty page: the
	// tuple itself only reaches disk through the normal commit-time flush,
	// preserving NO-STEAL even across file growth.
	pageNo := f.NumPages()
	pid := f.pageKey(pageNo)

	// The new page is not resident yet, so no other transaction can be
	// holding a lock on it — but tid must still acquire its X lock before
	// installing the page, the same as the existing-page path does via
	// GetPage, or a concurrent reader's shared lock would be granted
	// against a page nothing ever locked.
	if err := f.bufPool.lockMgr.Acquire(tid, pid, Exclusive); err != nil {
		return nil, wrapErr(TransactionAbortedError, "insert_tuple: lock acquisition aborted", err)
	}

	hp := newHeapPage(pid, f.tupleDesc, f)
	if err := f.writeNewPage(hp); err != nil {
		return nil, err
	}
	if _, err := hp.insertTuple(t); err != nil {
		return nil, err
	}
	hp.setDirty(tid, true)
	f.log.Debug("heap file grew", zap.Int32("table_id", f.tableID), zap.Int("page_no", pageNo))
	if err := f.bufPool.installNewPage(f, pageNo, hp); err != nil {
		return nil, err
	}
	return []Page{hp}, nil
}

// deleteTuple acquires t's page in X mode and deletes it by RecordID
// (spec.md §4.4).
func (f *HeapFile) deleteTuple(t *Tuple, tid TransactionID) ([]Page, error) {
	if t.Rid == nil {
		return nil, newErr(DbLogicError, "tuple has no record id")
	}
	page, err := f.bufPool.GetPage(tid, f, int(t.Rid.Page.PageNo), WritePerm)
	if err != nil {
		return nil, err
	}
	hp := page.(*heapPage)
	if err := hp.deleteTuple(*t.Rid); err != nil {
		return nil, err
	}
	hp.setDirty(tid, true)
	return []Page{hp}, nil
}

// Iterator returns a pull-based function yielding every live tuple in the
// file, page 0..NumPages-1, each page fetched through the buffer pool in
// shared mode (spec.md §4.4).
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	pageNo := 0
	var cur func() (*Tuple, error)

	return func() (*Tuple, error) {
		for {
			if cur == nil {
				if pageNo >= f.NumPages() {
					return nil, nil
				}
				page, err := f.bufPool.GetPage(tid, f, pageNo, ReadPerm)
				if err != nil {
					return nil, err
				}
				cur = page.(*heapPage).tupleIter()
			}
			t, err := cur()
			if err != nil {
				return nil, err
			}
			if t == nil {
				cur = nil
				pageNo++
				continue
			}
			clone := *t
			clone.Desc = *f.tupleDesc
			return &clone, nil
		}
	}, nil
}

// LoadFromCSV bulk-loads path's rows into f, one committed transaction per
// call, skipping a header row if hasHeader. Not part of the core's
// transactional surface; a convenience for populating tables in tests and
// for feeding TableStats (spec.md's distillation doesn't mention this, but
// the teacher's own lab harness relies on it — see SPEC_FULL.md §6).
func (f *HeapFile) LoadFromCSV(file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	scanner := bufio.NewScanner(file)
	lineNo := 0
	tid := NewTID()
	if err := f.bufPool.BeginTransaction(tid); err != nil {
		return err
	}

	for scanner.Scan() {
		lineNo++
		fields := strings.Split(scanner.Text(), sep)
		if skipLastField && len(fields) > 0 {
			fields = fields[:len(fields)-1]
		}
		if lineNo == 1 && hasHeader {
			continue
		}
		if len(fields) != len(f.tupleDesc.Fields) {
			f.bufPool.AbortTransaction(tid)
			return newErr(DbLogicError, fmt.Sprintf("LoadFromCSV: line %d has %d fields, expected %d", lineNo, len(fields), len(f.tupleDesc.Fields)))
		}

		values := make([]DBValue, len(fields))
		for i, raw := range fields {
			switch f.tupleDesc.Fields[i].Ftype {
			case IntType:
				v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
				if err != nil {
					f.bufPool.AbortTransaction(tid)
					return newErr(DbLogicError, fmt.Sprintf("LoadFromCSV: line %d: %q is not an int", lineNo, raw))
				}
				values[i] = IntField{Value: v}
			case StringType:
				width := f.tupleDesc.Fields[i].Width
				if width == 0 {
					width = StringLength
				}
				if len(raw) > width {
					raw = raw[:width]
				}
				values[i] = StringField{Value: raw, Width: width}
			}
		}

		t := &Tuple{Desc: *f.tupleDesc, Fields: values}
		if _, err := f.insertTuple(t, tid); err != nil {
			f.bufPool.AbortTransaction(tid)
			return err
		}
	}
	f.bufPool.CommitTransaction(tid)
	if err := scanner.Err(); err != nil {
		return wrapErr(IoError, "LoadFromCSV: read input", err)
	}
	return nil
}
