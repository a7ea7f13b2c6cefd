package relcore

// PageSize is the fixed size, in bytes, of every page (spec.md §6).
const PageSize = 4096

// heapPage implements Page for pages belonging to a HeapFile: a header
// bitmap (one bit per slot, set iff the slot holds a live tuple) followed by
// a fixed number of fixed-size tuple slots (spec.md §4.1).
type heapPage struct {
	pid         PageID
	desc        *TupleDesc
	file        *HeapFile
	numSlots    int
	header      []byte // ceil(numSlots/8) bytes; bit i of byte b = slot 8b+i
	tuples      []*Tuple
	dirty       bool
	dirtyingTid TransactionID
}

// headerBytes returns the number of bytes needed for numSlots occupancy
// bits.
func headerBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// computeNumSlots returns the largest N such that ceil(N/8) + N*tupleSize <=
// PageSize (spec.md §4.1).
func computeNumSlots(tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	n := 0
	for {
		candidate := n + 1
		if headerBytes(candidate)+candidate*tupleSize > PageSize {
			break
		}
		n = candidate
	}
	return n
}

// newHeapPage constructs a fresh, empty heap page for the given schema, page
// id, and owning file.
func newHeapPage(pid PageID, desc *TupleDesc, f *HeapFile) *heapPage {
	numSlots := computeNumSlots(desc.Size())
	return &heapPage{
		pid:      pid,
		desc:     desc,
		file:     f,
		numSlots: numSlots,
		header:   make([]byte, headerBytes(numSlots)),
		tuples:   make([]*Tuple, numSlots),
	}
}

func (h *heapPage) ID() PageID { return h.pid }

func (h *heapPage) isDirty() (TransactionID, bool) {
	return h.dirtyingTid, h.dirty
}

func (h *heapPage) setDirty(tid TransactionID, dirty bool) {
	h.dirty = dirty
	if dirty {
		h.dirtyingTid = tid
	}
}

func (h *heapPage) getFile() DBFile { return h.file }

func (h *heapPage) slotOccupied(slot int) bool {
	return h.header[slot/8]&(1<<uint(slot%8)) != 0
}

func (h *heapPage) setSlotOccupied(slot int, occupied bool) {
	mask := byte(1 << uint(slot%8))
	if occupied {
		h.header[slot/8] |= mask
	} else {
		h.header[slot/8] &^= mask
	}
}

func (h *heapPage) emptySlotCount() int {
	count := 0
	for i := 0; i < h.numSlots; i++ {
		if !h.slotOccupied(i) {
			count++
		}
	}
	return count
}

// insertTuple places t into the lowest-indexed empty slot, assigning its
// RecordID, or fails with ErrNoSpace / ErrSchemaMismatch.
func (h *heapPage) insertTuple(t *Tuple) (RecordID, error) {
	if !t.Desc.Equals(h.desc) {
		return RecordID{}, ErrSchemaMismatch
	}
	for slot := 0; slot < h.numSlots; slot++ {
		if h.slotOccupied(slot) {
			continue
		}
		rid := RecordID{Page: h.pid, Slot: slot}
		stored := &Tuple{Desc: *h.desc, Fields: t.Fields, Rid: &rid}
		h.tuples[slot] = stored
		h.setSlotOccupied(slot, true)
		t.Rid = &rid
		return rid, nil
	}
	return RecordID{}, ErrNoSpace
}

// deleteTuple clears the slot named by rid, or fails with ErrNotFound.
func (h *heapPage) deleteTuple(rid RecordID) error {
	if rid.Page != h.pid {
		return ErrNotFound
	}
	if rid.Slot < 0 || rid.Slot >= h.numSlots || !h.slotOccupied(rid.Slot) {
		return ErrNotFound
	}
	h.tuples[rid.Slot] = nil
	h.setSlotOccupied(rid.Slot, false)
	return nil
}

// serialize produces a PageSize byte image: header bitmap, then every slot
// (occupied slots hold their tuple's encoding; empty slots are zeroed).
func (h *heapPage) serialize() []byte {
	buf := make([]byte, 0, PageSize)
	buf = append(buf, h.header...)
	tupleSize := h.desc.Size()
	for slot := 0; slot < h.numSlots; slot++ {
		start := len(buf)
		if h.slotOccupied(slot) && h.tuples[slot] != nil {
			buf = h.tuples[slot].writeTo(buf)
		}
		// Pad out to a full slot width regardless (undefined bytes for
		// unoccupied slots, but we zero them for determinism in tests).
		for len(buf) < start+tupleSize {
			buf = append(buf, 0)
		}
	}
	if len(buf) < PageSize {
		buf = append(buf, make([]byte, PageSize-len(buf))...)
	}
	return buf
}

// initHeapPageFromBuffer parses a PageSize byte image into a heapPage,
// decoding the bitmap header and every occupied slot in order.
func initHeapPageFromBuffer(pid PageID, desc *TupleDesc, f *HeapFile, buf []byte) (*heapPage, error) {
	numSlots := computeNumSlots(desc.Size())
	hb := headerBytes(numSlots)
	if len(buf) < hb {
		return nil, newErr(IoError, "short page buffer")
	}
	h := &heapPage{
		pid:      pid,
		desc:     desc,
		file:     f,
		numSlots: numSlots,
		header:   append([]byte(nil), buf[:hb]...),
		tuples:   make([]*Tuple, numSlots),
	}
	tupleSize := desc.Size()
	off := hb
	for slot := 0; slot < numSlots; slot++ {
		if h.slotOccupied(slot) {
			tup, _, err := readTupleFrom(buf, off, desc)
			if err != nil {
				return nil, err
			}
			rid := RecordID{Page: pid, Slot: slot}
			tup.Rid = &rid
			h.tuples[slot] = tup
		}
		off += tupleSize
	}
	return h, nil
}

// tupleIter returns a lazy, non-restartable iterator over h's live tuples in
// slot order (spec.md §4.1).
func (h *heapPage) tupleIter() func() (*Tuple, error) {
	slot := 0
	return func() (*Tuple, error) {
		for slot < h.numSlots {
			cur := slot
			slot++
			if h.tuples[cur] != nil {
				return h.tuples[cur], nil
			}
		}
		return nil, nil
	}
}
