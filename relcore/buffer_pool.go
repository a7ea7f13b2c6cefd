package relcore

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// RWPerm is the access mode a caller requests a page in: ReadPerm maps to a
// shared lock, WritePerm to an exclusive one (spec.md §4.2).
type RWPerm int

const (
	ReadPerm RWPerm = iota
	WritePerm
)

// BufferPool caches a bounded number of resident pages across every table,
// enforces strict two-phase locking through its LockManager, and holds the
// NO-STEAL/FORCE line: dirty pages are never evicted, and every dirty page a
// transaction touches is written back at commit (spec.md §4.2).
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	pages    map[PageID]Page
	lockMgr  *LockManager
	active   map[TransactionID]struct{}
	log      *zap.Logger
}

// NewBufferPool constructs a pool holding at most capacity pages. A nil
// logger is replaced with a no-op logger.
func NewBufferPool(capacity int, log *zap.Logger) *BufferPool {
	log = loggerOrNop(log)
	return &BufferPool{
		capacity: capacity,
		pages:    make(map[PageID]Page),
		lockMgr:  NewLockManager(log),
		active:   make(map[TransactionID]struct{}),
		log:      log,
	}
}

// BeginTransaction records tid in the pool's set of active transactions;
// CommitTransaction and AbortTransaction remove it. Locking, page access,
// commit and abort do not consult this set, so they work for a tid that
// was never registered (spec.md §4.2).
func (bp *BufferPool) BeginTransaction(tid TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.active[tid] = struct{}{}
	return nil
}

// GetPage fetches pid := file.pageKey(pageNo) into the pool under the
// requested lock mode, acquiring the lock first (blocking, and potentially
// failing with TransactionAborted on deadlock), then returning the resident
// page, reading it from file and evicting a victim if the pool is full and
// the page isn't already resident (spec.md §4.2, §4.4).
func (bp *BufferPool) GetPage(tid TransactionID, file DBFile, pageNo int, perm RWPerm) (Page, error) {
	pid := file.pageKey(pageNo)
	mode := Shared
	if perm == WritePerm {
		mode = Exclusive
	}
	if err := bp.lockMgr.Acquire(tid, pid, mode); err != nil {
		return nil, wrapErr(TransactionAbortedError, "get_page: lock acquisition aborted", err)
	}

	bp.mu.Lock()
	if p, ok := bp.pages[pid]; ok {
		bp.mu.Unlock()
		return p, nil
	}
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			bp.mu.Unlock()
			return nil, err
		}
	}
	bp.mu.Unlock()

	p, err := file.readPage(pageNo)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if existing, ok := bp.pages[pid]; ok {
		return existing, nil
	}
	bp.pages[pid] = p
	return p, nil
}

// installNewPage registers a freshly allocated page (one the caller has
// already appended to the backing file) as resident, evicting a victim
// first if the pool is full. Used by HeapFile's grow path, which already
// holds the new page's only reference and needs it promoted into the pool
// precisely the way the teacher's HeapFile reaches directly into the pool's
// page map (spec.md §4.4).
func (bp *BufferPool) installNewPage(file DBFile, pageNo int, p Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	pid := file.pageKey(pageNo)
	if _, ok := bp.pages[pid]; ok {
		return nil
	}
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return err
		}
	}
	bp.pages[pid] = p
	return nil
}

// evictLocked picks a random resident page and evicts it if clean. If the
// random pick is dirty, it linearly scans for any clean page to evict
// instead (NO-STEAL forbids ever evicting a dirty page). Fails with
// ErrBufferFull if every resident page is dirty (spec.md §4.2).
func (bp *BufferPool) evictLocked() error {
	if len(bp.pages) == 0 {
		return nil
	}
	keys := make([]PageID, 0, len(bp.pages))
	for k := range bp.pages {
		keys = append(keys, k)
	}
	victim := keys[rand.Intn(len(keys))]
	if _, dirty := bp.pages[victim].isDirty(); dirty {
		found := false
		for _, k := range keys {
			if _, d := bp.pages[k].isDirty(); !d {
				victim = k
				found = true
				break
			}
		}
		if !found {
			return ErrBufferFull
		}
	}
	delete(bp.pages, victim)
	return nil
}

// ReleasePage drops tid's lock on pid without waiting for commit. A
// hazardous escape hatch from strict 2PL: only HeapFile's insert probe uses
// it, to release a page it locked only to discover it had no free slot
// (spec.md §4.4, DESIGN.md Open Question).
func (bp *BufferPool) ReleasePage(tid TransactionID, pid PageID) {
	bp.lockMgr.Release(tid, pid)
}

// HoldsLock reports whether tid currently holds a lock (S or X) on pid.
func (bp *BufferPool) HoldsLock(tid TransactionID, pid PageID) bool {
	return bp.lockMgr.Holds(tid, pid)
}

// InsertTuple delegates to file's own insert algorithm, then marks every
// page it touched dirty under tid (spec.md §4.2).
func (bp *BufferPool) InsertTuple(tid TransactionID, file DBFile, t *Tuple) error {
	pages, err := file.insertTuple(t, tid)
	if err != nil {
		return err
	}
	for _, p := range pages {
		p.setDirty(tid, true)
	}
	return nil
}

// DeleteTuple delegates to file's own delete algorithm, then marks every
// page it touched dirty under tid (spec.md §4.2).
func (bp *BufferPool) DeleteTuple(tid TransactionID, file DBFile, t *Tuple) error {
	pages, err := file.deleteTuple(t, tid)
	if err != nil {
		return err
	}
	for _, p := range pages {
		p.setDirty(tid, true)
	}
	return nil
}

// CommitTransaction flushes every page tid left dirty, then releases all of
// tid's locks: FORCE-at-commit (spec.md §4.2, §5).
func (bp *BufferPool) CommitTransaction(tid TransactionID) {
	bp.mu.Lock()
	for _, p := range bp.pages {
		dirtyingTid, dirty := p.isDirty()
		if dirty && dirtyingTid == tid {
			if err := p.getFile().flushPage(p); err != nil {
				bp.log.Error("commit flush failed", zap.Error(err), zap.Int64("tid", int64(tid)))
			}
		}
	}
	delete(bp.active, tid)
	bp.mu.Unlock()

	bp.lockMgr.ReleaseAll(tid)
}

// AbortTransaction discards every page tid left dirty (they are never
// written back, so the backing file is untouched by tid's work: NO-STEAL
// makes this sufficient without an undo log), then releases all of tid's
// locks (spec.md §4.2, §5).
func (bp *BufferPool) AbortTransaction(tid TransactionID) {
	bp.mu.Lock()
	for pid, p := range bp.pages {
		dirtyingTid, dirty := p.isDirty()
		if dirty && dirtyingTid == tid {
			delete(bp.pages, pid)
		}
	}
	delete(bp.active, tid)
	bp.mu.Unlock()

	bp.lockMgr.ReleaseAll(tid)
}

// FlushAllPages writes back every dirty resident page, regardless of owning
// transaction. Administrative only: never called mid-transaction, since
// that would violate NO-STEAL/FORCE by writing uncommitted data (spec.md
// §4.2 Open Question).
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range bp.pages {
		if _, dirty := p.isDirty(); dirty {
			if err := p.getFile().flushPage(p); err != nil {
				return err
			}
		}
	}
	return nil
}
