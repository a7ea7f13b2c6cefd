package relcore

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// LockMode is the mode (shared/exclusive) a page lock is requested or held
// in (spec.md §3, §4.3).
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

// LockWait is the interval a blocked lock request sleeps between grant
// attempts (spec.md §4.3, ≈10ms).
const LockWait = 10 * time.Millisecond

// DeadlockThreshold is the number of consecutive failed grant attempts (each
// separated by LockWait) after which a waiting transaction is aborted
// (spec.md §4.3: "≥100, corresponding to roughly 1s of futile retry").
const DeadlockThreshold = 100

// pageLockState is the grant state for one page: the set of transactions
// holding S, and the (at most one) transaction holding X.
type pageLockState struct {
	shared    map[TransactionID]struct{}
	exclusive TransactionID // zero value (0) means "no holder"
}

// LockManager grants, denies, and blocks on page-level S/X locks under
// strict two-phase locking. Deadlocks are resolved not by a waits-for
// graph but by a per-transaction consecutive-wait counter: a pragmatic
// choice the spec prefers because it is deterministic in failure diagnosis
// and free of false-negative livelock, at the cost of occasionally aborting
// a transaction that wasn't really deadlocked (spec.md §4.3 Rationale).
type LockManager struct {
	mu         sync.Mutex
	locks      map[PageID]*pageLockState
	held       map[TransactionID]map[PageID]struct{} // pages tid holds any lock on
	waits      map[TransactionID]int                 // consecutive failed grant attempts
	log        *zap.Logger
}

// NewLockManager constructs an empty lock table. A nil logger is replaced
// with a no-op logger.
func NewLockManager(log *zap.Logger) *LockManager {
	return &LockManager{
		locks: make(map[PageID]*pageLockState),
		held:  make(map[TransactionID]map[PageID]struct{}),
		waits: make(map[TransactionID]int),
		log:   loggerOrNop(log),
	}
}

func (lm *LockManager) stateFor(pid PageID) *pageLockState {
	st, ok := lm.locks[pid]
	if !ok {
		st = &pageLockState{shared: make(map[TransactionID]struct{})}
		lm.locks[pid] = st
	}
	return st
}

// tryGrant attempts to grant (tid, pid, mode) against the current lock
// table, per spec.md §4.3's grant rules. Must be called with lm.mu held. On
// success, the grant is recorded before returning.
func (lm *LockManager) tryGrant(tid TransactionID, pid PageID, mode LockMode) bool {
	st := lm.stateFor(pid)

	switch mode {
	case Shared:
		// Grant iff no other transaction holds X. A transaction already
		// holding X may request S trivially.
		if st.exclusive != 0 && st.exclusive != tid {
			return false
		}
		st.shared[tid] = struct{}{}

	case Exclusive:
		// Grant iff no other transaction holds S or X. An S->X upgrade is
		// granted iff tid is the sole S holder.
		if st.exclusive != 0 && st.exclusive != tid {
			return false
		}
		for other := range st.shared {
			if other != tid {
				return false
			}
		}
		delete(st.shared, tid)
		st.exclusive = tid
	}

	if lm.held[tid] == nil {
		lm.held[tid] = make(map[PageID]struct{})
	}
	lm.held[tid][pid] = struct{}{}
	return true
}

// Acquire blocks the calling goroutine until (tid, pid, mode) is granted,
// retrying every LockWait. If the transaction's consecutive-wait counter
// crosses DeadlockThreshold, the attempt is abandoned and ErrDeadlock is
// returned; the counter resets to zero on every successful grant
// (spec.md §4.3).
func (lm *LockManager) Acquire(tid TransactionID, pid PageID, mode LockMode) error {
	for {
		lm.mu.Lock()
		if lm.tryGrant(tid, pid, mode) {
			lm.waits[tid] = 0
			lm.mu.Unlock()
			return nil
		}
		lm.mu.Unlock()

		time.Sleep(LockWait)

		lm.mu.Lock()
		lm.waits[tid]++
		n := lm.waits[tid]
		lm.mu.Unlock()

		if n >= DeadlockThreshold {
			lm.log.Warn("lock wait exceeded deadlock threshold, aborting",
				zap.Int64("tid", int64(tid)), zap.Int32("table_id", pid.TableID), zap.Int32("page_no", pid.PageNo))
			lm.mu.Lock()
			delete(lm.waits, tid)
			lm.mu.Unlock()
			return wrapErr(DeadlockError, "lock wait exceeded retry threshold", nil)
		}
	}
}

// Release drops tid's lock on pid, in whatever mode it was held (spec.md
// §4.3). A no-op if tid held no lock on pid.
func (lm *LockManager) Release(tid TransactionID, pid PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
}

func (lm *LockManager) releaseLocked(tid TransactionID, pid PageID) {
	if st, ok := lm.locks[pid]; ok {
		delete(st.shared, tid)
		if st.exclusive == tid {
			st.exclusive = 0
		}
		if len(st.shared) == 0 && st.exclusive == 0 {
			delete(lm.locks, pid)
		}
	}
	if pages, ok := lm.held[tid]; ok {
		delete(pages, pid)
		if len(pages) == 0 {
			delete(lm.held, tid)
		}
	}
}

// ReleaseAll drops every lock tid holds, across every page (spec.md §4.3,
// called by BufferPool.transaction_complete).
func (lm *LockManager) ReleaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid := range lm.held[tid] {
		lm.releaseLocked(tid, pid)
	}
	delete(lm.held, tid)
	delete(lm.waits, tid)
}

// Holds reports whether tid currently holds any lock (S or X) on pid.
func (lm *LockManager) Holds(tid TransactionID, pid PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	_, ok := lm.held[tid][pid]
	return ok
}
