package relcore

import "sync/atomic"

// TransactionID is a monotonically increasing integer, unique per process,
// identifying one in-flight transaction (spec.md §3).
type TransactionID int64

var nextTID int64

// NewTID allocates a fresh, process-wide unique TransactionID.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&nextTID, 1))
}

// Transaction is a thin handle around a TransactionID for callers that
// prefer an object to a bare integer. The lock manager tracks each
// transaction's consecutive-wait count itself, keyed by TransactionID
// (spec.md §4.3); Transaction carries no additional state.
type Transaction struct {
	ID TransactionID
}

// NewTransaction wraps a freshly allocated TransactionID. It registers
// nothing with a BufferPool or LockManager.
func NewTransaction() *Transaction {
	return &Transaction{ID: NewTID()}
}
