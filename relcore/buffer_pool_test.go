package relcore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testBufferPoolFile(t *testing.T, bp *BufferPool) *HeapFile {
	t.Helper()
	desc := &TupleDesc{Fields: []FieldType{{Fname: "n", Ftype: IntType}}}
	path := filepath.Join(t.TempDir(), "nums.dat")
	hf, err := NewHeapFile(path, desc, bp)
	require.NoError(t, err)
	return hf
}

func TestBufferPoolReaderWriterIsolation(t *testing.T) {
	bp := NewBufferPool(50, nil)
	hf := testBufferPoolFile(t, bp)

	writer := NewTID()
	require.NoError(t, bp.BeginTransaction(writer))
	tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{Value: 1}}}
	require.NoError(t, bp.InsertTuple(writer, hf, tup))

	reader := NewTID()
	require.NoError(t, bp.BeginTransaction(reader))
	iter, err := hf.Iterator(reader)
	require.NoError(t, err)

	// The writer holds X on page 0, so the reader's shared lock is not
	// granted: its first fetch blocks until the writer commits, and then
	// sees the committed tuple.
	type fetch struct {
		tup *Tuple
		err error
	}
	done := make(chan fetch, 1)
	go func() {
		got, err := iter()
		done <- fetch{got, err}
	}()

	select {
	case <-done:
		t.Fatal("uncommitted insert must not be visible to a concurrent reader")
	case <-time.After(50 * time.Millisecond):
	}

	bp.CommitTransaction(writer)
	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.tup)
	require.Equal(t, int64(1), res.tup.Fields[0].(IntField).Value)
	bp.CommitTransaction(reader)
}

func TestBufferPoolHoldsLock(t *testing.T) {
	bp := NewBufferPool(50, nil)
	hf := testBufferPoolFile(t, bp)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	require.NoError(t, bp.InsertTuple(tid, hf, &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{Value: 1}}}))

	pid := hf.pageKey(0)
	require.True(t, bp.HoldsLock(tid, pid), "inserting tuple should leave tid holding the page's X lock")

	other := NewTID()
	require.NoError(t, bp.BeginTransaction(other))
	require.False(t, bp.HoldsLock(other, pid), "a transaction that never touched pid should not hold its lock")

	bp.CommitTransaction(tid)
	require.False(t, bp.HoldsLock(tid, pid), "committing releases all of tid's locks")
	bp.CommitTransaction(other)
}

func TestBufferPoolNoStealEvictionRefusesDirty(t *testing.T) {
	bp := NewBufferPool(1, nil)
	desc := &TupleDesc{Fields: []FieldType{{Fname: "n", Ftype: IntType}}}

	path1 := filepath.Join(t.TempDir(), "a.dat")
	hf1, err := NewHeapFile(path1, desc, bp)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	// Force the file to grow, installing one dirty page into a pool of
	// capacity 1 — the sole resident page is now dirty.
	require.NoError(t, bp.InsertTuple(tid, hf1, &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}))

	require.Equal(t, 1, len(bp.pages))

	// A second table's page cannot be brought in: the only victim is dirty,
	// and NO-STEAL forbids evicting it.
	path2 := filepath.Join(t.TempDir(), "b.dat")
	hf2, err := NewHeapFile(path2, desc, bp)
	require.NoError(t, err)
	otherTid := NewTID()
	require.NoError(t, bp.BeginTransaction(otherTid))
	err = bp.InsertTuple(otherTid, hf2, &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 2}}})
	require.ErrorIs(t, err, ErrBufferFull)

	bp.AbortTransaction(otherTid)
	bp.CommitTransaction(tid)
}

func TestBufferPoolCommitFlushesDirtyPages(t *testing.T) {
	bp := NewBufferPool(50, nil)
	hf := testBufferPoolFile(t, bp)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	require.NoError(t, bp.InsertTuple(tid, hf, &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{Value: 5}}}))
	bp.CommitTransaction(tid)

	// A brand-new buffer pool, forced to read from disk, should see the
	// committed write.
	bp2 := NewBufferPool(50, nil)
	hf2, err := NewHeapFile(hf.BackingFile(), hf.Descriptor(), bp2)
	require.NoError(t, err)

	readTid := NewTID()
	require.NoError(t, bp2.BeginTransaction(readTid))
	iter, err := hf2.Iterator(readTid)
	require.NoError(t, err)
	got, err := iter()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(5), got.Fields[0].(IntField).Value)
	bp2.CommitTransaction(readTid)
}
