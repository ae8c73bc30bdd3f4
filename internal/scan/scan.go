// Package scan implements the reference-counted scan snapshot pipeline
// described in spec.md §3 (ScanSnapshot) and §4.3. A Snapshot is
// immutable once published; readers borrow it with Get and must release
// it with Put, so a reader can keep using a snapshot even after a newer
// scan has replaced it in the manager's own slot.
package scan

import (
	"sync/atomic"
	"time"

	"wifimgr/internal/radio"
)

// MaxRecords bounds a snapshot's record count (spec.md §3).
const MaxRecords = 32

// Snapshot is an immutable, reference-counted view of one completed
// scan.
type Snapshot struct {
	Tstamp  time.Time
	Records []radio.ApRecord

	refs atomic.Int32
}

// newSnapshot creates a Snapshot with its reference count initialised to
// 1, representing the reference the Ref slot below will hold.
func newSnapshot(records []radio.ApRecord) *Snapshot {
	s := &Snapshot{
		Tstamp:  time.Now(),
		Records: records,
	}
	s.refs.Store(1)
	return s
}

func (s *Snapshot) retain() {
	s.refs.Add(1)
}

// release decrements the refcount; the snapshot (and its record array)
// is freed for GC exactly when the count reaches zero. Go's GC does the
// actual freeing; release's job is to enforce the discipline that a
// Snapshot is never *used* after its last reference is dropped by a
// caller who forgot to stop reading it, by nil-ing out Records.
func (s *Snapshot) release() {
	if s.refs.Add(-1) == 0 {
		s.Records = nil
	}
}

// Ref holds the manager's own slot reference to the current snapshot
// (spec.md's scan_ref). It is nil when no scan has ever completed.
type Ref struct {
	snap *Snapshot
}

// Publish replaces the current snapshot with one built from records
// (clamped to MaxRecords), releasing the prior reference. Ownership of
// the new snapshot's initial reference moves to the Ref.
func (r *Ref) Publish(records []radio.ApRecord) *Snapshot {
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	next := newSnapshot(records)

	prev := r.snap
	r.snap = next
	if prev != nil {
		prev.release()
	}
	return next
}

// Borrow increments the current snapshot's refcount and returns it, or
// returns nil if no scan has completed yet. The caller must call Put
// exactly once on a non-nil result (spec.md §4.3 get_scan).
func (r *Ref) Borrow() *Snapshot {
	if r.snap == nil {
		return nil
	}
	r.snap.retain()
	return r.snap
}

// Put releases a snapshot obtained from Borrow (spec.md §4.3 put_scan).
func Put(s *Snapshot) {
	if s != nil {
		s.release()
	}
}
