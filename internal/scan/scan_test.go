package scan

import (
	"testing"

	"wifimgr/internal/radio"
)

func TestPublishReplacesAndReleasesPrior(t *testing.T) {
	var ref Ref

	snapA := ref.Publish([]radio.ApRecord{{SSID: "a"}, {SSID: "b"}})
	borrowed := ref.Borrow()
	if borrowed != snapA {
		t.Fatalf("borrow did not return the published snapshot")
	}

	snapB := ref.Publish([]radio.ApRecord{{SSID: "c"}})
	if len(snapA.Records) != 2 {
		t.Fatalf("snapshot A mutated/freed while still borrowed")
	}

	Put(borrowed)
	if snapA.Records != nil {
		t.Fatalf("snapshot A should be freed once its sole borrow is released")
	}

	if len(snapB.Records) != 1 {
		t.Fatalf("snapshot B record count = %d, want 1", len(snapB.Records))
	}
}

func TestPublishClampsToMaxRecords(t *testing.T) {
	var ref Ref
	recs := make([]radio.ApRecord, MaxRecords+10)
	snap := ref.Publish(recs)
	if len(snap.Records) != MaxRecords {
		t.Fatalf("record count = %d, want clamp to %d", len(snap.Records), MaxRecords)
	}
}

func TestBorrowOnEmptyRefReturnsNil(t *testing.T) {
	var ref Ref
	if got := ref.Borrow(); got != nil {
		t.Fatalf("borrow on empty ref = %v, want nil", got)
	}
}
