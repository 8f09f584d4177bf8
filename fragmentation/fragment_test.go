package fragmentation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustAllContiguous(t *testing.T, fragments []fragment, want bool) {
	t.Helper()
	if got := allContiguous(fragments); got != want {
		t.Fatalf("allContiguous(%+v) = %v, want %v", fragments, got, want)
	}
}

func TestInsertFragmentSimple(t *testing.T) {
	var frags []fragment
	frags, removed, inserted := insertFragment(frags, []byte("AAAA"), 0, 4)
	if removed != 0 || inserted != 4 {
		t.Fatalf("first insert: removed=%d inserted=%d, want 0,4", removed, inserted)
	}
	frags, removed, inserted = insertFragment(frags, []byte("BBBB"), 4, 8)
	if removed != 0 || inserted != 4 {
		t.Fatalf("second insert: removed=%d inserted=%d, want 0,4", removed, inserted)
	}
	mustAllContiguous(t, frags, true)

	out := make([]byte, 8)
	if n := compact(frags, out, 8); n != 8 {
		t.Fatalf("compact returned %d, want 8", n)
	}
	if diff := cmp.Diff("AAAABBBB", string(out)); diff != "" {
		t.Errorf("compacted payload mismatch (-want +got):\n%s", diff)
	}
}

// TestInsertFragmentOutOfOrder is scenario S2 from spec.md §8.
func TestInsertFragmentOutOfOrder(t *testing.T) {
	var frags []fragment
	frags, _, _ = insertFragment(frags, []byte("CCCC"), 8, 12)
	frags, _, _ = insertFragment(frags, []byte("AAAA"), 0, 4)
	frags, _, _ = insertFragment(frags, []byte("BBBB"), 4, 8)
	mustAllContiguous(t, frags, true)

	out := make([]byte, 12)
	compact(frags, out, 12)
	if string(out) != "AAAABBBBCCCC" {
		t.Errorf("got %q, want AAAABBBBCCCC", out)
	}
}

// TestInsertFragmentOverlap is scenario S4: earlier bytes win on
// overlap.
func TestInsertFragmentOverlap(t *testing.T) {
	var frags []fragment
	frags, _, _ = insertFragment(frags, []byte("AAAA"), 0, 4)
	frags, removed, inserted := insertFragment(frags, []byte("XXXX"), 2, 6)
	if removed != 0 {
		t.Fatalf("overlap insert removed=%d, want 0 (nothing existed past offset 4 yet)", removed)
	}
	if inserted != 2 {
		t.Fatalf("overlap insert inserted=%d, want 2 (only [4,6) is new)", inserted)
	}
	frags, _, _ = insertFragment(frags, []byte("BB"), 6, 8)

	out := make([]byte, 8)
	compact(frags, out, 8)
	if string(out) != "AAAAXXBB" {
		t.Errorf("got %q, want AAAAXXBB", out)
	}
}

// TestInsertFragmentDuplicate is property 3: feeding a fragment twice
// nets zero change the second time.
func TestInsertFragmentDuplicate(t *testing.T) {
	var frags []fragment
	frags, _, inserted1 := insertFragment(frags, []byte("AAAA"), 0, 4)
	frags, removed2, inserted2 := insertFragment(frags, []byte("AAAA"), 0, 4)
	if inserted1 != 4 {
		t.Fatalf("first insert = %d, want 4", inserted1)
	}
	if inserted2 != 0 || removed2 != 0 {
		t.Fatalf("duplicate insert removed=%d inserted=%d, want 0,0", removed2, inserted2)
	}
	mustAllContiguous(t, frags, true)
}

// TestInsertFragmentContainedFollower: a new fragment that fully
// covers a previously-inserted one removes it.
func TestInsertFragmentContainedFollower(t *testing.T) {
	var frags []fragment
	frags, _, _ = insertFragment(frags, []byte("XX"), 4, 6)
	frags, removed, inserted := insertFragment(frags, []byte("AAAAAA"), 0, 6)
	if removed != 2 {
		t.Fatalf("removed=%d, want 2 (the fully-contained follower)", removed)
	}
	if inserted != 6 {
		t.Fatalf("inserted=%d, want 6", inserted)
	}
	if len(frags) != 1 {
		t.Fatalf("len(frags)=%d, want 1", len(frags))
	}
}

func TestAllContiguousEmptyAndHole(t *testing.T) {
	mustAllContiguous(t, nil, false)

	var frags []fragment
	frags, _, _ = insertFragment(frags, []byte("A"), 0, 1)
	frags, _, _ = insertFragment(frags, []byte("C"), 2, 3)
	mustAllContiguous(t, frags, false)
}

func TestCompactHoleIsProtocolError(t *testing.T) {
	var frags []fragment
	frags, _, _ = insertFragment(frags, []byte("A"), 0, 1)
	frags, _, _ = insertFragment(frags, []byte("C"), 2, 3)
	out := make([]byte, 3)
	if n := compact(frags, out, 3); n != -1 {
		t.Fatalf("compact over a hole returned %d, want -1", n)
	}
}

func TestFragmentNeverRetainsCallerBuffer(t *testing.T) {
	src := []byte("AAAA")
	frags, _, _ := insertFragment(nil, src, 0, 4)
	src[0] = 'Z'
	if diff := cmp.Diff("AAAA", string(frags[0].data), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("fragment data mutated when caller buffer changed (-want +got):\n%s", diff)
	}
}
