package fragmentation

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestConcurrentCallersKeepAccountingConsistent exercises spec.md §5's
// ordering guarantee the only way it can be tested: many goroutines
// racing on the single mutex, asserting only the invariant the spec
// actually promises (accounting consistency, spec.md §8 property 1),
// never a particular interleaving.
func TestConcurrentCallersKeepAccountingConsistent(t *testing.T) {
	e := newTestEngine(WithTotalMemoryLimit(1 << 20))

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			for i := uint32(0); i < 200; i++ {
				e.ManageFragment(Fragment{
					Src:            Address{15: byte(w)},
					Dst:            testDst,
					Identification: i,
					Unfragmentable: newTestHeader(),
					Fragmentable:   []byte("xyz"),
					Offset:         0,
					MoreFragments:  true,
					CurrentTime:    1,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("errgroup returned an error: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	var sum uint32
	for i := range e.table {
		for s := e.table[i].front(); s != nil; s = s.next {
			sum += s.usedMem
		}
	}
	if sum != e.totalUsedMem {
		t.Fatalf("sum(source_used_mem)=%d != totalUsedMem=%d after concurrent calls", sum, e.totalUsedMem)
	}
}
