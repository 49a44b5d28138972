package voxelis

import (
	"math/rand/v2"
	"testing"

	"github.com/voxelis-io/voxelis/internal/golden"
)

func TestGetOnEmptyTree(t *testing.T) {
	s := NewNodeStore()
	tr := NewVoxTree[uint16](3, 0)
	if v, ok := tr.Get(s, [3]int32{1, 2, 3}); ok || v != 0 {
		t.Fatalf("Get on empty tree = (%d, %v), want (0, false)", v, ok)
	}
}

func TestFillThenPointOverride(t *testing.T) {
	// A uniform fill followed by a single-voxel override should split
	// only along the path to that voxel, leaving the rest of the tree
	// on the original uniform leaf.
	s := NewNodeStore()
	tr := NewVoxTree[uint16](5, 0)
	if err := tr.Fill(s, 1); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := tr.Set(s, [3]int32{3, 0, 4}, 2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := tr.Get(s, [3]int32{3, 0, 4}); !ok || v != 2 {
		t.Fatalf("Get(3,0,4) = (%d, %v), want (2, true)", v, ok)
	}
	if v, ok := tr.Get(s, [3]int32{0, 0, 0}); !ok || v != 1 {
		t.Fatalf("Get(0,0,0) = (%d, %v), want (1, true)", v, ok)
	}
	if stats := s.MemoryStats(); stats.Used > 5 {
		t.Fatalf("expected at most depth=5 branch slots on the split spine, used=%d", stats.Used)
	}
}

func TestSetRoundTripRestoresOriginal(t *testing.T) {
	// Writing a value, overwriting it, then writing the original value
	// back must reproduce the exact same tree (same fingerprint), since
	// hash-consing makes the result content-addressed rather than
	// path-dependent. A second tree holding the same content keeps the
	// original nodes live: a freed slot is reused under a bumped
	// generation, so a tree whose nodes were all released is rebuilt
	// under different handles.
	s := NewNodeStore()
	tr := NewVoxTree[uint16](4, 0)
	pos := [3]int32{2, 5, 9}

	if err := tr.Set(s, pos, 7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	keep := NewVoxTree[uint16](4, 0)
	if err := keep.Set(s, pos, 7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	before := tr.Fingerprint()

	if err := tr.Set(s, pos, 42); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := tr.Set(s, pos, 7); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if tr.Fingerprint() != before {
		t.Fatalf("double-write restore did not reproduce the original fingerprint")
	}
}

func TestFillCollapsesToLeaf(t *testing.T) {
	// Fill must make every voxel read back as the filled value, and
	// filling with the air value must empty the tree rather than
	// pinning an all-air leaf.
	s := NewNodeStore()
	tr := NewVoxTree[uint16](4, 0)
	if err := tr.Fill(s, 9); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	for _, p := range [][3]int32{{0, 0, 0}, {15, 15, 15}, {4, 2, 9}} {
		if v, ok := tr.Get(s, p); !ok || v != 9 {
			t.Fatalf("Get(%v) = (%d, %v), want (9, true)", p, v, ok)
		}
	}

	if err := tr.Fill(s, 0); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if !tr.IsEmpty() {
		t.Fatalf("Fill with air value must empty the tree")
	}
}

func TestClearReclaimsPool(t *testing.T) {
	// Clearing a tree after a batch of random writes must release every
	// branch slot those writes allocated, returning pool usage to
	// exactly its pre-insertion level.
	s := NewNodeStore()
	tr := NewVoxTree[uint16](4, 0)
	before := s.MemoryStats().Used

	prng := rand.New(rand.NewPCG(1, 1))
	for _, p := range golden.RandomPositions(prng, 16, 64) {
		if err := tr.Set(s, p, 5); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	tr.Clear(s)
	if !tr.IsEmpty() {
		t.Fatalf("Clear must empty the tree")
	}
	if after := s.MemoryStats().Used; after != before {
		t.Fatalf("pool usage after Clear = %d, want %d (pre-insertion level)", after, before)
	}
}

func TestDAGSharingAcrossTrees(t *testing.T) {
	// Two independently-built trees filled with the same uniform value
	// must converge on the same fingerprint and consume no branch slots,
	// since a uniform tree collapses straight to a leaf.
	s := NewNodeStore()
	a := NewVoxTree[uint16](5, 0)
	b := NewVoxTree[uint16](5, 0)

	if err := a.Fill(s, 1); err != nil {
		t.Fatalf("Fill a: %v", err)
	}
	if err := b.Fill(s, 1); err != nil {
		t.Fatalf("Fill b: %v", err)
	}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("two independent trees filled identically must produce equal fingerprints")
	}
	if stats := s.MemoryStats(); stats.Used != 0 {
		t.Fatalf("filling to a uniform leaf must not consume a branch slot, used=%d", stats.Used)
	}
}

func TestEightIdenticalChildrenCollapseToLeaf(t *testing.T) {
	// Writing the same value to all eight octants of a branch one at a
	// time must still collapse to a leaf once the last octant is
	// written. Only the root keeps a branch slot (the collapsed leaf plus
	// seven empty octants); the cell itself consumes none.
	s := NewNodeStore()
	tr := NewVoxTree[uint16](2, 0) // 4^3 cube; the aligned 2x2x2 cell is the root's octant 0
	for z := int32(0); z < 2; z++ {
		for y := int32(0); y < 2; y++ {
			for x := int32(0); x < 2; x++ {
				if err := tr.Set(s, [3]int32{x, y, z}, 3); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
		}
	}
	if stats := s.MemoryStats(); stats.Used != 1 {
		t.Fatalf("eight identical leaf children must collapse, only the root branch slot expected, used=%d", stats.Used)
	}
}

func TestInvalidCoordinate(t *testing.T) {
	s := NewNodeStore()
	tr := NewVoxTree[uint16](3, 0)
	if err := tr.Set(s, [3]int32{8, 0, 0}, 1); err != ErrInvalidCoordinate {
		t.Fatalf("Set out of range = %v, want ErrInvalidCoordinate", err)
	}
}

func TestGetOutOfRangePanics(t *testing.T) {
	s := NewNodeStore()
	tr := NewVoxTree[uint16](3, 0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Get to panic on out-of-range coordinate")
		}
	}()
	tr.Get(s, [3]int32{-1, 0, 0})
}

func TestSetAgainstGoldenModel(t *testing.T) {
	// Cross-check: drive both the DAG tree and a dense reference model
	// through the same random writes and compare every Get result.
	const depth = 4
	const side = int32(1) << depth

	s := NewNodeStore()
	tr := NewVoxTree[uint16](depth, 0)
	model := golden.NewDenseModel(side, 0)

	prng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 500; i++ {
		pos := golden.RandomPos(prng, side)
		val := uint16(golden.RandomValue(prng, 10))
		if err := tr.Set(s, pos, val); err != nil {
			t.Fatalf("Set: %v", err)
		}
		model.Set(pos, uint32(val))
	}

	for y := int32(0); y < side; y++ {
		for z := int32(0); z < side; z++ {
			for x := int32(0); x < side; x++ {
				pos := [3]int32{x, y, z}
				got, gotOk := tr.Get(s, pos)
				want, wantOk := model.Get(pos)
				if gotOk != wantOk || uint32(got) != want {
					t.Fatalf("Get(%v) = (%d, %v), want (%d, %v)", pos, got, gotOk, want, wantOk)
				}
			}
		}
	}
}
