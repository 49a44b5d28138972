package voxelis

import (
	"math/rand/v2"
	"testing"

	"github.com/voxelis-io/voxelis/internal/golden"
)

func TestToVecLengths(t *testing.T) {
	// ToVec's output length must track the requested LOD: lod=0 is
	// full resolution, lod=depth collapses the whole tree to one cell.
	const depth = 5
	s := NewNodeStore()
	tr := NewVoxTree[uint16](depth, 0)
	if err := tr.Fill(s, 1); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	if got, want := len(tr.ToVec(s, 0)), 32*32*32; got != want {
		t.Fatalf("ToVec(lod=0) len = %d, want %d", got, want)
	}
	if got, want := len(tr.ToVec(s, 5)), 1; got != want {
		t.Fatalf("ToVec(lod=5) len = %d, want %d", got, want)
	}
	if got, want := len(tr.ToVec(s, 1)), 16*16*16; got != want {
		t.Fatalf("ToVec(lod=1) len = %d, want %d", got, want)
	}
}

func TestToVecUniformTree(t *testing.T) {
	const depth = 4
	s := NewNodeStore()
	tr := NewVoxTree[uint16](depth, 0)
	if err := tr.Fill(s, 7); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	for lod := uint8(0); lod <= depth; lod++ {
		for _, v := range tr.ToVec(s, lod) {
			if v != 7 {
				t.Fatalf("ToVec(lod=%d) contains %d, want all 7", lod, v)
			}
		}
	}
}

func TestToVecAgainstGoldenModel(t *testing.T) {
	const depth = 4
	const side = int32(1) << depth

	s := NewNodeStore()
	tr := NewVoxTree[uint16](depth, 0)
	model := golden.NewDenseModel(side, 0)

	prng := rand.New(rand.NewPCG(11, 11))
	for i := 0; i < 300; i++ {
		pos := golden.RandomPos(prng, side)
		val := uint16(golden.RandomValue(prng, 4))
		if err := tr.Set(s, pos, val); err != nil {
			t.Fatalf("Set: %v", err)
		}
		model.Set(pos, uint32(val))
	}

	for lod := uint8(0); lod <= depth; lod++ {
		got := tr.ToVec(s, lod)
		want := model.ToVec(lod)
		if len(got) != len(want) {
			t.Fatalf("lod=%d: len(got)=%d len(want)=%d", lod, len(got), len(want))
		}
		for i := range got {
			if uint32(got[i]) != want[i] {
				t.Fatalf("lod=%d: ToVec[%d] = %d, want %d", lod, i, got[i], want[i])
			}
		}
	}
}

func TestToVecIndexedPairsMatchToVec(t *testing.T) {
	const depth = 3
	s := NewNodeStore()
	tr := NewVoxTree[uint16](depth, 0)
	if err := tr.Set(s, [3]int32{2, 3, 4}, 9); err != nil {
		t.Fatalf("Set: %v", err)
	}

	flat := tr.ToVec(s, 0)
	indexed := tr.ToVecIndexed(s, 0)
	if len(flat) != len(indexed) {
		t.Fatalf("len mismatch: %d vs %d", len(flat), len(indexed))
	}
	for i, cell := range indexed {
		if cell.Value != flat[i] {
			t.Fatalf("ToVecIndexed[%d].Value = %d, ToVec[%d] = %d", i, cell.Value, i, flat[i])
		}
	}
}
