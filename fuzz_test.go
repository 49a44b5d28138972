package voxelis

import (
	"math/rand/v2"
	"testing"

	"github.com/voxelis-io/voxelis/internal/golden"
)

func FuzzSetAgainstDenseModel(f *testing.F) {
	f.Add(uint64(12345), 20)
	f.Add(uint64(67890), 80)
	f.Add(uint64(0), 1)
	f.Add(^uint64(0), 200)

	f.Fuzz(func(t *testing.T, seed uint64, n int) {
		if n < 1 || n > 2000 {
			t.Skip("bounds")
		}

		const depth = 3
		const side = int32(1) << depth

		s := NewNodeStore()
		tr := NewVoxTree[uint16](depth, 0)
		model := golden.NewDenseModel(side, 0)

		prng := rand.New(rand.NewPCG(seed, 7))
		for i := 0; i < n; i++ {
			pos := golden.RandomPos(prng, side)
			val := uint16(golden.RandomValue(prng, 6))
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
	})
}
