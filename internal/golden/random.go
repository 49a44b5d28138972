// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package golden

import (
	"math/rand/v2"
)

// RandomCoord returns a random coordinate in [0, side).
func RandomCoord(prng *rand.Rand, side int32) int32 {
	return prng.Int32N(side)
}

// RandomPos returns a random (x, y, z) position within a side^3 cube.
func RandomPos(prng *rand.Rand, side int32) [3]int32 {
	return [3]int32{
		RandomCoord(prng, side),
		RandomCoord(prng, side),
		RandomCoord(prng, side),
	}
}

// RandomValue returns a random value in [1, maxVal], reserving 0 for air.
func RandomValue(prng *rand.Rand, maxVal uint32) uint32 {
	return 1 + prng.Uint32N(maxVal)
}

// RandomPositions returns n distinct random positions within a side^3 cube.
func RandomPositions(prng *rand.Rand, side int32, n int) [][3]int32 {
	set := make(map[[3]int32]struct{}, n)
	out := make([][3]int32, 0, n)
	for len(out) < n {
		p := RandomPos(prng, side)
		if _, ok := set[p]; ok {
			continue
		}
		set[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
