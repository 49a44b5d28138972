/*
Copyright 2014 Will Fitzgerald. All rights reserved.
Use of this source code is governed by a BSD-style
license that can be found in the LICENSE file.
*/

// Package bitset implements a growable bitset, a mapping between
// non-negative integers and boolean values.
//
// This is a simplified and stripped down version of:
//
//	github.com/bits-and-blooms/bitset
//
// All bugs belong to us. Voxelis uses it as the NodeStore's occupied-slot
// map: a slot index is a set bit, a free one is cleared. The store tests
// it to reject handles to freed slots and iterates it with All; free
// slots themselves are handed out from the store's free-list.
package bitset

import (
	"math/bits"
)

const wordSize = 64
const log2WordSize = 6

// A BitSet is a slice of words.
type BitSet []uint64

func (b *BitSet) extendSet(i uint) {
	nsize := wordsNeeded(i)
	if b == nil {
		*b = make([]uint64, nsize)
	} else if len(*b) < nsize {
		newset := make([]uint64, nsize)
		copy(newset, *b)
		*b = newset
	}
}

func (b BitSet) bitsCapacity() uint {
	return uint(len(b) * 64)
}

func wordsNeeded(i uint) int {
	return int(i+wordSize) >> log2WordSize
}

func bitsIndex(i uint) uint {
	return i & (wordSize - 1) // (i % 64) but faster
}

// Test whether bit i is set.
func (b BitSet) Test(i uint) bool {
	if i >= b.bitsCapacity() {
		return false
	}
	return b[i>>log2WordSize]&(1<<bitsIndex(i)) != 0
}

// Set bit i to 1, growing the set if necessary.
func (b *BitSet) Set(i uint) {
	if i >= b.bitsCapacity() {
		b.extendSet(i)
	}
	(*b)[i>>log2WordSize] |= 1 << bitsIndex(i)
}

// Clear bit i to 0.
func (b *BitSet) Clear(i uint) {
	if i >= b.bitsCapacity() {
		return
	}
	(*b)[i>>log2WordSize] &^= 1 << bitsIndex(i)
}

// Count returns the number of set bits (population count).
func (b BitSet) Count() int {
	return popcntSlice(b)
}

// NextSet returns the next set bit from index i onward, including i itself.
func (b BitSet) NextSet(i uint) (uint, bool) {
	x := int(i >> log2WordSize)
	if x >= len(b) {
		return 0, false
	}
	word := b[x] >> bitsIndex(i)
	if word != 0 {
		return i + uint(bits.TrailingZeros64(word)), true
	}
	x++
	for x < len(b) {
		if b[x] != 0 {
			return uint(x*wordSize + bits.TrailingZeros64(b[x])), true
		}
		x++
	}
	return 0, false
}

func popcntSlice(s []uint64) int {
	var cnt int
	for _, x := range s {
		cnt += bits.OnesCount64(x)
	}
	return cnt
}
