package voxelis

// ToVec emits a dense linearized view of the tree at resolution
// depth-lod, in x-fastest, then z, then y order. lod must be in
// [0, depth]; lod=0 yields every voxel, lod=depth yields a single
// representative value for the whole tree.
func (t *VoxTree[V]) ToVec(s *NodeStore, lod uint8) []V {
	if lod > t.depth {
		panic("voxelis: lod exceeds tree depth")
	}
	n := int32(1) << (t.depth - lod)
	out := make([]V, 0, n*n*n)
	for y := int32(0); y < n; y++ {
		for z := int32(0); z < n; z++ {
			for x := int32(0); x < n; x++ {
				out = append(out, sampleAt(s, t.root, int(t.depth), lod, [3]int32{x, y, z}, t.air))
			}
		}
	}
	return out
}

// LODCell pairs a linearized LOD value with its (x, y, z) coordinate at
// the projected resolution, for callers that need to know which cube a
// value came from (e.g. texture/atlas packing) rather than relying on
// ToVec's implicit ordering.
type LODCell[V Voxel] struct {
	Pos   [3]int32
	Value V
}

// ToVecIndexed is ToVec paired with each cell's coordinate at the
// projected resolution.
func (t *VoxTree[V]) ToVecIndexed(s *NodeStore, lod uint8) []LODCell[V] {
	if lod > t.depth {
		panic("voxelis: lod exceeds tree depth")
	}
	n := int32(1) << (t.depth - lod)
	out := make([]LODCell[V], 0, n*n*n)
	for y := int32(0); y < n; y++ {
		for z := int32(0); z < n; z++ {
			for x := int32(0); x < n; x++ {
				pos := [3]int32{x, y, z}
				out = append(out, LODCell[V]{
					Pos:   pos,
					Value: sampleAt(s, t.root, int(t.depth), lod, pos, t.air),
				})
			}
		}
	}
	return out
}

// sampleAt walks from the root down to the branch level corresponding to
// LOD resolution `lod`, following pos (expressed in LOD-resolution
// coordinates — pos<<lod is the full-resolution origin of the sampled
// cell). It short-circuits as soon as it hits Empty or a leaf, since
// either denotes a uniform subtree regardless of remaining depth; once
// it reaches the LOD boundary (or runs out of tree first), it hands off
// to representative to pick the dominant value of whatever is left
// below, per the fixed-octant-order rule.
func sampleAt[V Voxel](s *NodeStore, h BlockId, depth int, lod uint8, pos [3]int32, air V) V {
	levelsToDescend := depth - int(lod)
	for step := 0; step < levelsToDescend; step++ {
		switch h.Kind() {
		case KindEmpty:
			return air
		case KindLeaf:
			return DecodeLeaf[V](h)
		default:
			bit := uint8(levelsToDescend - 1 - step)
			idx := octantIndex(pos, bit)
			h = s.Children(h)[idx]
		}
	}
	return representative(s, h, int(lod), air)
}

// representative implements the dominant-value rule used to pick one
// value for a subtree that spans more than one voxel at the projected
// resolution: Empty yields air, a leaf yields its value unconditionally
// (a leaf at any level denotes a uniform subtree), and a branch recurses
// into the first non-empty child in a fixed octant order, descending
// `levels` further branch levels below h.
func representative[V Voxel](s *NodeStore, h BlockId, levels int, air V) V {
	switch h.Kind() {
	case KindEmpty:
		return air
	case KindLeaf:
		return DecodeLeaf[V](h)
	}
	if levels == 0 {
		// A branch handle can't appear at lod==0 in a well-formed tree
		// (h then stands for a single voxel, and writes only ever put a
		// leaf or Empty at that level), but guard defensively rather
		// than index out of bounds on a malformed one.
		return air
	}
	for _, c := range s.Children(h) {
		if v := representative(s, c, levels-1, air); v != air {
			return v
		}
	}
	return air
}
