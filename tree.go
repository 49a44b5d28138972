package voxelis

// VoxTree is a thin owner of one root BlockId and a depth: depth d means
// the root covers a 2^d x 2^d x 2^d cube. All mutation routes through a
// NodeStore and performs copy-on-write along the path from root.
//
// VoxTree is not safe for concurrent mutation; concurrent Get/ToVec
// calls are safe as long as the backing NodeStore has no writer active,
// or the NodeStore was built WithLocking.
type VoxTree[V Voxel] struct {
	root  BlockId
	depth uint8
	air   V
}

// NewVoxTree creates an empty tree of the given depth (covering a
// (2^depth)^3 cube) whose designated "air" value is air. depth must be
// in [1, 8].
func NewVoxTree[V Voxel](depth uint8, air V) *VoxTree[V] {
	if depth < 1 || depth > 8 {
		panic("voxelis: depth must be in [1, 8]")
	}
	return &VoxTree[V]{root: Empty(), depth: depth, air: air}
}

// Depth returns the tree's depth.
func (t *VoxTree[V]) Depth() uint8 { return t.depth }

// side returns the cube's edge length in voxels.
func (t *VoxTree[V]) side() int32 { return int32(1) << t.depth }

// Bounds returns the inclusive-exclusive coordinate range covered by the
// tree: every valid position satisfies min <= pos < max on each axis.
func (t *VoxTree[V]) Bounds() (min, max [3]int32) {
	return [3]int32{0, 0, 0}, [3]int32{t.side(), t.side(), t.side()}
}

// IsEmpty reports whether the tree's root is the canonical empty handle.
func (t *VoxTree[V]) IsEmpty() bool {
	return t.root.IsEmpty()
}

// Fingerprint returns a cheap, content-addressed comparison key: two
// trees of the same depth with equal Fingerprints are guaranteed
// structurally identical, since BlockId equality already implies
// subtree equality — so callers that only need to detect "has this
// chunk changed" don't need to depend on NodeStore internals to do it.
func (t *VoxTree[V]) Fingerprint() uint64 {
	return uint64(t.root) ^ uint64(t.depth)
}

func (t *VoxTree[V]) checkCoord(pos [3]int32) bool {
	side := t.side()
	for _, c := range pos {
		if c < 0 || c >= side {
			return false
		}
	}
	return true
}

func octantIndex(pos [3]int32, level uint8) int {
	x := (pos[0] >> level) & 1
	y := (pos[1] >> level) & 1
	z := (pos[2] >> level) & 1
	return int(z<<2 | y<<1 | x)
}

// Get returns the voxel value at pos, and false if pos denotes air (or
// falls within an empty subtree). Panics if pos is out of range: this is
// a hot read path and treats an out-of-range coordinate as a programming
// error rather than a recoverable condition.
func (t *VoxTree[V]) Get(s *NodeStore, pos [3]int32) (V, bool) {
	if !t.checkCoord(pos) {
		panic("voxelis: coordinate out of range")
	}
	h := t.root
	for level := int(t.depth) - 1; level >= 0; level-- {
		switch h.Kind() {
		case KindEmpty:
			return t.air, false
		case KindLeaf:
			v := DecodeLeaf[V](h)
			return v, v != t.air
		default:
			idx := octantIndex(pos, uint8(level))
			h = s.Child(h, idx)
		}
	}
	switch h.Kind() {
	case KindEmpty:
		return t.air, false
	default:
		v := DecodeLeaf[V](h)
		return v, v != t.air
	}
}

// materializeChildren expands a handle of unknown kind into an 8-wide
// children array suitable for further descent: Empty splits to eight
// Empty, a leaf splits to eight copies of itself (a uniform cell must
// split into eight identical children before any one of them can be
// overwritten individually), and a branch is read as-is.
func materializeChildren(s *NodeStore, h BlockId) [8]BlockId {
	switch h.Kind() {
	case KindEmpty:
		return [8]BlockId{}
	case KindLeaf:
		var children [8]BlockId
		for i := range children {
			children[i] = h
		}
		return children
	default:
		return s.Children(h)
	}
}

// Set writes value at pos, returning ErrInvalidCoordinate if pos is out
// of range or ErrBudgetExceeded if the interner cannot allocate another
// slot (the tree is left unchanged in that case).
func (t *VoxTree[V]) Set(s *NodeStore, pos [3]int32, value V) error {
	if !t.checkCoord(pos) {
		return ErrInvalidCoordinate
	}
	newRoot, err := setRec(s, t.root, pos, int(t.depth)-1, value, t.air)
	if err != nil {
		return err
	}
	old := t.root
	t.root = newRoot
	s.Decref(old)
	return nil
}

// setRec implements the recursive copy-on-write write path: it returns
// a handle that carries one provisional reference the caller must
// resolve. The top-level caller (Set, or a recursive caller
// one level up) resolves it either by assigning it to a root (no further
// action) or, having just embedded it as a child of its own
// GetOrIntern call, by calling s.Decref on it immediately after —
// GetOrIntern's own incref of that same child is what the extra Decref
// cancels, leaving exactly one net reference: the one now held by the
// parent's children array.
func setRec[V Voxel](s *NodeStore, h BlockId, pos [3]int32, level int, value, air V) (BlockId, error) {
	if level < 0 {
		return leafOrAir(value, air), nil
	}

	children := materializeChildren(s, h)
	idx := octantIndex(pos, uint8(level))

	newChild, err := setRec(s, children[idx], pos, level-1, value, air)
	if err != nil {
		return BlockId(0), err
	}
	children[idx] = newChild

	if common, ok := collapsed(children); ok {
		// newChild's provisional reference is now owned by `common`
		// itself (it either *is* newChild, in the leaf case, or was
		// never separately referenced, in the empty case): nothing
		// further to decref here, the caller above resolves `common`.
		return common, nil
	}

	newHandle, err := s.GetOrIntern(children)
	if err != nil {
		// children[idx] == newChild is not yet embedded anywhere;
		// release its provisional reference before surfacing the error.
		s.Decref(newChild)
		return BlockId(0), err
	}
	// newHandle now holds its own reference to newChild (via
	// GetOrIntern's incref of every child on a miss, or implicitly via
	// the existing slot on a hit). newChild's provisional reference from
	// the recursive call is therefore redundant; cancel it.
	s.Decref(newChild)
	return newHandle, nil
}

// Fill replaces every voxel in the tree with value in O(1). It never
// fails (no interner allocation is needed to represent a uniform tree);
// the error return exists to match the rest of the mutating API.
func (t *VoxTree[V]) Fill(s *NodeStore, value V) error {
	newRoot := leafOrAir(value, t.air)
	old := t.root
	t.root = newRoot
	s.Decref(old)
	return nil
}

// Clear empties the tree in O(1) observable time; the underlying
// subgraph is reclaimed wherever refcounts drop to zero.
func (t *VoxTree[V]) Clear(s *NodeStore) {
	old := t.root
	t.root = Empty()
	s.Decref(old)
}
