package voxelis

// batchKind tags a patch-tree node: Unchanged references a still-
// canonical subtree from the source tree,
// Leaf/Empty are uniform overrides, and Branch is an owned, possibly
// dirty array of eight further patch nodes.
type batchKind uint8

const (
	batchUnchanged batchKind = iota
	batchLeaf
	batchEmpty
	batchBranch
)

type batchNode[V Voxel] struct {
	kind     batchKind
	unchged  BlockId
	value    V
	children *[8]batchNode[V] // non-nil iff kind == batchBranch
}

// Batch is a transient, mutable patch over a VoxTree. Its nodes are
// owned by the batch, not by the interner: branches are plain arrays, so
// repeated writes to the same subtree are array stores, not
// hash-consing. Call ApplyBatch on a VoxTree to commit it.
type Batch[V Voxel] struct {
	root  batchNode[V]
	depth uint8
	air   V
}

// CreateBatch opens a batch over t's current state. The batch's root
// starts as Unchanged(t.root): nothing is materialized until the first
// write touches it.
func (t *VoxTree[V]) CreateBatch() *Batch[V] {
	return &Batch[V]{
		root:  batchNode[V]{kind: batchUnchanged, unchged: t.root},
		depth: t.depth,
		air:   t.air,
	}
}

// Fill replaces the batch root with a uniform value in O(1).
func (b *Batch[V]) Fill(value V) {
	if value == b.air {
		b.root = batchNode[V]{kind: batchEmpty}
	} else {
		b.root = batchNode[V]{kind: batchLeaf, value: value}
	}
}

// Clear replaces the batch root with Empty in O(1).
func (b *Batch[V]) Clear() {
	b.root = batchNode[V]{kind: batchEmpty}
}

func (b *Batch[V]) side() int32 { return int32(1) << b.depth }

func (b *Batch[V]) checkCoord(pos [3]int32) bool {
	side := b.side()
	for _, c := range pos {
		if c < 0 || c >= side {
			return false
		}
	}
	return true
}

// materialize expands n in place into a Branch of eight children,
// mirroring VoxTree's materializeChildren but over batch-owned nodes:
// Unchanged(h) splits according to h's own kind (reading its children
// from the store only when h is itself a branch), Leaf/Empty split into
// eight copies of themselves.
func materializeBatch[V Voxel](s *NodeStore, n *batchNode[V]) {
	if n.kind == batchBranch {
		return
	}

	var children [8]batchNode[V]
	switch n.kind {
	case batchUnchanged:
		switch n.unchged.Kind() {
		case KindEmpty:
			for i := range children {
				children[i] = batchNode[V]{kind: batchEmpty}
			}
		case KindLeaf:
			v := DecodeLeaf[V](n.unchged)
			for i := range children {
				children[i] = batchNode[V]{kind: batchLeaf, value: v}
			}
		default:
			for i, c := range s.Children(n.unchged) {
				children[i] = batchNode[V]{kind: batchUnchanged, unchged: c}
			}
		}
	case batchLeaf:
		for i := range children {
			children[i] = batchNode[V]{kind: batchLeaf, value: n.value}
		}
	case batchEmpty:
		for i := range children {
			children[i] = batchNode[V]{kind: batchEmpty}
		}
	}

	*n = batchNode[V]{kind: batchBranch, children: &children}
}

// Set records an override at pos, materializing batch branches along
// the path as needed. It never interns into or changes the NodeStore; it
// only reads the children of Unchanged branches it expands.
func (b *Batch[V]) Set(s *NodeStore, pos [3]int32, value V) error {
	if !b.checkCoord(pos) {
		return ErrInvalidCoordinate
	}
	setBatchRec(s, &b.root, pos, int(b.depth)-1, value, b.air)
	return nil
}

func setBatchRec[V Voxel](s *NodeStore, n *batchNode[V], pos [3]int32, level int, value, air V) {
	if level < 0 {
		if value == air {
			*n = batchNode[V]{kind: batchEmpty}
		} else {
			*n = batchNode[V]{kind: batchLeaf, value: value}
		}
		return
	}

	materializeBatch(s, n)
	idx := octantIndex(pos, uint8(level))
	setBatchRec(s, &n.children[idx], pos, level-1, value, air)
}

// Stats reports how many patch-tree branch nodes were materialized
// (touched) versus left as Unchanged pass-throughs, a rough measure of
// how much of the tree a batch actually dirtied.
func (b *Batch[V]) Stats() (touched, unchanged int) {
	var count func(n *batchNode[V])
	count = func(n *batchNode[V]) {
		if n.kind != batchBranch {
			if n.kind == batchUnchanged {
				unchanged++
			}
			return
		}
		touched++
		for i := range n.children {
			count(&n.children[i])
		}
	}
	count(&b.root)
	return touched, unchanged
}

// ApplyBatch commits b bottom-up through s, producing a new canonical
// root and swapping it into t; the old root is decref'd. On
// ErrBudgetExceeded the commit is rolled back (every slot it managed to
// intern before the failure is decref'd) and t is left unchanged.
func (t *VoxTree[V]) ApplyBatch(s *NodeStore, b *Batch[V]) error {
	newRoot, err := commitBatch(s, &b.root)
	if err != nil {
		return err
	}
	if b.root.kind == batchUnchanged {
		// An Unchanged root comes back without a reference of its own;
		// take one for t before the old root is released.
		s.Incref(newRoot)
	}
	old := t.root
	t.root = newRoot
	s.Decref(old)
	return nil
}

// commitBatch mirrors setRec's provisional-reference discipline
// (NodeStore.GetOrIntern's doc comment): the handle it returns for a
// Branch node carries one unresolved reference that the caller must
// cancel with Decref immediately after embedding it as a child of a
// further GetOrIntern call, or leave alone if it is becoming a root.
//
// Unchanged(h) is the one case with no provisional credit to resolve:
// h already belongs to the live source tree, so it is returned with its
// refcount untouched, and the caller's own GetOrIntern incref (on a
// cache miss) is the reference this Unchanged handle newly picks up by
// being embedded — there is nothing to cancel because nothing was
// credited on the way in.
func commitBatch[V Voxel](s *NodeStore, n *batchNode[V]) (BlockId, error) {
	switch n.kind {
	case batchUnchanged:
		return n.unchged, nil
	case batchEmpty:
		return Empty(), nil
	case batchLeaf:
		return EncodeLeaf(n.value), nil
	default:
		var children [8]BlockId
		fresh := make([]bool, 8)
		for i := range n.children {
			h, err := commitBatch(s, &n.children[i])
			if err != nil {
				// Roll back every child already committed at this
				// level: each `fresh` one carries a provisional
				// reference nobody will ever cancel now.
				for j := 0; j < i; j++ {
					if fresh[j] {
						s.Decref(children[j])
					}
				}
				return BlockId(0), err
			}
			children[i] = h
			fresh[i] = n.children[i].kind != batchUnchanged
		}

		if common, ok := collapsed(children); ok {
			return common, nil
		}

		newHandle, err := s.GetOrIntern(children)
		if err != nil {
			for i, c := range children {
				if fresh[i] {
					s.Decref(c)
				}
			}
			return BlockId(0), err
		}
		for i, c := range children {
			if fresh[i] {
				s.Decref(c)
			}
		}
		return newHandle, nil
	}
}
