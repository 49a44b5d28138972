package voxelis

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math/rand/v2"
	"sync"

	bbbitset "github.com/bits-and-blooms/bitset"
	"github.com/dchest/siphash"
	"github.com/google/uuid"

	ibitset "github.com/voxelis-io/voxelis/internal/bitset"
)

// branchRecord is a pool slot: eight children, a reference count, the
// generation the slot was created under, and the content hash it was
// interned at (cached so a free'd-then-reused slot never needs to
// rehash its old children to evict its hashmap bucket).
type branchRecord struct {
	children   [8]BlockId
	refcount   uint32
	generation uint8
	hash       uint64
}

// NodeStore is the hash-consing interner: it owns every branch slot,
// maps content hashes to slots, and is the only component that mutates
// refcounts or generations. A NodeStore is not safe for concurrent
// mutation; see WithLocking.
type NodeStore struct {
	mu *sync.RWMutex // nil unless WithLocking was called

	id uuid.UUID

	k0, k1 uint64 // siphash key, seeded at construction

	slots     []branchRecord
	occupied  ibitset.BitSet  // fast internal liveness check for slot indices
	live      bbbitset.BitSet // public-facing diagnostic mirror of occupied
	freeList  []uint32
	budget    int // max live slots; 0 means unbounded
	highWater int

	// hash -> candidate slot indices sharing that hash (chaining).
	table map[uint64][]uint32
}

// NewNodeStore creates an interner with no budget cap.
func NewNodeStore() *NodeStore {
	return WithMemoryBudget(0)
}

// WithMemoryBudget creates an interner that fails GetOrIntern with
// ErrBudgetExceeded once budgetSlots live branch slots are in use.
// A budget of 0 means unbounded (limited only by the 22-bit slot field,
// ~4M slots).
func WithMemoryBudget(budgetSlots int) *NodeStore {
	seed := rand.Uint64()
	return &NodeStore{
		id:     uuid.New(),
		k0:     seed,
		k1:     seed ^ 0x9E3779B97F4A7C15,
		budget: budgetSlots,
		table:  make(map[uint64][]uint32),
	}
}

// WithLocking equips s with an embedded RWMutex so GetOrIntern/Incref/
// Decref can be called safely while other goroutines hold read access
// via Children/Child. It is a no-op if s already has one. The embedded
// pointer is nil until this is called, so an unlocked NodeStore pays
// zero synchronization cost.
func (s *NodeStore) WithLocking() *NodeStore {
	if s.mu == nil {
		s.mu = &sync.RWMutex{}
	}
	return s
}

func (s *NodeStore) lock() {
	if s.mu != nil {
		s.mu.Lock()
	}
}

func (s *NodeStore) unlock() {
	if s.mu != nil {
		s.mu.Unlock()
	}
}

func (s *NodeStore) rlock() {
	if s.mu != nil {
		s.mu.RLock()
	}
}

func (s *NodeStore) runlock() {
	if s.mu != nil {
		s.mu.RUnlock()
	}
}

// ID identifies this interner instance, useful for correlating
// diagnostics across many interners (e.g. one per loaded chunk region).
func (s *NodeStore) ID() uuid.UUID {
	return s.id
}

func (s *NodeStore) hashChildren(children [8]BlockId) uint64 {
	var buf [64]byte
	for i, c := range children {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(c))
	}
	return siphash.Hash(s.k0, s.k1, buf[:])
}

func collapsed(children [8]BlockId) (BlockId, bool) {
	first := children[0]
	switch first.Kind() {
	case KindLeaf:
		for _, c := range children[1:] {
			if c != first {
				return BlockId(0), false
			}
		}
		return first, true
	case KindEmpty:
		for _, c := range children[1:] {
			if !c.IsEmpty() {
				return BlockId(0), false
			}
		}
		return Empty(), true
	default:
		return BlockId(0), false
	}
}

// GetOrIntern returns the canonical branch handle for children, applying
// the collapse rules before lookup: the caller is responsible for
// passing already-canonical children; GetOrIntern itself only ever
// hands back Empty, a leaf, or a branch handle whose slot holds exactly
// these eight children.
//
// The returned handle carries one provisional reference: on a hit it is
// an extra incref of an already-live slot, on a miss it is the slot's
// initial refcount of 1. The caller must resolve that reference exactly
// once — either by storing it as a new root (no further action) or by
// immediately embedding it as a child of another GetOrIntern call and
// then calling Decref on it (see VoxTree.Set and commitBatch).
func (s *NodeStore) GetOrIntern(children [8]BlockId) (BlockId, error) {
	if h, ok := collapsed(children); ok {
		s.Incref(h)
		return h, nil
	}

	s.lock()
	defer s.unlock()

	hash := s.hashChildren(children)
	for _, slot := range s.table[hash] {
		rec := &s.slots[slot]
		if rec.refcount > 0 && rec.children == children {
			rec.refcount++
			return branchID(slot, rec.generation), nil
		}
	}

	slot, err := s.allocSlotLocked()
	if err != nil {
		return BlockId(0), err
	}

	rec := &s.slots[slot]
	rec.children = children
	rec.refcount = 1
	rec.hash = hash
	for _, c := range children {
		s.increfLocked(c)
	}
	s.table[hash] = append(s.table[hash], slot)

	return branchID(slot, rec.generation), nil
}

func (s *NodeStore) allocSlotLocked() (uint32, error) {
	if n := len(s.freeList); n > 0 {
		slot := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.occupied.Set(uint(slot))
		s.live.Set(uint(slot))
		s.bumpHighWater()
		return slot, nil
	}

	if s.budget > 0 && len(s.slots) >= s.budget {
		return 0, ErrBudgetExceeded
	}
	if len(s.slots) >= maxSlotIndex {
		return 0, ErrBudgetExceeded
	}

	slot := uint32(len(s.slots))
	s.slots = append(s.slots, branchRecord{})
	s.occupied.Set(uint(slot))
	s.live.Set(uint(slot))
	s.bumpHighWater()
	return slot, nil
}

func (s *NodeStore) bumpHighWater() {
	if n := len(s.slots) - len(s.freeList); n > s.highWater {
		s.highWater = n
	}
}

// Incref increments h's refcount. A no-op for Empty and leaf handles,
// which own no slot.
func (s *NodeStore) Incref(h BlockId) {
	if h.Kind() != KindBranch {
		return
	}
	s.lock()
	defer s.unlock()
	s.increfLocked(h)
}

func (s *NodeStore) increfLocked(h BlockId) {
	if h.Kind() != KindBranch {
		return
	}
	rec := s.recordLocked(h)
	rec.refcount++
}

// Decref decrements h's refcount. A no-op for Empty and leaf handles.
// When the refcount reaches zero, the slot is freed (generation bumped,
// pushed to the free-list, its hash-table entry removed) and every
// child is decref'd in turn, cascading reclamation through the subgraph.
func (s *NodeStore) Decref(h BlockId) {
	if h.Kind() != KindBranch {
		return
	}
	s.lock()
	defer s.unlock()
	s.decrefLocked(h)
}

func (s *NodeStore) decrefLocked(h BlockId) {
	if h.Kind() != KindBranch {
		return
	}
	rec := s.recordLocked(h)
	if rec.refcount == 0 {
		panic("voxelis: decref of already-zero slot")
	}
	rec.refcount--
	if rec.refcount > 0 {
		return
	}

	children := rec.children
	hash := rec.hash
	slot := h.SlotIndex()

	bucket := s.table[hash]
	for i, candidate := range bucket {
		if candidate == slot {
			bucket[i] = bucket[len(bucket)-1]
			s.table[hash] = bucket[:len(bucket)-1]
			break
		}
	}
	if len(s.table[hash]) == 0 {
		delete(s.table, hash)
	}

	rec.generation++
	rec.children = [8]BlockId{}
	s.occupied.Clear(uint(slot))
	s.live.Clear(uint(slot))
	s.freeList = append(s.freeList, slot)

	for _, c := range children {
		s.decrefLocked(c)
	}
}

// recordLocked resolves h to its slot, panicking if h's generation is
// stale (the slot has since been freed and reused) — this is always a
// use-after-free bug in the caller, never a recoverable condition.
func (s *NodeStore) recordLocked(h BlockId) *branchRecord {
	slot := h.SlotIndex()
	if int(slot) >= len(s.slots) || !s.occupied.Test(uint(slot)) {
		panic(fmt.Sprintf("voxelis: stale BlockId %#x: slot %d is not live", uint64(h), slot))
	}
	rec := &s.slots[slot]
	if rec.generation != h.Generation() {
		panic(fmt.Sprintf("voxelis: stale BlockId %#x: slot %d is now generation %d", uint64(h), slot, rec.generation))
	}
	return rec
}

// Children returns the eight children of a branch handle. Safe to call
// concurrently with other readers and with a writer holding a shared
// (RLock) view; panics on a stale handle.
func (s *NodeStore) Children(h BlockId) [8]BlockId {
	if h.Kind() != KindBranch {
		panic("voxelis: Children called on non-branch handle")
	}
	s.rlock()
	defer s.runlock()
	return s.recordLocked(h).children
}

// Child returns the single child of a branch handle at the given
// octant index (0-7).
func (s *NodeStore) Child(h BlockId, octant int) BlockId {
	s.rlock()
	defer s.runlock()
	return s.recordLocked(h).children[octant]
}

// MemoryStats reports the interner's current occupancy.
type MemoryStats struct {
	Used         int
	Capacity     int
	LiveBranches int
}

// MemoryStats returns the interner's used/capacity/live-branch triple.
func (s *NodeStore) MemoryStats() MemoryStats {
	s.rlock()
	defer s.runlock()
	capacity := s.budget
	if capacity == 0 {
		capacity = len(s.slots)
	}
	return MemoryStats{
		Used:         len(s.slots) - len(s.freeList),
		Capacity:     capacity,
		LiveBranches: int(s.live.Count()),
	}
}

// HighWaterMark returns the largest number of live branch slots this
// interner has ever held simultaneously.
func (s *NodeStore) HighWaterMark() int {
	s.rlock()
	defer s.runlock()
	return s.highWater
}

// OccupiedSlots returns a snapshot bitset of currently-live slot
// indices, for callers doing external capacity planning. Built from the
// real upstream bitset type so it composes with callers already using
// github.com/bits-and-blooms/bitset for their own bookkeeping.
func (s *NodeStore) OccupiedSlots() *bbbitset.BitSet {
	s.rlock()
	defer s.runlock()
	return s.live.Clone()
}

// OccupiedSlotIndices iterates occupied slot indices in ascending order,
// for callers walking the whole pool (e.g. a compaction or serialization
// tool built on top of this library) without paying for a full snapshot
// copy up front.
func (s *NodeStore) OccupiedSlotIndices() iter.Seq[uint] {
	return s.occupied.All()
}
