// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package voxelis stores dense 3D voxel volumes as a sparse voxel octree
// structured as a hash-consed, reference-counted directed acyclic graph.
//
// A NodeStore interns branch nodes by content: two branches with
// identical children are always the same BlockId, so structural
// equality is a single 64-bit comparison and identical subtrees across
// many trees (or many regions of the same tree) share one copy in
// memory. VoxTree is a thin, depth-typed owner of one root BlockId; Get,
// Set, Fill, and Clear perform copy-on-write through a shared NodeStore.
//
// Batch accumulates many writes into an unshared, array-backed patch
// tree and commits them in a single bottom-up canonicalizing sweep,
// trading per-write hash-consing for one pass proportional to the
// touched subtrees — the right tool for bulk terrain generation or
// large structural edits.
//
// ToVec and ToVecIndexed project a tree down to a dense view at a
// chosen level of detail, for callers building a lower-resolution mesh
// or preview without walking the full-resolution graph.
package voxelis
