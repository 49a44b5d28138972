package voxelis

import "errors"

// ErrBudgetExceeded is returned by Set and ApplyBatch when the backing
// NodeStore has no free slot and is already at its configured budget.
// The target VoxTree is left unchanged: no partial mutation of its root
// is ever observed.
var ErrBudgetExceeded = errors.New("voxelis: node store budget exceeded")

// ErrInvalidCoordinate is returned by Set and Batch.Set when a
// coordinate falls outside [0, 2^depth) on any axis.
var ErrInvalidCoordinate = errors.New("voxelis: coordinate out of range")
