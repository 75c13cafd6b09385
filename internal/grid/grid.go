// Package grid defines the sparse voxel store contract shared by every
// backend, together with the bulk algorithms built on top of it.
//
// A Grid maps every cell of the integer lattice to either a value or nothing.
// Backends only implement the primitives of the Grid interface; paste,
// point visiting, clipped visiting and recolouring live in this package and
// work for any backend.
package grid

import "errors"

var (
	// ErrOutOfBounds is raised when a fixed internal buffer is indexed before
	// growth logic has made room.
	ErrOutOfBounds = errors.New("grid: index out of bounds")
	// ErrInvariantViolation wraps every structural defect reported by Validate.
	ErrInvariantViolation = errors.New("grid: invariant violation")
)

// BlockVisitor receives one uniform block. Returning false stops the walk.
type BlockVisitor[T any] func(b Bounds, v T) bool

// PointVisitor receives one cell. Returning false stops the walk.
type PointVisitor[T any] func(c Coord, v T) bool

// Grid is a coordinate-addressed sparse store over all of Z³.
//
// Reversed ranges (Min > Max on any axis) are empty regions: block writes and
// clipped visits over them do nothing.
type Grid[T comparable] interface {
	// Get returns the value at (x, y, z) and whether one is present.
	Get(x, y, z int) (T, bool)
	Set(x, y, z int, v T)
	// Remove makes (x, y, z) absent.
	Remove(x, y, z int)
	// SetBlock fills every cell of b with v.
	SetBlock(b Bounds, v T)
	// RemoveBlock makes every cell of b absent.
	RemoveBlock(b Bounds)
	// Clear resets the grid to fully empty.
	Clear()
	// Count returns the number of cells holding a present value.
	Count() int
	// VisitBlocks reports disjoint uniform blocks whose union is exactly the
	// present region. Order is deterministic for a given state.
	VisitBlocks(fn BlockVisitor[T])
	// Validate checks backend specific structure. Failures wrap
	// ErrInvariantViolation.
	Validate() error
}

// Reserver is implemented by backends that can make room for a region up
// front. Bulk writers reserve the full destination extent once before a run
// of block writes.
type Reserver interface {
	Reserve(b Bounds)
}

// NodeCounter is implemented by backends whose internal structure has a
// meaningful node count.
type NodeCounter interface {
	CountNodes() int
}
