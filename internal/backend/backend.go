// Package backend builds grid implementations by name so callers can switch
// storage strategy from configuration.
package backend

import (
	"errors"
	"fmt"

	"voxelgrid/internal/arraygrid"
	"voxelgrid/internal/bitgrid"
	"voxelgrid/internal/config"
	"voxelgrid/internal/grid"
	"voxelgrid/internal/treegrid"
)

type Kind string

const (
	Array Kind = config.BackendArray
	Bits  Kind = config.BackendBits
	Tree  Kind = config.BackendTree
)

var (
	ErrUnknownKind      = errors.New("backend: unknown kind")
	ErrUnsupportedValue = errors.New("backend: value type not supported")
)

// Kinds lists every backend in a stable order.
func Kinds() []Kind {
	return []Kind{Array, Bits, Tree}
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Array, Bits, Tree:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New returns an empty grid of the given kind configured from cfg. The bits
// backend stores only bool values.
func New[T comparable](kind Kind, cfg config.GridConfig) (grid.Grid[T], error) {
	switch kind {
	case Array:
		var opts []arraygrid.Option
		if cfg.ExactGrowth {
			opts = append(opts, arraygrid.WithExactGrowth())
		}
		if cfg.MaxSlack > 0 {
			opts = append(opts, arraygrid.WithMaxSlack(cfg.MaxSlack))
		}
		return arraygrid.New[T](opts...), nil
	case Bits:
		g, ok := any(bitgrid.New(bitgrid.WithEviction(cfg.EvictEmpty))).(grid.Grid[T])
		if !ok {
			var zero T
			return nil, fmt.Errorf("%w: %s stores bool, not %T", ErrUnsupportedValue, kind, zero)
		}
		return g, nil
	case Tree:
		return treegrid.New[T](), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}
