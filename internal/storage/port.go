// Package storage defines the persistence port for the booking collection
// and its backing implementations.
//
// The collection is stored as a single serialized value under one fixed
// key; writers replace the whole value. Implementations that span several
// processes additionally broadcast a change signal so other contexts can
// re-fetch.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("storage: port is closed")

// Port is the abstract read/write/subscribe capability the booking store
// is built on. The store never references a concrete medium.
type Port interface {
	// Read returns the current serialized collection, or (nil, nil) when
	// nothing has been written yet.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the stored value with data.
	Write(ctx context.Context, data []byte) error

	// Subscribe registers fn to run when another context modified the
	// stored value. Callbacks receive no payload; subscribers re-fetch.
	Subscribe(fn func())

	// Close releases the underlying medium.
	Close() error
}
