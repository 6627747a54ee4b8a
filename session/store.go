package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrCorruptRecord is returned by [Store.Load] when the persisted pair could
// not be decoded or failed boundary validation. The store removes the pair
// before returning, so a corrupt record is observed at most once.
var ErrCorruptRecord = errors.New("corrupt session record")

// ErrIncompleteRecord is returned by [Store.Save] when the record is missing
// its token, its profile identity, or carries an unrecognized role. Nothing
// is written on this error.
var ErrIncompleteRecord = errors.New("incomplete session record")

// Store is the durable token/profile pair owned by the engine. Implementations
// must keep the pair atomic from the caller's view: Load never observes a token
// without its profile or the other way around, regardless of interleaved Save
// and Clear calls.
//
// Implementations are safe for concurrent use.
type Store interface {
	// Save overwrites any prior pair with rec. The record is validated first;
	// an incomplete record fails with ErrIncompleteRecord and leaves the prior
	// pair in place.
	Save(ctx context.Context, rec Record) error

	// Load returns the persisted pair. ok is false when no pair is present.
	// A pair that fails to decode, or whose profile carries an unknown role,
	// is cleared and reported as ErrCorruptRecord with ok false.
	Load(ctx context.Context) (rec Record, ok bool, err error)

	// Clear removes the pair. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

func errIncomplete(cause error) error {
	return fmt.Errorf("%w: %v", ErrIncompleteRecord, cause)
}

func errCorrupt(cause error) error {
	return fmt.Errorf("%w: %v", ErrCorruptRecord, cause)
}
