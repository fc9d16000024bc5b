// Package datastore owns the ordered item collection behind a virtual list.
//
// Every mutation goes through a Store method; subscribers are told about each
// mutation synchronously so derived state (height cache, position index) can
// be pruned and rebuilt before the next frame is resolved.
package datastore

import "strconv"

// Key is the stable identity of an item.
type Key string

// IntKey formats a numeric id as a Key.
func IntKey(id int) Key {
	return Key(strconv.Itoa(id))
}

// KeyFunc derives the stable key of an item.
type KeyFunc[T any] func(item T) Key

// MutationKind identifies what changed in the collection.
type MutationKind int

const (
	MutationAdded MutationKind = iota
	MutationRemoved
	MutationUpdated
	MutationMoved
	MutationReplaced
	MutationCleared
	MutationLoading
)

// String returns the string representation of the mutation kind.
func (k MutationKind) String() string {
	switch k {
	case MutationAdded:
		return "added"
	case MutationRemoved:
		return "removed"
	case MutationUpdated:
		return "updated"
	case MutationMoved:
		return "moved"
	case MutationReplaced:
		return "replaced"
	case MutationCleared:
		return "cleared"
	case MutationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Structural reports whether the mutation can change the key sequence.
func (k MutationKind) Structural() bool {
	return k != MutationLoading
}

// Mutation describes one committed change.
type Mutation struct {
	Kind MutationKind
	// Epoch is the store epoch after the change. It only moves on resets
	// (clear, replace, batch start) so it doubles as a freshness token.
	Epoch uint64
	// Resets is the store's reset count after the change.
	Resets uint64
	// Count is the number of items affected.
	Count int
	// Len is the collection length after the change.
	Len int
	// Loading is the loading flag after the change.
	Loading bool
}
