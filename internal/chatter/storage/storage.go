// Package storage provides the durable backends for the conversation store
// snapshot. The whole state is one serialized document: read in full at
// startup, written in full after every mutation. Backends are dumb byte
// stores; the document format belongs to the convo package.
package storage

import "errors"

// ErrNotFound is returned by Load when no snapshot has ever been saved.
// Callers treat this as "start empty", not as a failure.
var ErrNotFound = errors.New("storage: no snapshot found")

// Backend persists the serialized store snapshot.
type Backend interface {
	// Load returns the most recently saved snapshot, or ErrNotFound when
	// nothing has been saved yet.
	Load() ([]byte, error)

	// Save overwrites the stored snapshot with data.
	Save(data []byte) error
}
