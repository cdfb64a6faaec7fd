package app

import "context"

// Storage is the durable key-value backing for the ticket list.
// Get returns ErrNotFound when the key has never been written.
type Storage interface {
	Get(context.Context, string) ([]byte, error)
	Put(context.Context, string, []byte) error
}
