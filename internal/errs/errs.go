// Package errs holds the error taxonomy shared by the relay components.
// Callers wrap a cause with one of the sentinels and classify with errors.Is.
package errs

import "errors"

var (
	// ErrTransport means a peer could not be reached during a send.
	ErrTransport = errors.New("transport error")
	// ErrPersistence means a conversation log could not be written or read.
	ErrPersistence = errors.New("persistence error")
	// ErrStorage means a voice blob could not be stored.
	ErrStorage = errors.New("storage error")
	// ErrProtocol means a frame had an unrecognized or malformed shape.
	ErrProtocol = errors.New("protocol violation")
	ErrNotFound = errors.New("not found")
)
