package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is the outbound side of a client connection.
type Conn interface {
	// TrySend queues a message without blocking.
	TrySend(msg []byte) error
}
