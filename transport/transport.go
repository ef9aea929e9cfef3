// Package transport provides the byte-stream carriers a smart
// subtransport exchanges data over: a minimal connection interface,
// dialers for plain TCP and TLS, and an in-memory pipe for tests.
package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrConnClosed       = errors.New("connection is closed")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// Conn is a single bidirectional byte stream to a remote host.
// Deadlines are armed before an exchange begins; there is no
// mid-exchange cancellation hook.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Dialer establishes a connection to host:port. Implementations
// capture their configuration (trust roots, timeouts) at construction.
type Dialer interface {
	Dial(ctx context.Context, host string, port uint16) (Conn, error)
}
