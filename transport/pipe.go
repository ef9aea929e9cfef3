package transport

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Pipe returns a pair of synchronously connected in-memory conns.
// A write on one end blocks until the other end reads it, like an
// unbuffered socket. Tests use it to script a peer without sockets.
func Pipe() (Conn, Conn) {
	a := &pipeConn{stream: make(chan []byte), closed: make(chan struct{})}
	b := &pipeConn{stream: make(chan []byte), closed: make(chan struct{})}
	a.counterpart, b.counterpart = b, a
	return a, b
}

type pipeConn struct {
	stream chan []byte
	closed chan struct{}
	once   sync.Once

	mu            sync.Mutex
	buf           bytes.Buffer
	readDeadline  time.Time
	writeDeadline time.Time

	counterpart *pipeConn
}

var _ Conn = (*pipeConn)(nil)

func (p *pipeConn) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.buf.Len() > 0 {
		n, _ := p.buf.Read(b)
		p.mu.Unlock()
		return n, nil
	}
	deadline := p.readDeadline
	p.mu.Unlock()

	timeout, stop := deadlineChan(deadline)
	if stop != nil {
		defer stop()
	}

	select {
	case <-p.closed:
		return 0, ErrConnClosed
	case <-p.counterpart.closed:
		// Peer closed cleanly with nothing in flight.
		return 0, io.EOF
	case <-timeout:
		return 0, ErrDeadlineExceeded
	case chunk := <-p.stream:
		n := copy(b, chunk)
		if n < len(chunk) {
			// Keep what the caller's buffer couldn't take.
			p.mu.Lock()
			p.buf.Write(chunk[n:])
			p.mu.Unlock()
		}
		return n, nil
	}
}

func (p *pipeConn) Write(b []byte) (int, error) {
	p.mu.Lock()
	deadline := p.writeDeadline
	p.mu.Unlock()

	timeout, stop := deadlineChan(deadline)
	if stop != nil {
		defer stop()
	}

	c := make([]byte, len(b))
	copy(c, b)

	select {
	case <-p.closed:
		return 0, ErrConnClosed
	case <-p.counterpart.closed:
		return 0, ErrConnClosed
	case <-timeout:
		return 0, ErrDeadlineExceeded
	case p.counterpart.stream <- c:
		return len(c), nil
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeConn) SetReadDeadline(t time.Time) error {
	p.mu.Lock()
	p.readDeadline = t
	p.mu.Unlock()
	return nil
}

func (p *pipeConn) SetWriteDeadline(t time.Time) error {
	p.mu.Lock()
	p.writeDeadline = t
	p.mu.Unlock()
	return nil
}

func deadlineChan(deadline time.Time) (<-chan time.Time, func() bool) {
	if deadline.IsZero() {
		return nil, nil
	}

	timer := time.NewTimer(time.Until(deadline))
	return timer.C, timer.Stop
}
