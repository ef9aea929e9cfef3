package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPDialer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	greeting := []byte("hello from server")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(1)

	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		_, err = conn.Write(greeting)
		assert.NoError(t, err)
	}()

	addr := ln.Addr().(*net.TCPAddr)

	d := NewTCPDialer(DialOptions{
		ConnectTimeout: time.Second,
		IOTimeout:      time.Second,
	})

	conn, err := d.Dial(context.Background(), "127.0.0.1", uint16(addr.Port))
	require.NoError(t, err)
	defer conn.Close()

	got := make([]byte, len(greeting))
	_, err = io.ReadFull(conn, got)
	require.NoError(t, err)
	assert.Equal(t, greeting, got)
}

func TestTCPDialerConnectFailure(t *testing.T) {
	// Bind a port and close it right away so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	d := NewTCPDialer(DialOptions{ConnectTimeout: 500 * time.Millisecond})

	_, err = d.Dial(context.Background(), "127.0.0.1", port)
	assert.Error(t, err)
}
