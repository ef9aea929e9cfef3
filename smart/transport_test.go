package smart

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRemote string

func (r stubRemote) URL() string { return string(r) }

type stubStream struct {
	closed bool
}

func (s *stubStream) Read([]byte) (int, error)    { return 0, io.EOF }
func (s *stubStream) Write(b []byte) (int, error) { return len(b), nil }
func (s *stubStream) Close() error                { s.closed = true; return nil }

type stubSubtransport struct {
	streams []*stubStream
	actions []Service
	urls    []string
	closed  bool
}

func (s *stubSubtransport) Action(url string, svc Service) (Stream, error) {
	stream := new(stubStream)
	s.streams = append(s.streams, stream)
	s.actions = append(s.actions, svc)
	s.urls = append(s.urls, url)
	return stream, nil
}

func (s *stubSubtransport) Close() error {
	s.closed = true
	return nil
}

func TestTransportStatelessOpensFreshStreams(t *testing.T) {
	sub := new(stubSubtransport)
	tr := NewTransport(stubRemote("http://example.com/repo.git"), true, sub)

	ls, err := tr.Action(UploadPackLs)
	require.NoError(t, err)

	data, err := tr.Action(UploadPack)
	require.NoError(t, err)

	assert.NotSame(t, ls, data)
	assert.Equal(t, []Service{UploadPackLs, UploadPack}, sub.actions)
	assert.Equal(t, "http://example.com/repo.git", sub.urls[0])

	// Opening the second stream retires the first.
	assert.True(t, sub.streams[0].closed)
}

func TestTransportStatefulReusesListingStream(t *testing.T) {
	sub := new(stubSubtransport)
	tr := NewTransport(stubRemote("git://example.com/repo.git"), false, sub)

	ls, err := tr.Action(ReceivePackLs)
	require.NoError(t, err)

	data, err := tr.Action(ReceivePack)
	require.NoError(t, err)

	assert.Same(t, ls, data)
	assert.Equal(t, []Service{ReceivePackLs}, sub.actions)
}

func TestTransportStatefulDataPhaseWithoutListing(t *testing.T) {
	tr := NewTransport(stubRemote("git://example.com/repo.git"), false, new(stubSubtransport))

	_, err := tr.Action(UploadPack)
	assert.ErrorIs(t, err, ErrNoListingStream)
}

func TestTransportClose(t *testing.T) {
	sub := new(stubSubtransport)
	tr := NewTransport(stubRemote("http://example.com/repo.git"), true, sub)

	_, err := tr.Action(UploadPackLs)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.True(t, sub.streams[0].closed)
	assert.True(t, sub.closed)
}
