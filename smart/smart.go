// Package smart models git's smart protocol transport as pluggable
// subtransports. A subtransport turns a remote URL and a requested
// service into a bidirectional stream; the [Transport] on top enforces
// the protocol's stream lifecycle.
package smart

import "io"

// Service identifies one of the smart protocol operations a transport
// can be asked to perform against a remote.
type Service int

const (
	// UploadPackLs fetches the ref advertisement for a fetch.
	UploadPackLs Service = iota
	// UploadPack exchanges wants and haves for a fetch.
	UploadPack
	// ReceivePackLs fetches the ref advertisement for a push.
	ReceivePackLs
	// ReceivePack sends the pack data for a push.
	ReceivePack
)

// Name returns the git service name used on the wire.
func (s Service) Name() string {
	switch s {
	case UploadPackLs, UploadPack:
		return "upload-pack"
	case ReceivePackLs, ReceivePack:
		return "receive-pack"
	default:
		return "unknown"
	}
}

func (s Service) String() string {
	switch s {
	case UploadPackLs:
		return "upload-pack-ls"
	case UploadPack:
		return "upload-pack"
	case ReceivePackLs:
		return "receive-pack-ls"
	case ReceivePack:
		return "receive-pack"
	default:
		return "unknown"
	}
}

// Stream is a single request/response exchange with a remote.
// The caller writes the request body (if the service takes one),
// then reads the response until EOF, then closes.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Subtransport produces streams for a particular URL scheme.
type Subtransport interface {
	// Action opens a stream performing the given service against url.
	Action(url string, svc Service) (Stream, error)
	// Close releases any resources shared across streams.
	Close() error
}

// Remote describes the remote a transport is being constructed for.
type Remote interface {
	// URL returns the remote's configured URL.
	URL() string
}

// Factory constructs a transport bound to a remote. Factories are
// registered against URL prefixes, see [Register].
type Factory func(remote Remote) (*Transport, error)
