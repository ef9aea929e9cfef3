// Package smarthttp implements the smart protocol over HTTP, the
// "smart HTTP" transport of git-http-backend(1). Each protocol action
// becomes exactly one HTTP exchange on a dedicated connection; the
// transport is stateless and all request state travels in the URL and
// the body.
package smarthttp

import (
	"crypto/tls"
	"log/slog"
	"sync"

	"smartgit/smart"
	"smartgit/transport"

	"github.com/pkg/errors"
)

// Version is reported in the User-Agent comment.
const Version = "0.1.0"

// Servers sniff the agent prefix to decide between the smart and dumb
// protocol responders, so it must start with "git/".
const userAgent = "git/1.0 (smartgit " + Version + ")"

// Options configure the backend installed by [Register]. They are
// captured once at registration time and shared by every transport the
// factory produces.
type Options struct {
	// TLSConfig is used for https remotes. Nil means the defaults,
	// including the system trust roots.
	TLSConfig *tls.Config

	// Dial configures connection establishment and I/O deadlines.
	Dial transport.DialOptions

	// Dialer, when set, replaces the scheme-selected dialer for every
	// connection. Meant for tests.
	Dialer transport.Dialer

	// Logger receives exchange traces. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

var registerOnce sync.Once

// Register installs the smart-HTTP backend for the "http://" and
// "https://" prefixes in the default registry. Only the first call has
// any effect; opts passed to later calls are discarded along with the
// registration itself.
func Register(opts Options) {
	registerOnce.Do(func() {
		factory := func(remote smart.Remote) (*smart.Transport, error) {
			return smart.NewTransport(remote, true, NewSubtransport(opts)), nil
		}

		smart.Register("http://", factory)
		smart.Register("https://", factory)
	})
}

// endpoint is the document a service maps to, relative to the base URL.
type endpoint struct {
	service string // git service name on the wire
	path    string // appended to the base URL
	method  string
}

func endpointFor(svc smart.Service) (endpoint, bool) {
	switch svc {
	case smart.UploadPackLs:
		return endpoint{"upload-pack", "/info/refs?service=git-upload-pack", "GET"}, true
	case smart.UploadPack:
		return endpoint{"upload-pack", "/git-upload-pack", "POST"}, true
	case smart.ReceivePackLs:
		return endpoint{"receive-pack", "/info/refs?service=git-receive-pack", "GET"}, true
	case smart.ReceivePack:
		return endpoint{"receive-pack", "/git-receive-pack", "POST"}, true
	default:
		return endpoint{}, false
	}
}

// baseURL is the redirect-updated base shared by all streams of one
// subtransport. A Location response on any stream moves every later
// action to the new base.
type baseURL struct {
	mu sync.Mutex
	v  string
}

func (b *baseURL) setIfEmpty(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.v == "" {
		b.v = url
	}
}

func (b *baseURL) set(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.v = url
}

func (b *baseURL) get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}

// Subtransport produces one stream per action, each performing a
// single HTTP exchange against the shared base URL.
type Subtransport struct {
	opts   Options
	logger *slog.Logger
	base   *baseURL
}

var _ smart.Subtransport = (*Subtransport)(nil)

func NewSubtransport(opts Options) *Subtransport {
	return &Subtransport{
		opts:   opts,
		logger: opts.logger(),
		base:   new(baseURL),
	}
}

// Action returns an unexecuted stream for svc. The first call fixes
// url as the base every stream resolves its document against.
func (s *Subtransport) Action(url string, svc smart.Service) (smart.Stream, error) {
	ep, ok := endpointFor(svc)
	if !ok {
		return nil, errors.Errorf("unsupported service %d", svc)
	}

	s.base.setIfEmpty(url)

	s.logger.Info("action",
		slog.String("service", ep.service),
		slog.String("path", ep.path),
		slog.String("method", ep.method),
	)

	return &stream{sub: s, endpoint: ep}, nil
}

// Close implements [smart.Subtransport]. Connections belong to the
// streams, so there is nothing to release here.
func (s *Subtransport) Close() error { return nil }
