package transport

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// DialOptions configure connection establishment and the deadlines
// armed on every new connection.
type DialOptions struct {
	// ConnectTimeout bounds connection establishment. Zero means no
	// limit beyond the context passed to Dial.
	ConnectTimeout time.Duration

	// IOTimeout is the read/write deadline armed right after a
	// successful dial, relative to Clock.Now(). Zero arms nothing.
	IOTimeout time.Duration

	// Clock is used to compute deadlines. Nil means the real clock.
	Clock clock.Clock
}

func (o DialOptions) clock() clock.Clock {
	if o.Clock == nil {
		return clock.New()
	}
	return o.Clock
}

// TCPDialer dials plain TCP connections.
type TCPDialer struct {
	opts DialOptions
}

var _ Dialer = (*TCPDialer)(nil)

func NewTCPDialer(opts DialOptions) *TCPDialer {
	return &TCPDialer{opts: opts}
}

func (d *TCPDialer) Dial(ctx context.Context, host string, port uint16) (Conn, error) {
	nd := net.Dialer{Timeout: d.opts.ConnectTimeout}

	addr := net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	if err := armDeadlines(conn, d.opts); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// TLSDialer dials TCP and performs a TLS handshake on top. The TLS
// configuration (trust roots included) is captured at construction and
// shared by every connection.
type TLSDialer struct {
	conf *tls.Config
	opts DialOptions
}

var _ Dialer = (*TLSDialer)(nil)

func NewTLSDialer(conf *tls.Config, opts DialOptions) *TLSDialer {
	if conf == nil {
		conf = &tls.Config{}
	}
	return &TLSDialer{conf: conf, opts: opts}
}

func (d *TLSDialer) Dial(ctx context.Context, host string, port uint16) (Conn, error) {
	nd := net.Dialer{Timeout: d.opts.ConnectTimeout}

	addr := net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
	raw, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	conf := d.conf
	if conf.ServerName == "" {
		conf = conf.Clone()
		conf.ServerName = host
	}

	conn := tls.Client(raw, conf)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, errors.Wrapf(err, "TLS handshake with %s", addr)
	}

	if err := armDeadlines(conn, d.opts); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func armDeadlines(conn Conn, opts DialOptions) error {
	if opts.IOTimeout == 0 {
		return nil
	}

	deadline := opts.clock().Now().Add(opts.IOTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return errors.Wrap(err, "setting read deadline")
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(err, "setting write deadline")
	}

	return nil
}
