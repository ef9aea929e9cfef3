package smarthttp

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"smartgit/httpwire"
	"smartgit/httpwire/transfer"
	iolib "smartgit/lib/io"
	"smartgit/smart"
	"smartgit/transport"

	"github.com/pkg/errors"
)

// exchangeResult records the one exchange a stream may perform. A nil
// pointer means the exchange has not happened yet; afterwards exactly
// one of body and err is set, and err is replayed on every later call.
type exchangeResult struct {
	body io.Reader
	err  error
}

// stream performs a single lazy HTTP exchange. The request goes out on
// the first Read or Write, whichever comes first; the response body is
// then streamed through Read.
type stream struct {
	sub      *Subtransport
	endpoint endpoint

	result *exchangeResult
	conn   transport.Conn
}

var _ smart.Stream = (*stream)(nil)

// Write sends p as the request body of the exchange. Only POST-mapped
// services take a body, and only one write is allowed: the protocol
// hands the fully buffered request over in a single call.
func (s *stream) Write(p []byte) (int, error) {
	if s.endpoint.method != "POST" {
		return 0, errors.Wrap(ErrBodyNotAllowed, s.endpoint.service)
	}

	if s.result != nil {
		if s.result.err != nil {
			return 0, s.result.err
		}
		return 0, ErrRequestAlreadySent
	}

	s.execute(p)
	if s.result.err != nil {
		return 0, s.result.err
	}

	return len(p), nil
}

// Read streams the response body. On a stream that has not executed
// yet it first performs a body-less exchange, so that GET-mapped
// services run on the first read.
func (s *stream) Read(p []byte) (int, error) {
	if s.result == nil {
		s.execute(nil)
	}

	if s.result.err != nil {
		return 0, s.result.err
	}

	return s.result.body.Read(p)
}

// Close closes the stream's connection, if the exchange opened one.
func (s *stream) Close() error {
	if s.conn == nil {
		return nil
	}

	conn := s.conn
	s.conn = nil
	return conn.Close()
}

func (s *stream) execute(body []byte) {
	res := new(exchangeResult)
	s.result = res

	res.body, res.err = s.exchange(body)
}

func (s *stream) exchange(body []byte) (io.Reader, error) {
	target, err := url.Parse(s.sub.base.get() + s.endpoint.path)
	if err != nil {
		return nil, errors.Wrap(err, "parsing request URL")
	}

	host := target.Hostname()
	if host == "" {
		return nil, errors.Wrap(ErrMissingHost, target.Redacted())
	}

	port, err := resolvePort(target)
	if err != nil {
		return nil, err
	}

	dialer, err := s.dialer(target.Scheme)
	if err != nil {
		return nil, err
	}

	s.sub.logger.Debug("exchange",
		slog.String("url", target.Redacted()),
		slog.String("method", s.endpoint.method),
		slog.Int("body_len", len(body)),
	)

	conn, err := dialer.Dial(context.Background(), host, port)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to remote")
	}

	reader, err := s.converse(conn, target, body)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.conn = conn
	return reader, nil
}

// converse runs the request/response cycle on an established conn.
func (s *stream) converse(conn transport.Conn, target *url.URL, body []byte) (io.Reader, error) {
	request := httpwire.Request{
		Method:  s.endpoint.method,
		Target:  target.RequestURI(),
		Version: httpwire.Version{1, 0},
		Headers: s.requestHeaders(target.Host, body),
		Body:    body,
	}

	if err := httpwire.NewRequestEncoder(conn).Encode(request); err != nil {
		return nil, errors.Wrap(err, "sending request")
	}

	ur := iolib.NewUntilReader(conn)

	status, err := readStatus(ur)
	if err != nil {
		return nil, err
	}
	if status.Code != 200 {
		return nil, &StatusError{Code: status.Code}
	}

	fields, err := readHeaderFields(ur)
	if err != nil {
		return nil, err
	}

	if err := s.checkContentType(fields); err != nil {
		return nil, err
	}
	s.applyRedirect(fields)

	return responseBody(ur, fields)
}

func (s *stream) requestHeaders(hostport string, body []byte) []httpwire.Field {
	headers := []httpwire.Field{
		{Name: []byte("Host"), Value: []byte(hostport)},
		{Name: []byte("User-Agent"), Value: []byte(userAgent)},
	}

	if body == nil {
		return append(headers, httpwire.Field{
			Name: []byte("Accept"), Value: []byte("*/*"),
		})
	}

	svc := s.endpoint.service
	return append(headers,
		httpwire.Field{
			Name:  []byte("Accept"),
			Value: []byte("application/x-git-" + svc + "-result"),
		},
		httpwire.Field{
			Name:  []byte("Content-Type"),
			Value: []byte("application/x-git-" + svc + "-request"),
		},
		httpwire.Field{
			Name:  []byte("Content-Length"),
			Value: []byte(strconv.Itoa(len(body))),
		},
	)
}

// expectedContentType is the one type a response to this endpoint may
// carry; anything else means the remote is not a smart server.
func (s *stream) expectedContentType() string {
	suffix := "-advertisement"
	if s.endpoint.method == "POST" {
		suffix = "-result"
	}
	return "application/x-git-" + s.endpoint.service + suffix
}

func (s *stream) checkContentType(fields []httpwire.Field) error {
	expected := s.expectedContentType()

	got, _ := httpwire.FindField(fields, "Content-Type")
	if got != expected {
		return &ContentTypeError{Expected: expected, Got: got}
	}

	return nil
}

// applyRedirect moves the shared base to a Location target. When the
// location still ends with this stream's document path, that path is
// cut so that later actions append their own; otherwise the location
// is taken as the new base verbatim. The new base is not checked
// against the old origin, matching git's own permissive behavior.
func (s *stream) applyRedirect(fields []httpwire.Field) {
	location, ok := httpwire.FindField(fields, "Location")
	if !ok {
		return
	}

	base, found := strings.CutSuffix(location, s.endpoint.path)
	if !found {
		base = location
	}

	s.sub.logger.Debug("redirect", slog.String("base", base))
	s.sub.base.set(base)
}

func resolvePort(target *url.URL) (uint16, error) {
	if p := target.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return 0, errors.Wrapf(err, "parsing port %q", p)
		}
		return uint16(port), nil
	}

	switch target.Scheme {
	case "http":
		return 80, nil
	case "https":
		return 443, nil
	default:
		return 0, errors.Wrap(ErrUnsupportedScheme, target.Scheme)
	}
}

func (s *stream) dialer(scheme string) (transport.Dialer, error) {
	if s.sub.opts.Dialer != nil {
		return s.sub.opts.Dialer, nil
	}

	switch scheme {
	case "http":
		return transport.NewTCPDialer(s.sub.opts.Dial), nil
	case "https":
		return transport.NewTLSDialer(s.sub.opts.TLSConfig, s.sub.opts.Dial), nil
	default:
		return nil, errors.Wrap(ErrUnsupportedScheme, scheme)
	}
}

func readStatus(ur *iolib.UntilReader) (httpwire.StatusLine, error) {
	line, err := httpwire.ReadLine(ur)
	if err != nil {
		return httpwire.StatusLine{}, errors.Wrap(err, "reading status line")
	}

	status, err := httpwire.ParseStatusLine(line)
	if err != nil {
		return httpwire.StatusLine{}, errors.Wrap(err, "parsing status line")
	}

	return status, nil
}

func readHeaderFields(ur *iolib.UntilReader) ([]httpwire.Field, error) {
	var fields []httpwire.Field
	for {
		line, err := httpwire.ReadLine(ur)
		if err != nil {
			return nil, errors.Wrap(err, "reading header line")
		}

		if len(line) == 0 {
			return fields, nil
		}

		field, err := httpwire.ParseField(line)
		if err != nil {
			return nil, errors.Wrap(err, "parsing header field")
		}
		fields = append(fields, field)
	}
}

// responseBody picks the body framing the response headers announce.
// Without explicit framing the body runs until the server closes the
// connection, which surfaces as EOF.
func responseBody(ur *iolib.UntilReader, fields []httpwire.Field) (io.Reader, error) {
	if te, ok := httpwire.FindField(fields, "Transfer-Encoding"); ok {
		if !strings.EqualFold(te, "chunked") {
			return nil, errors.Errorf("unsupported transfer encoding %q", te)
		}
		return transfer.NewChunkedReader(ur), nil
	}

	if cl, ok := httpwire.FindField(fields, "Content-Length"); ok {
		n, err := strconv.ParseUint(cl, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing Content-Length %q", cl)
		}
		return iolib.LimitReader(ur, n), nil
	}

	return ur, nil
}
