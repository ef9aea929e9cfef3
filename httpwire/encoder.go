package httpwire

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Request is a fully materialized request message. The body is a byte
// slice rather than a reader: the caller hands the complete payload in
// one piece and its length goes out as Content-Length.
type Request struct {
	Method  string
	Target  string
	Version Version

	Headers []Field

	Body []byte
}

type RequestEncoder struct {
	bw *bufio.Writer
}

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{bw: bufio.NewWriter(w)}
}

func (re *RequestEncoder) Encode(request Request) error {
	if err := re.encodeRequestLine(request); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	for _, field := range request.Headers {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// An empty line closes the header section.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing header terminator")
	}

	if len(request.Body) > 0 {
		if _, err := re.bw.Write(request.Body); err != nil {
			return errors.Wrap(err, "writing request body")
		}
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request")
	}

	return nil
}

func (re *RequestEncoder) encodeRequestLine(request Request) error {
	buf := bytes.NewBuffer(nil)

	buf.WriteString(request.Method)
	buf.WriteByte(sp)
	buf.WriteString(request.Target)
	buf.WriteByte(sp)
	buf.Write(request.Version.Text())

	return re.writeLine(buf.Bytes())
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := re.bw.Write([]byte{cr, lf}); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}
