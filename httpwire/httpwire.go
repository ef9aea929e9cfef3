// Package httpwire implements the minimal HTTP/1.x message subset a
// smart subtransport needs: request encoding, status-line parsing and
// header-field parsing. It is not a general HTTP client.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package httpwire

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	cr byte = '\r'
	lf byte = '\n'
	sp byte = ' '
)

// OWS is the set of optional whitespace characters around field values.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
var ows = []byte{sp, '\t'}

// [Major, Minor]
type Version [2]uint

// ParseVersion parses http version text (e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot separator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertible to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("HTTP/")
	buf.WriteString(strconv.FormatUint(uint64(ver[0]), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(ver[1]), 10))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

type Field struct{ Name, Value []byte }

func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon separator not found on header: %q", string(fieldLine))
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	for _, c := range ows {
		if bytes.HasSuffix(name, []byte{c}) {
			return Field{}, errors.New("field name has trailing whitespace")
		}
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
	for _, c := range ows {
		value = bytes.Trim(value, string([]byte{c}))
	}

	return Field{Name: name, Value: value}, nil
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(f.Name)
	buf.WriteString(": ")
	buf.Write(f.Value)
	return buf.Bytes()
}

// FindField returns the value of the first field matching name,
// case-insensitively.
func FindField(fields []Field, name string) (value string, ok bool) {
	for _, f := range fields {
		if strings.EqualFold(string(f.Name), name) {
			return string(f.Value), true
		}
	}
	return "", false
}

type StatusLine struct {
	Version      Version
	Code         uint
	ReasonPhrase string
}

// ParseStatusLine parses a status line such as "HTTP/1.1 200 OK".
func ParseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{sp}, 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.Errorf("status line is malformed: %q", string(line))
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	codeStr := string(parts[1])
	code, err := strconv.ParseUint(codeStr, 10, 64)
	if err != nil || len(codeStr) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", codeStr)
	}

	// reason-phrase is optional.
	var reason string
	if len(parts) == 3 {
		reason = string(parts[2])
	}

	return StatusLine{Version: ver, Code: uint(code), ReasonPhrase: reason}, nil
}
