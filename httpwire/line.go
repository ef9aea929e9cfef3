package httpwire

import (
	iolib "smartgit/lib/io"

	"github.com/pkg/errors"
)

var (
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")
	ErrLineNotASCII      = errors.New("line contains non-ASCII bytes")
)

// ReadLine reads one CRLF-terminated line from ur and returns it with
// the terminator cut. A bare LF or any byte outside the ASCII range is
// rejected: lenient parsing here would let a broken proxy response
// reach the pack-protocol parser behind the stream.
func ReadLine(ur *iolib.UntilReader) ([]byte, error) {
	b, err := ur.ReadUntil([]byte{lf})
	if err != nil {
		return nil, err
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) == 0 || b[len(b)-1] != cr {
		return nil, ErrMissingCRBeforeLF
	}
	b = b[:len(b)-1] // Remove CR.

	for _, c := range b {
		if c > 0x7F {
			return nil, ErrLineNotASCII
		}
	}

	return b, nil
}
