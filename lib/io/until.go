package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// UntilReader reads delimiter-terminated records from a stream without
// consuming bytes past the delimiter. ReadUntil pulls one byte at a
// time, so everything after the delimiter is still available to the
// next Read or ReadUntil call.
type UntilReader struct {
	r   io.Reader
	one [1]byte
}

var _ io.Reader = (*UntilReader)(nil)

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	return ur.r.Read(p)
}

var ErrZeroLenDelim = errors.New("delim has zero length")

// ReadUntil reads until delim. The output includes delim.
// EOF before delim is reported as [io.ErrUnexpectedEOF].
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	out := make([]byte, 0, 64)
	for {
		n, err := ur.r.Read(ur.one[:])
		if n > 0 {
			out = append(out, ur.one[0])
			if bytes.HasSuffix(out, delim) {
				return out, nil
			}
		}

		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return out, err
		}
	}
}
