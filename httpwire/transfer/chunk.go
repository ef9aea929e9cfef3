// Package transfer implements the chunked transfer coding
// (RFC 9112 §7.1) as a lazy decoding reader.
package transfer

import (
	"bytes"
	"io"
	"strconv"

	"smartgit/httpwire"
	iolib "smartgit/lib/io"

	"github.com/pkg/errors"
)

var ErrChunkFormat = errors.New("malformed chunk framing")

// ChunkedReader turns a chunked message body into a plain byte stream.
// Chunk extensions are ignored and trailer fields are consumed and
// discarded; after the last chunk every Read returns [io.EOF].
type ChunkedReader struct {
	ur *iolib.UntilReader

	remaining uint64 // bytes left in the current chunk
	inChunk   bool
	done      bool

	crlf [2]byte
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	ur, ok := r.(*iolib.UntilReader)
	if !ok {
		ur = iolib.NewUntilReader(r)
	}
	return &ChunkedReader{ur: ur}
}

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if !cr.inChunk {
		size, err := cr.readChunkSize()
		if err != nil {
			return 0, err
		}

		if size == 0 {
			// Last chunk. Consume the trailer section.
			if err := cr.discardTrailers(); err != nil {
				return 0, err
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remaining = size
		cr.inChunk = true
	}

	if uint64(len(b)) > cr.remaining {
		b = b[:cr.remaining]
	}

	n, err := cr.ur.Read(b)
	cr.remaining -= uint64(n)

	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remaining == 0 {
		if _, err := io.ReadFull(cr.ur, cr.crlf[:]); err != nil {
			return n, errors.Wrap(err, "reading chunk delimiter")
		}
		if !bytes.Equal(cr.crlf[:], []byte("\r\n")) {
			return n, errors.Wrap(ErrChunkFormat, "chunk data not followed by CRLF")
		}
		cr.inChunk = false
	}

	return n, nil
}

func (cr *ChunkedReader) readChunkSize() (uint64, error) {
	line, err := httpwire.ReadLine(cr.ur)
	if err != nil {
		return 0, errors.Wrap(err, "reading chunk size line")
	}

	// Chunk extensions after ';' are ignored.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimSpace(sizeRaw)

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrChunkFormat, "decoding chunk size %q", string(sizeRaw))
	}

	return size, nil
}

func (cr *ChunkedReader) discardTrailers() error {
	for {
		line, err := httpwire.ReadLine(cr.ur)
		if err != nil {
			return errors.Wrap(err, "reading trailer line")
		}

		if len(line) == 0 {
			// Last trailer line.
			return nil
		}
	}
}
