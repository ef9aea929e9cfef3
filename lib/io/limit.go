package iolib

import "io"

// LimitReader returns a reader that reads from r but stops with
// [io.EOF] after n bytes. It is [io.LimitedReader] with an unsigned
// count, so body lengths never go negative.
func LimitReader(r io.Reader, n uint64) io.Reader { return &LimitedReader{R: r, N: n} }

type LimitedReader struct {
	R io.Reader // underlying reader
	N uint64    // max bytes remaining
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= uint64(n)
	return
}
