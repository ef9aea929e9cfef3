package httpwire

import (
	"bytes"
	"io"
	"testing"

	iolib "smartgit/lib/io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	testcases := []struct {
		desc     string
		input    []byte
		expected []byte
		wantErr  error
	}{
		{
			desc:     "crlf terminated",
			input:    []byte("Host: example.com\r\nrest"),
			expected: []byte("Host: example.com"),
		},
		{
			desc:     "empty line",
			input:    []byte("\r\n"),
			expected: []byte{},
		},
		{
			desc:    "bare LF",
			input:   []byte("Host: example.com\n"),
			wantErr: ErrMissingCRBeforeLF,
		},
		{
			desc:    "non-ASCII bytes",
			input:   []byte("Host: \xc3\xa9xample.com\r\n"),
			wantErr: ErrLineNotASCII,
		},
		{
			desc:    "EOF before terminator",
			input:   []byte("Host: example.com"),
			wantErr: io.ErrUnexpectedEOF,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			ur := iolib.NewUntilReader(bytes.NewReader(tc.input))

			line, err := ReadLine(ur)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, line)
		})
	}
}

func TestReadLineLeavesBody(t *testing.T) {
	ur := iolib.NewUntilReader(bytes.NewReader([]byte("\r\nBODY")))

	line, err := ReadLine(ur)
	require.NoError(t, err)
	assert.Empty(t, line)

	body, err := io.ReadAll(ur)
	require.NoError(t, err)
	assert.Equal(t, []byte("BODY"), body)
}
