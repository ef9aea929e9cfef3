package transport

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type PipeConnTestSuite struct {
	suite.Suite
	c1, c2 Conn
}

func TestPipeConnTestSuite(t *testing.T) {
	suite.Run(t, new(PipeConnTestSuite))
}

func (s *PipeConnTestSuite) SetupTest() {
	s.c1, s.c2 = Pipe()
}

func (s *PipeConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.c1.Close())
	s.NoError(s.c2.Close())
}

func (s *PipeConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.c1.Write(data)
		s.Require().NoError(err)
		s.Equal(len(data), n)
	}()
	go func() {
		defer wg.Done()
		buf := make([]byte, 10)

		n, err := s.c2.Read(buf)
		s.Require().NoError(err)
		s.Equal(len(buf), n)
		s.Equal(data[:n], buf)

		// Leftover from the short read is served next.
		n, err = s.c2.Read(buf)
		s.Require().NoError(err)
		s.Equal(len(data)-len(buf), n)
		s.Equal(data[len(buf):], buf[:n])
	}()
}

func (s *PipeConnTestSuite) TestPeerCloseReadsEOF() {
	s.Require().NoError(s.c1.Close())

	n, err := s.c2.Read(make([]byte, 4))
	s.Zero(n)
	s.ErrorIs(err, io.EOF)
}

func (s *PipeConnTestSuite) TestOwnCloseFailsIO() {
	s.Require().NoError(s.c1.Close())

	n, err := s.c1.Read(make([]byte, 4))
	s.Zero(n)
	s.ErrorIs(err, ErrConnClosed)

	n, err = s.c1.Write([]byte("hey"))
	s.Zero(n)
	s.ErrorIs(err, ErrConnClosed)
}

func (s *PipeConnTestSuite) TestReadDeadline() {
	s.Require().NoError(s.c1.SetReadDeadline(time.Now().Add(-time.Second)))

	n, err := s.c1.Read(make([]byte, 1))
	s.Zero(n)
	s.ErrorIs(err, ErrDeadlineExceeded)
}

func (s *PipeConnTestSuite) TestWriteDeadline() {
	s.Require().NoError(s.c1.SetWriteDeadline(time.Now().Add(-time.Second)))

	n, err := s.c1.Write(make([]byte, 1))
	s.Zero(n)
	s.ErrorIs(err, ErrDeadlineExceeded)
}
