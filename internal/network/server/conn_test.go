package server

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPFrameConn_RoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	fc := newTCPFrameConn(serverConn)

	go func() {
		_, _ = clientConn.Write([]byte("hello\r\n"))
	}()

	frame, err := fc.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), frame)
}

func TestTCPFrameConn_OversizeFrameRejected(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	fc := newTCPFrameConn(serverConn)

	go func() {
		_ = clientConn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		big := bytes.Repeat([]byte{'a'}, maxFrameSize+1)
		_, _ = clientConn.Write(append(big, '\n'))
	}()

	_, err := fc.ReadFrame()
	assert.Error(t, err)
}
