package frontend

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommServer(t *testing.T) {
	t.Parallel()
	s, _ := setup(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	srv := NewCommServer(s)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.Nil(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	roundTrip := func(req string) string {
		_, err := conn.Write([]byte(req + "\r\n"))
		require.Nil(t, err)
		line, err := r.ReadString('\n')
		require.Nil(t, err)
		return line
	}

	assert.Equal(t, "OK 1700000000\r\n", roundTrip("GET deviceTime"))
	assert.Equal(t, "ERROR\r\n", roundTrip("GET nothing"))
	assert.Equal(t, "OK time,tubePulseCount;;1700000000,0\r\n", roundTrip("GET datalog"))

	srv.Shutdown()
	assert.Nil(t, <-done)
	_, err = r.ReadString('\n')
	assert.Error(t, err)
}
