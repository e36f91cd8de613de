package goslink

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer wraps one half of a net.Pipe with line-oriented helpers a test
// can use to script the server side of a negotiation.
type fakeServer struct {
	conn net.Conn
	r    *bufio.Reader
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{conn: conn, r: bufio.NewReader(conn)}
}

func (f *fakeServer) expect(t *testing.T, want string) {
	t.Helper()
	line, err := f.r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, want+"\r\n", line)
}

func (f *fakeServer) send(t *testing.T, line string) {
	t.Helper()
	_, err := f.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func newPipeClient() (*Client, net.Conn) {
	clientConn, serverConn := net.Pipe()
	c := NewClient("example.org:18000", DefaultLogger("test"))
	c.conn = clientConn
	return c, serverConn
}

func TestSayHelloParsesVersionAndServerID(t *testing.T) {
	c, serverConn := newPipeClient()
	srv := newFakeServer(serverConn)

	done := make(chan error, 1)
	go func() {
		l := newLineIO(c.conn)
		done <- c.sayHello(l)
	}()

	srv.expect(t, "HELLO")
	srv.send(t, "SeedLink v3.1 SL-test")
	srv.send(t, "TESTSERVER")

	require.NoError(t, <-done)
	assert.Equal(t, 3.1, c.ProtocolVersion)
	assert.Equal(t, "SL-test", c.ServerID)
}

func TestNegotiateMultiStationHandshake(t *testing.T) {
	c, serverConn := newPipeClient()
	c.ProtocolVersion = 3.1
	srv := newFakeServer(serverConn)
	require.NoError(t, c.Streams().Add("GE", "WLF", "BH?.D", -1, ""))

	done := make(chan error, 1)
	go func() {
		l := newLineIO(c.conn)
		done <- c.negotiateStations(l)
	}()

	srv.expect(t, "BATCH")
	srv.send(t, "OK")
	srv.expect(t, "STATION WLF GE")
	srv.send(t, "OK")
	srv.expect(t, "SELECT BH?.D")
	srv.send(t, "OK")
	srv.expect(t, "DATA")
	srv.send(t, "OK")
	srv.expect(t, "END")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for negotiateStations to finish")
	}
	assert.Equal(t, BatchActivated, c.Batch)
}

func TestNegotiateResumeCommandUsesStationSeqPlusOne(t *testing.T) {
	c, serverConn := newPipeClient()
	c.ProtocolVersion = 3.1
	c.LastPktTime = true
	srv := newFakeServer(serverConn)
	require.NoError(t, c.Streams().Add("GE", "WLF", "", 0xAB, "2024,01,01,00,00,00"))

	done := make(chan error, 1)
	go func() {
		l := newLineIO(c.conn)
		done <- c.negotiateStations(l)
	}()

	srv.expect(t, "BATCH")
	srv.send(t, "ERROR")
	srv.expect(t, "STATION WLF GE")
	srv.send(t, "OK")
	srv.expect(t, "DATA AC 2024,01,01,00,00,00")
	srv.send(t, "OK")
	srv.expect(t, "END")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	assert.Equal(t, BatchOff, c.Batch)
}
