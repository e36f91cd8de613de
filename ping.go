package goslink

import (
	"context"
	"time"

	"github.com/EarthScope/goslink/internal/platform"
)

// Ping dials addr, runs only the HELLO step of negotiation against a fresh
// connection, and returns the server id and negotiated protocol version
// without entering the session state machine. It is a one-shot probe, the
// Go equivalent of the original client's sl_ping(): useful for callers
// that want to validate reachability and protocol version before building
// a full Client.
func Ping(ctx context.Context, addr string, timeout time.Duration) (serverID string, protocolVer float64, err error) {
	conn, err := platform.Dial(ctx, addr)
	if err != nil {
		return "", 0, err
	}
	defer conn.Close()

	if err := platform.SetIOTimeout(conn, timeout); err != nil {
		return "", 0, err
	}

	probe := &Client{Addr: addr}
	l := newLineIO(conn)
	if err := probe.sayHello(l); err != nil {
		return "", 0, err
	}
	return probe.ServerID, probe.ProtocolVersion, nil
}
