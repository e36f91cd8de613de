package goslink

import (
	"context"
	"fmt"
	"time"

	"github.com/EarthScope/goslink/internal/mseed"
	"github.com/EarthScope/goslink/internal/platform"
)

// CollectResult is the outcome of one Collect/CollectNB call.
type CollectResult int

const (
	// ResultNoPacket means no record was ready this call (CollectNB only;
	// Collect never returns this, it keeps ticking until it has something
	// else to report).
	ResultNoPacket CollectResult = iota
	// ResultPacket means a Packet was delivered.
	ResultPacket
	// ResultTerminate is sticky: once returned, subsequent calls return it
	// without contacting the network.
	ResultTerminate
)

const pollInterval = 500 * time.Millisecond

// Collect blocks until a record is delivered, the session terminates, or
// ctx is canceled. It repeats the step function, sleeping up to 500ms
// between attempts when there is nothing yet to report.
func (c *Client) Collect(ctx context.Context) (CollectResult, *Packet, error) {
	for {
		result, pkt, err := c.step(ctx, true)
		if result != ResultNoPacket || err != nil {
			return result, pkt, err
		}
		select {
		case <-ctx.Done():
			return ResultTerminate, nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// CollectNB performs exactly one pass and returns ResultNoPacket if nothing
// is ready. In Data it waits at most 1ms for socket data; connecting and
// negotiating (the Down and Up passes) run synchronously and can block for
// up to the I/O timeout.
func (c *Client) CollectNB(ctx context.Context) (CollectResult, *Packet, error) {
	return c.step(ctx, false)
}

// step is the pure tick both Collect and CollectNB drive: it advances the
// connection lifecycle state machine by at most one transition and, in
// Data, attempts to extract one record from the receive buffer.
func (c *Client) step(ctx context.Context, blocking bool) (CollectResult, *Packet, error) {
	if c.state.terminated {
		return ResultTerminate, nil, nil
	}

	if c.state.terminateRequested {
		c.disconnect()
		c.state.state = Down
		c.state.terminated = true
		c.collectLog.Log("termination requested, session down")
		return ResultTerminate, nil, nil
	}

	if err := c.validate(); err != nil {
		c.state.terminated = true
		return ResultTerminate, nil, err
	}

	switch c.state.state {
	case Down:
		return c.tickDown(ctx)
	case Up:
		return c.tickUp(ctx)
	case Data:
		return c.tickData(ctx, blocking)
	}
	return ResultNoPacket, nil, nil
}

// tickDown attempts the Down->Up transition: when the reconnect delay has
// elapsed, open the socket, apply the I/O timeout, and send HELLO.
func (c *Client) tickDown(ctx context.Context) (CollectResult, *Packet, error) {
	if now := platform.Now(); now < c.state.netdlyReadyAt {
		return ResultNoPacket, nil, nil
	}

	if err := c.dial(ctx); err != nil {
		c.collectLog.Error("connect to %s failed: %v", c.Addr, err)
		c.armReconnectDelay()
		return ResultNoPacket, nil, nil
	}

	l := newLineIO(c.conn)
	if err := c.sayHello(l); err != nil {
		c.collectLog.Error("HELLO failed: %v", err)
		c.disconnect()
		c.armReconnectDelay()
		return ResultNoPacket, nil, nil
	}

	c.lio = l
	c.state.state = Up
	c.collectLog.Log("connected to %s, protocol v%.1f", c.Addr, c.ProtocolVersion)
	return ResultNoPacket, nil, nil
}

func (c *Client) armReconnectDelay() {
	c.state.netdlyReadyAt = platform.Now() + c.ReconnectDelay.Seconds()
	c.state.netdlyTrig = triggerArmed
}

// tickUp runs the remainder of negotiation (§4.2); on success it zeroes
// the receive buffer cursors and transitions to Data.
func (c *Client) tickUp(ctx context.Context) (CollectResult, *Packet, error) {
	if err := c.negotiateStations(c.lio); err != nil {
		c.collectLog.Error("negotiation failed: %v", err)
		c.disconnect()
		c.armReconnectDelay()
		c.state.state = Down
		return ResultNoPacket, nil, nil
	}

	c.state.recptr = 0
	c.state.sendptr = 0
	c.state.state = Data
	c.state.nettoTrig = triggerReset
	c.armNetworkTimeout()
	c.armKeepalive()
	c.collectLog.Log("session entering Data state")
	return ResultNoPacket, nil, nil
}

func (c *Client) armNetworkTimeout() {
	c.state.nettoDeadline = platform.Now() + c.NetworkTimeout.Seconds()
}

func (c *Client) armKeepalive() {
	if c.KeepaliveInterval > 0 {
		c.state.keepaliveDeadline = platform.Now() + c.KeepaliveInterval.Seconds()
	} else {
		c.state.keepaliveDeadline = 0
	}
}

// tickData reads available bytes (if any), checks timers, runs the record
// pipeline, and returns the first packet extracted, if any.
func (c *Client) tickData(ctx context.Context, blocking bool) (CollectResult, *Packet, error) {
	c.sendPendingInfoIfDue()

	readTimeout := 1 * time.Millisecond
	if blocking {
		readTimeout = pollInterval
	}

	n, readErr := c.readAvailable(readTimeout)
	if n > 0 {
		c.state.nettoTrig = triggerReset
		c.armNetworkTimeout()
	}

	result, pkt, pipelineErr := c.runPipeline()
	if pipelineErr != nil {
		c.collectLog.Error("protocol violation: %v", pipelineErr)
		c.disconnect()
		c.state.state = Down
		c.state.terminated = true
		return ResultTerminate, nil, pipelineErr
	}
	if result == ResultPacket {
		return ResultPacket, pkt, nil
	}

	if readErr != nil && !isTimeout(readErr) {
		c.collectLog.Error("read error, disconnecting: %v", readErr)
		c.disconnect()
		c.state.state = Down
		c.armReconnectDelay()
		return ResultNoPacket, nil, nil
	}

	if now := platform.Now(); c.state.nettoDeadline != 0 && now >= c.state.nettoDeadline {
		c.collectLog.Log("network idle timeout, disconnecting")
		c.disconnect()
		c.state.state = Down
		c.state.nettoTrig = triggerFired
		c.armReconnectDelay()
		return ResultNoPacket, nil, nil
	}

	if c.state.keepaliveDeadline != 0 && platform.Now() >= c.state.keepaliveDeadline {
		c.sendKeepalive()
	}

	return ResultNoPacket, nil, nil
}

func (c *Client) sendKeepalive() {
	if c.state.expectInfo {
		return
	}
	if err := c.lio.sendCommand("INFO ID"); err != nil {
		c.collectLog.Error("keepalive INFO ID failed: %v", err)
		return
	}
	c.state.expectInfo = true
	c.state.queryMode = KeepAliveQuery
	c.armKeepalive()
}

func (c *Client) sendPendingInfoIfDue() {
	if !c.hasPendingInfo || c.state.expectInfo {
		return
	}
	if err := c.lio.sendCommand("INFO " + c.pendingInfoLevel); err != nil {
		c.collectLog.Error("INFO request failed: %v", err)
		return
	}
	c.hasPendingInfo = false
	c.state.expectInfo = true
	c.state.queryMode = InfoQuery
}

// readAvailable reads whatever is available within timeout into the
// remaining receive buffer space, compacting first if needed. It reads
// through the same buffered reader negotiation used (c.lio.r), so any bytes
// the server coalesced into the same TCP segment as the final negotiation
// response — already pulled into the bufio.Reader's internal buffer — are
// drained before a fresh read ever touches the socket; bufio.Reader.Read
// only calls through to the underlying conn once its buffer is empty.
func (c *Client) readAvailable(timeout time.Duration) (int, error) {
	c.state.compact()
	if c.state.availableSpace() == 0 {
		return 0, fmt.Errorf("%w: receive buffer full with no frame boundary", ErrProtocolViolation)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := c.lio.r.Read(c.state.databuf[c.state.recptr:])
	if n > 0 {
		c.state.recptr += n
	}
	return n, err
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok {
		return te.Timeout()
	}
	return false
}

// runPipeline drains as many complete frames as needed from the buffer
// until one is ready for delivery, per §4.3's pipeline steps.
func (c *Client) runPipeline() (CollectResult, *Packet, error) {
	for {
		if result, pkt, err, handled := c.checkTerminalLiterals(); handled {
			return result, pkt, err
		}

		unread := c.state.unreadLen()
		if unread < 8+mseed.FixedHeaderSize {
			return ResultNoPacket, nil, nil
		}

		header := c.state.databuf[c.state.sendptr : c.state.sendptr+8]
		recordStart := c.state.sendptr + 8
		_, length := mseed.Detect(c.state.databuf[recordStart:c.state.recptr])

		if length < 0 {
			return ResultNoPacket, nil, fmt.Errorf("%w: unrecognized or corrupt record at offset %d", ErrProtocolViolation, c.state.sendptr)
		}
		if length == 0 || 8+length > unread {
			return ResultNoPacket, nil, nil
		}

		record := c.state.databuf[recordStart : recordStart+length]
		deliver, pkt, classifyErr := c.classifyAndUpdate(header, record)

		c.state.sendptr += 8 + length

		if classifyErr != nil {
			return ResultNoPacket, nil, classifyErr
		}
		if deliver {
			return ResultPacket, pkt, nil
		}
		// Not delivered (e.g. a consumed KeepAlive INFO record); keep
		// draining the buffer for the next frame.
	}
}

// checkTerminalLiterals implements the special empty-buffer literals from
// §4.3 step 2: an unread window of exactly "ERROR\r\n" is a terminal error,
// exactly "END" is a normal end of replay.
func (c *Client) checkTerminalLiterals() (CollectResult, *Packet, error, bool) {
	unread := c.state.databuf[c.state.sendptr:c.state.recptr]
	switch string(unread) {
	case "ERROR\r\n":
		c.state.sendptr = c.state.recptr
		return ResultNoPacket, nil, fmt.Errorf("%w: server sent ERROR", ErrProtocolViolation), true
	case "END":
		c.state.sendptr = c.state.recptr
		c.disconnect()
		c.state.state = Down
		c.state.terminated = true
		return ResultTerminate, nil, nil, true
	}
	return ResultNoPacket, nil, nil, false
}

// classifyAndUpdate handles one extracted frame: INFO sequencing, or a data
// record's stream-table update. It reports whether the packet should be
// delivered to the caller. A non-nil error means the frame violates the
// protocol and the session must terminate (§7).
func (c *Client) classifyAndUpdate(header, record []byte) (bool, *Packet, error) {
	if isInfoHeader(header) {
		terminated := header[7] != '*'
		if !c.state.expectInfo {
			c.collectLog.Diag("unexpected INFO packet received, discarding")
			return false, nil, nil
		}
		if terminated {
			wasKeepalive := c.state.queryMode == KeepAliveQuery
			c.state.expectInfo = false
			c.state.queryMode = NoQuery
			if wasKeepalive {
				return false, nil, nil
			}
		}
		return true, &Packet{header: header, record: record, isInfo: true, infoLast: terminated}, nil
	}

	if !isDataHeader(header) {
		return false, nil, fmt.Errorf("%w: frame header %q has neither SL nor SLINFO prefix", ErrProtocolViolation, header[:2])
	}

	seq, ok := parseSeqHex(header[2:8])
	if !ok {
		return false, nil, fmt.Errorf("%w: unreadable sequence number in header %q", ErrProtocolViolation, header)
	}

	fh, err := mseed.ParseFixedHeader(record)
	if err != nil {
		c.collectLog.Diag("discarding record with unparseable fixed header: %v", err)
		return false, nil, nil
	}

	ts := fh.CanonicalTimestamp()
	if n := c.streams.update(fh.Network, fh.Station, int32(seq), ts); n == 0 {
		c.streamLog.Diag("unexpected data received for %s.%s, no matching stream entry", fh.Network, fh.Station)
	}

	return true, &Packet{header: header, record: record, fixed: fh, hasFixed: true}, nil
}

func isInfoHeader(header []byte) bool {
	return len(header) >= 6 && string(header[0:6]) == "SLINFO"
}

// isDataHeader reports whether header carries the plain "SL" prefix (as
// opposed to "SLINFO", already handled by isInfoHeader, or neither).
func isDataHeader(header []byte) bool {
	return len(header) >= 2 && string(header[0:2]) == "SL"
}

// parseSeqHex parses the 6-character uppercase hex sequence field, valid
// only in [0, 0xFFFFFF].
func parseSeqHex(field []byte) (uint32, bool) {
	if len(field) != 6 {
		return 0, false
	}
	var v uint32
	for _, b := range field {
		var d uint32
		switch {
		case b >= '0' && b <= '9':
			d = uint32(b - '0')
		case b >= 'A' && b <= 'F':
			d = uint32(b-'A') + 10
		default:
			return 0, false
		}
		v = v<<4 | d
	}
	if v > 0xFFFFFF {
		return 0, false
	}
	return v, true
}
