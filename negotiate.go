package goslink

import (
	"fmt"
	"strconv"
	"strings"
)

// batchProtocolVersion is the minimum negotiated protocol version at which
// BATCH is sent.
const batchProtocolVersion = 3.0

// negotiateStations runs the rest of the §4.2 command sequence once HELLO
// has already completed (during the Down->Up transition): optional BATCH,
// then either uni-station DATA/FETCH/TIME or per-station
// STATION/SELECT/resume/END.
func (c *Client) negotiateStations(l *lineIO) error {
	if c.ProtocolVersion >= batchProtocolVersion {
		if err := l.sendCommand("BATCH"); err != nil {
			return err
		}
		resp, err := l.readLine()
		if err != nil {
			return err
		}
		if resp == "OK" {
			c.Batch = BatchActivated
		} else {
			c.Batch = BatchOff
		}
	}

	if c.streams.IsUniStation() || c.streams.Len() == 0 {
		return c.negotiateUniStation(l)
	}
	return c.negotiateMultiStation(l)
}

func (c *Client) sayHello(l *lineIO) error {
	if err := l.sendCommand("HELLO"); err != nil {
		return err
	}
	serverLine, err := l.readLine()
	if err != nil {
		return fmt.Errorf("%w: reading HELLO response: %v", ErrNegotiationFailed, err)
	}
	// The station-count line is informational only; discard it.
	if _, err := l.readLine(); err != nil {
		return fmt.Errorf("%w: reading HELLO station count: %v", ErrNegotiationFailed, err)
	}

	fields := strings.Fields(serverLine)
	for _, f := range fields {
		if strings.HasPrefix(f, "v") && strings.Contains(f, ".") {
			if v, err := strconv.ParseFloat(strings.TrimPrefix(f, "v"), 64); err == nil {
				c.ProtocolVersion = v
			}
		}
	}
	// The server id is the last whitespace-separated token of the first line.
	if len(fields) > 0 {
		c.ServerID = fields[len(fields)-1]
	}
	return nil
}

func (c *Client) negotiateUniStation(l *lineIO) error {
	var entry *Stream
	if c.streams.Len() == 1 {
		entry = c.streams.entries[0]
		if entry.Selectors != "" {
			for _, sel := range strings.Fields(entry.Selectors) {
				if err := l.sendAndExpectOK("SELECT " + sel); err != nil {
					c.negotiateLog.Diag("uni-station SELECT %q rejected: %v", sel, err)
				}
			}
		}
	}
	return l.sendCommand(c.resumeCommand(entry))
}

func (c *Client) negotiateMultiStation(l *lineIO) error {
	active := 0
	for _, e := range c.streams.Entries() {
		if err := l.sendAndExpectOK(fmt.Sprintf("STATION %s %s", e.Sta, e.Net)); err != nil {
			c.negotiateLog.Error("station %s.%s rejected by server, skipping: %v", e.Net, e.Sta, err)
			continue
		}

		for _, sel := range strings.Fields(e.Selectors) {
			if err := l.sendAndExpectOK("SELECT " + sel); err != nil {
				c.negotiateLog.Diag("selector %q rejected for %s.%s: %v", sel, e.Net, e.Sta, err)
			}
		}

		if err := l.sendAndExpectOK(c.resumeCommand(e)); err != nil {
			c.negotiateLog.Error("resume command rejected for %s.%s, dropping subscription: %v", e.Net, e.Sta, err)
			continue
		}
		active++
	}

	if active == 0 {
		return fmt.Errorf("%w: no stations accepted by server", ErrNegotiationFailed)
	}

	return l.sendCommand("END")
}

// resumeCommand renders the resume command for a subscription per §4.2's
// selection rule: TIME if an explicit begin_time is set, else FETCH if
// dialup, else DATA. The trailing timestamp is only appended when
// lastpkttime is set and a timestamp is known.
func (c *Client) resumeCommand(e *Stream) string {
	if c.BeginTime != "" {
		if c.EndTime != "" {
			return fmt.Sprintf("TIME %s %s", c.BeginTime, c.EndTime)
		}
		return fmt.Sprintf("TIME %s", c.BeginTime)
	}

	verb := "DATA"
	if c.Dialup {
		verb = "FETCH"
	}

	if e == nil {
		return verb
	}

	seq := e.resumeSeq()
	if seq < 0 {
		return verb
	}
	hex := fmt.Sprintf("%X", seq)

	if c.LastPktTime && e.Timestamp != "" {
		return fmt.Sprintf("%s %s %s", verb, hex, e.Timestamp)
	}
	return fmt.Sprintf("%s %s", verb, hex)
}
