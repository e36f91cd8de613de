package goslink

import (
	"fmt"
	"strings"

	"github.com/EarthScope/goslink/internal/glob"
)

const (
	uniNetwork = "XX"
	uniStation = "UNI"
)

// Stream is one subscription entry: a (network, station) pair, optional
// SeedLink selectors, and the resumption bookkeeping (last delivered
// sequence number and timestamp) a reconnect uses to pick up where the
// session left off.
type Stream struct {
	Net       string
	Sta       string
	Selectors string
	SeqNum    int32 // -1 means "from next", else in [0, 0xFFFFFF]
	Timestamp string
}

func (s *Stream) isUniStation() bool {
	return s.Net == uniNetwork && s.Sta == uniStation
}

// StreamList is the ordered subscription table a Client drives negotiation
// and resumption from.
type StreamList struct {
	entries []*Stream
}

// NewStreamList returns an empty subscription table.
func NewStreamList() *StreamList {
	return &StreamList{}
}

// Entries returns the subscription list in subscription order. The
// returned slice must not be mutated by the caller.
func (s *StreamList) Entries() []*Stream {
	return s.entries
}

// Len reports the number of subscribed streams.
func (s *StreamList) Len() int {
	return len(s.entries)
}

// IsUniStation reports whether the table holds the single uni-station
// entry rather than a list of per-station subscriptions.
func (s *StreamList) IsUniStation() bool {
	return len(s.entries) == 1 && s.entries[0].isUniStation()
}

// Add appends a per-station subscription. selectors is a space-separated
// list of SeedLink selectors or empty; net, sta and selectors are stored as
// given, and their lengths are not checked or truncated. seqnum of -1
// means "start at next"; otherwise it must be in [0, 0xFFFFFF]. timestamp,
// if non-empty, must already be in canonical YYYY,MM,DD,hh,mm,ss form.
//
// Add fails with ErrUniMultiConflict if the table already holds the
// uni-station entry.
func (s *StreamList) Add(net, sta, selectors string, seqnum int32, timestamp string) error {
	if s.IsUniStation() {
		return ErrUniMultiConflict
	}
	if err := validateSeqNum(seqnum); err != nil {
		return err
	}
	if err := validateTimestamp(timestamp); err != nil {
		return err
	}

	s.entries = append(s.entries, &Stream{
		Net:       net,
		Sta:       sta,
		Selectors: selectors,
		SeqNum:    seqnum,
		Timestamp: timestamp,
	})
	return nil
}

// SetUniStation configures the table for uni-station mode: a single
// session-scope subscription with no per-station STATION command. It fails
// with ErrUniMultiConflict if any entries are already present.
func (s *StreamList) SetUniStation(selectors string, seqnum int32, timestamp string) error {
	if len(s.entries) > 0 {
		return ErrUniMultiConflict
	}
	if err := validateSeqNum(seqnum); err != nil {
		return err
	}
	if err := validateTimestamp(timestamp); err != nil {
		return err
	}

	s.entries = []*Stream{{
		Net:       uniNetwork,
		Sta:       uniStation,
		Selectors: selectors,
		SeqNum:    seqnum,
		Timestamp: timestamp,
	}}
	return nil
}

func validateSeqNum(seqnum int32) error {
	if seqnum == -1 {
		return nil
	}
	if seqnum < 0 || seqnum > 0xFFFFFF {
		return ErrSequenceOutOfRange
	}
	return nil
}

func validateTimestamp(ts string) error {
	if ts == "" {
		return nil
	}
	parts := strings.Split(ts, ",")
	if len(parts) != 6 {
		return ErrInvalidTimestamp
	}
	return nil
}

// update applies a delivered record's (net, sta, seqnum, timestamp) to
// every matching entry, per §4.4: uni-station updates unconditionally,
// multi-station glob-matches net and sta independently. It returns the
// number of entries updated; zero means "no match".
func (s *StreamList) update(net, sta string, seqnum int32, timestamp string) int {
	if s.IsUniStation() {
		e := s.entries[0]
		e.SeqNum = seqnum
		e.Timestamp = timestamp
		return 1
	}

	updated := 0
	for _, e := range s.entries {
		if glob.Match(e.Net, net) && glob.Match(e.Sta, sta) {
			e.SeqNum = seqnum
			e.Timestamp = timestamp
			updated++
		}
	}
	return updated
}

// resumeSeq returns the sequence argument to resume from: the stream's own
// seqnum + 1 (modulo 2^24), or -1 (rendered without a numeric argument) if
// the stream has never delivered a record.
func (e *Stream) resumeSeq() int32 {
	if e.SeqNum < 0 {
		return -1
	}
	return int32((uint32(e.SeqNum) + 1) % 0x1000000)
}

func (e *Stream) resumeHex() string {
	seq := e.resumeSeq()
	if seq < 0 {
		return ""
	}
	return fmt.Sprintf("%06X", seq)
}
