package goslink

import (
	"time"

	"github.com/EarthScope/goslink/internal/mseed"
)

// Packet is a delivered SeedLink frame: an 8-byte header plus the miniSEED
// record it carries. It borrows from the session's receive buffer and is
// valid only until the next Collect/CollectNB call.
type Packet struct {
	header []byte // 8 bytes
	record []byte // the miniSEED record, record length bytes

	isInfo   bool
	infoLast bool

	fixed    mseed.FixedHeader
	hasFixed bool
}

// IsInfo reports whether this packet is an INFO response record rather
// than a data record.
func (p *Packet) IsInfo() bool { return p.isInfo }

// InfoTerminated reports whether this INFO packet is the last record of
// its response (terminator byte is not '*'). Meaningless for data packets.
func (p *Packet) InfoTerminated() bool { return p.infoLast }

// SequenceNumber returns the 24-bit SeedLink sequence number from the
// frame header. Meaningless for INFO packets.
func (p *Packet) SequenceNumber() uint32 {
	seq, _ := parseSeqHex(p.header[2:8])
	return seq
}

// Record returns the raw miniSEED record bytes.
func (p *Packet) Record() []byte { return p.record }

// Network returns the trimmed 2-character network code from the record's
// fixed header.
func (p *Packet) Network() string {
	p.ensureFixed()
	return p.fixed.Network
}

// Station returns the trimmed 5-character station code.
func (p *Packet) Station() string {
	p.ensureFixed()
	return p.fixed.Station
}

// StartTime returns the record's start time as a time.Time in UTC.
func (p *Packet) StartTime() time.Time {
	p.ensureFixed()
	month, day := mseed.DayOfYearToMonthDay(int(p.fixed.Year), int(p.fixed.Day))
	fractNanos := int(p.fixed.Fract) * 100000 // 1/10000s units -> ns
	return time.Date(int(p.fixed.Year), time.Month(month), day,
		int(p.fixed.Hour), int(p.fixed.Min), int(p.fixed.Sec), fractNanos, time.UTC)
}

// Type classifies the packet per §2 item 12 / §4.3's addition.
func (p *Packet) Type() PacketType {
	if p.isInfo {
		if p.infoLast {
			return InfoTerminatedType
		}
		return InfoType
	}
	return classifyDataPacket(p.record)
}

func (p *Packet) ensureFixed() {
	if p.hasFixed {
		return
	}
	if h, err := mseed.ParseFixedHeader(p.record); err == nil {
		p.fixed = h
		p.hasFixed = true
	}
}
