// Package mseed implements the miniSEED 2/3 record boundary detector and
// the fixed-header field access the record pipeline needs. It has no
// dependency on the rest of goslink and no network awareness: it operates
// purely on byte slices handed to it by the session's receive buffer.
package mseed

import (
	"encoding/binary"
	"fmt"
)

// Version identifies which miniSEED generation a detected record belongs to.
type Version int

const (
	// Unknown means the bytes do not look like a miniSEED record at all.
	Unknown Version = 0
	V2      Version = 2
	V3      Version = 3
)

// FixedHeaderSize is the length of a miniSEED 2 fixed header.
const FixedHeaderSize = 48

// MS3FixedHeaderSize is the length of the fixed portion of a miniSEED 3
// header, before the variable-length source identifier, extra headers and
// data payload.
const MS3FixedHeaderSize = 40

// Detect inspects the start of buf and reports whether it holds a
// recognizable miniSEED record, and if so, how long that record is.
//
// Returned length > 0 means the record's full length is known.
// Returned length == 0 means the format was recognized but buf is too
// short to determine the length (caller should read more and retry).
// Returned length < 0 means buf does not hold a miniSEED record, or holds
// a structurally broken one (invalid blockette chain).
//
// buf must have len(buf) >= 48; callers are expected to only invoke Detect
// once at least a full fixed header's worth of bytes is available.
func Detect(buf []byte) (Version, int) {
	if len(buf) < FixedHeaderSize {
		return Unknown, -1
	}

	if buf[0] == 'M' && buf[1] == 'S' && buf[2] == 3 {
		return detectV3(buf)
	}

	return detectV2(buf)
}

func detectV3(buf []byte) (Version, int) {
	if len(buf) < MS3FixedHeaderSize+1 {
		return V3, 0
	}

	sidLen := int(buf[33])
	extraLen := int(binary.LittleEndian.Uint16(buf[34:36]))
	dataLen := int(binary.LittleEndian.Uint32(buf[36:40]))

	return V3, MS3FixedHeaderSize + sidLen + extraLen + dataLen
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func detectV2(buf []byte) (Version, int) {
	for i := 0; i < 6; i++ {
		if !isDigit(buf[i]) {
			return Unknown, -1
		}
	}
	switch buf[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return Unknown, -1
	}
	if buf[7] != ' ' {
		return Unknown, -1
	}

	hdr := buf
	year := binary.BigEndian.Uint16(hdr[20:22])
	day := binary.BigEndian.Uint16(hdr[22:24])
	swapped := false
	if year < 1900 || year > 2050 || day < 1 || day > 366 {
		swapped = true
		hdr = swapHeaderCopy(buf)
	}

	blktOffset := int(binary.BigEndian.Uint16(hdr[46:48]))
	if blktOffset == 0 {
		// No blockette chain: fall back to scanning for the next header.
		return scanForNextV2(buf, swapped)
	}

	visited := map[int]bool{}
	for blktOffset != 0 {
		if blktOffset <= FixedHeaderSize-1 || blktOffset+4 > len(buf) {
			if blktOffset+4 > len(buf) {
				return V2, 0
			}
			return Unknown, -1
		}
		if visited[blktOffset] {
			return Unknown, -1
		}
		visited[blktOffset] = true

		var blktType, nextBlkt uint16
		if swapped {
			blktType = binary.LittleEndian.Uint16(buf[blktOffset : blktOffset+2])
			nextBlkt = binary.LittleEndian.Uint16(buf[blktOffset+2 : blktOffset+4])
		} else {
			blktType = binary.BigEndian.Uint16(buf[blktOffset : blktOffset+2])
			nextBlkt = binary.BigEndian.Uint16(buf[blktOffset+2 : blktOffset+4])
		}

		if blktType == 1000 {
			if blktOffset+8 > len(buf) {
				return V2, 0
			}
			field := buf[blktOffset+6]
			return V2, 1 << field
		}

		if nextBlkt != 0 && (nextBlkt < 4 || int(nextBlkt)-4 <= blktOffset) {
			return Unknown, -1
		}
		blktOffset = int(nextBlkt)
	}

	return scanForNextV2(buf, swapped)
}

// scanForNextV2 looks for the start of a subsequent, independently valid
// miniSEED 2 fixed header at 64-byte offsets, the same heuristic the
// original detector falls back to when no blockette 1000 pins down the
// length directly.
func scanForNextV2(buf []byte, _ bool) (Version, int) {
	for offset := 64; offset+FixedHeaderSize <= len(buf); offset += 64 {
		candidate := buf[offset:]
		if looksLikeV2Header(candidate) {
			return V2, offset
		}
	}
	return V2, 0
}

func looksLikeV2Header(buf []byte) bool {
	if len(buf) < FixedHeaderSize {
		return false
	}
	for i := 0; i < 6; i++ {
		if !isDigit(buf[i]) {
			return false
		}
	}
	switch buf[6] {
	case 'D', 'R', 'Q', 'M':
	default:
		return false
	}
	return buf[7] == ' '
}

func swapHeaderCopy(buf []byte) []byte {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	Swap2(cp[20:22])
	Swap2(cp[22:24])
	Swap2(cp[46:48])
	return cp
}

// Swap2 reverses a 2-byte field in place.
func Swap2(b []byte) {
	if len(b) < 2 {
		return
	}
	b[0], b[1] = b[1], b[0]
}

// Swap4 reverses a 4-byte field in place.
func Swap4(b []byte) {
	if len(b) < 4 {
		return
	}
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
}

// Swap8 reverses an 8-byte field in place.
func Swap8(b []byte) {
	if len(b) < 8 {
		return
	}
	for i, j := 0, 7; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// FixedHeader is the decoded form of a miniSEED 2 48-byte fixed header.
type FixedHeader struct {
	SequenceNumber string
	QualityFlag    byte
	Station        string
	Location       string
	Channel        string
	Network        string
	Year           uint16
	Day            uint16
	Hour, Min, Sec uint8
	Fract          uint16
	NumSamples     uint16
	BeginBlockette uint16
	Swapped        bool
}

// ParseFixedHeader decodes the 48-byte miniSEED 2 fixed header at the start
// of buf, byte-swapping the year/day/fract/num-samples/begin-blockette
// fields if the year fails the [1900,2050] or the day-of-year fails the
// [1,366] sanity check, matching the value-dependent byte-swap rule used by
// Detect.
func ParseFixedHeader(buf []byte) (FixedHeader, error) {
	if len(buf) < FixedHeaderSize {
		return FixedHeader{}, fmt.Errorf("mseed: fixed header needs %d bytes, got %d", FixedHeaderSize, len(buf))
	}

	var h FixedHeader
	h.SequenceNumber = string(buf[0:6])
	h.QualityFlag = buf[6]
	h.Station = trimSpace(buf[8:13])
	h.Location = trimSpace(buf[13:15])
	h.Channel = trimSpace(buf[15:18])
	h.Network = trimSpace(buf[18:20])

	year := binary.BigEndian.Uint16(buf[20:22])
	day := binary.BigEndian.Uint16(buf[22:24])
	swapped := year < 1900 || year > 2050 || day < 1 || day > 366
	h.Swapped = swapped

	if swapped {
		yearBytes := append([]byte(nil), buf[20:22]...)
		dayBytes := append([]byte(nil), buf[22:24]...)
		fractBytes := append([]byte(nil), buf[28:30]...)
		nsBytes := append([]byte(nil), buf[30:32]...)
		Swap2(yearBytes)
		Swap2(dayBytes)
		Swap2(fractBytes)
		Swap2(nsBytes)
		h.Year = binary.BigEndian.Uint16(yearBytes)
		h.Day = binary.BigEndian.Uint16(dayBytes)
		h.Fract = binary.BigEndian.Uint16(fractBytes)
		h.NumSamples = binary.BigEndian.Uint16(nsBytes)
	} else {
		h.Year = year
		h.Day = day
		h.Fract = binary.BigEndian.Uint16(buf[28:30])
		h.NumSamples = binary.BigEndian.Uint16(buf[30:32])
	}

	h.Hour = buf[24]
	h.Min = buf[25]
	h.Sec = buf[26]
	h.BeginBlockette = binary.BigEndian.Uint16(buf[46:48])
	if swapped {
		h.BeginBlockette = binary.LittleEndian.Uint16(buf[46:48])
	}

	return h, nil
}

func trimSpace(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}

// DayOfYearToMonthDay converts a (year, day-of-year) pair to a calendar
// (month, day), accounting for leap years.
func DayOfYearToMonthDay(year int, yday int) (month, day int) {
	leap := 0
	if isLeapYear(year) {
		leap = 1
	}
	days := [...]int{31, 28 + leap, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	remaining := yday
	for i, d := range days {
		if remaining <= d {
			return i + 1, remaining
		}
		remaining -= d
	}
	return 12, 31
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// CanonicalTimestamp renders a parsed header's start time in the
// YYYY,MM,DD,hh,mm,ss format used throughout the wire protocol and the
// state/stream-list files.
func (h FixedHeader) CanonicalTimestamp() string {
	month, day := DayOfYearToMonthDay(int(h.Year), int(h.Day))
	return fmt.Sprintf("%04d,%02d,%02d,%02d,%02d,%02d", h.Year, month, day, h.Hour, h.Min, h.Sec)
}

// BlockettePeek reads the type of the blockette at offset within buf, or
// false if out of range.
func BlockettePeek(buf []byte, offset int, swapped bool) (uint16, bool) {
	if offset < 0 || offset+4 > len(buf) {
		return 0, false
	}
	if swapped {
		return binary.LittleEndian.Uint16(buf[offset : offset+2]), true
	}
	return binary.BigEndian.Uint16(buf[offset : offset+2]), true
}
