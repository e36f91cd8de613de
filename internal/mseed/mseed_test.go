package mseed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v2Header(seq string, blktOffset uint16) []byte {
	buf := make([]byte, FixedHeaderSize)
	copy(buf[0:6], seq)
	buf[6] = 'D'
	buf[7] = ' '
	buf[20] = 0x07 // year 2024 big-endian: 2024 = 0x07E8
	buf[21] = 0xE8
	buf[22] = 0x00 // day 1
	buf[23] = 0x01
	buf[46] = byte(blktOffset >> 8)
	buf[47] = byte(blktOffset)
	return buf
}

func TestDetectV2WithBlockette1000(t *testing.T) {
	buf := v2Header("000001", 48)
	buf = append(buf, make([]byte, 512-len(buf))...)
	// blockette 1000 at offset 48: type=1000, next=0, encoding=11, word order=0, reclen field=9 (512 bytes), reserved
	buf[48] = 0x03
	buf[49] = 0xE8 // 1000
	buf[50] = 0
	buf[51] = 0
	buf[52] = 11
	buf[54] = 9

	version, length := Detect(buf)
	assert.Equal(t, V2, version)
	assert.Equal(t, 512, length)
}

func TestDetectV2ScanForNextHeader(t *testing.T) {
	first := v2Header("000001", 0)
	buf := make([]byte, 256+64)
	copy(buf, first)
	second := v2Header("000002", 0)
	copy(buf[256:], second)

	version, length := Detect(buf)
	assert.Equal(t, V2, version)
	assert.Equal(t, 256, length)
}

func TestDetectV2NeedMoreBytes(t *testing.T) {
	buf := v2Header("000001", 0)
	version, length := Detect(buf)
	assert.Equal(t, V2, version)
	assert.Equal(t, 0, length)
}

func TestDetectV2InvalidBlocketteChain(t *testing.T) {
	buf := v2Header("000001", 48)
	buf = append(buf, make([]byte, 16)...)
	// next_blkt points back before the current blockette: invalid.
	buf[48] = 0x00
	buf[49] = 0x01
	buf[50] = 0x00
	buf[51] = 0x05 // nextBlkt = 5, which is < blktOffset(48)+4... actually test the "doesn't advance" rule
	_, length := Detect(buf)
	assert.Less(t, length, 0)
}

func TestDetectV3(t *testing.T) {
	buf := make([]byte, MS3FixedHeaderSize+1+5+10)
	buf[0] = 'M'
	buf[1] = 'S'
	buf[2] = 3
	buf[33] = 5          // sid length
	buf[34] = 10         // extra header length (LE uint16)
	buf[35] = 0
	buf[36] = 0 // data length = 0
	buf[37] = 0
	buf[38] = 0
	buf[39] = 0

	version, length := Detect(buf)
	require.Equal(t, V3, version)
	assert.Equal(t, MS3FixedHeaderSize+5+10, length)
}

func TestDetectNotMiniseed(t *testing.T) {
	buf := make([]byte, 48)
	copy(buf, "garbage header bytes that are not valid at all!")
	version, length := Detect(buf)
	assert.Equal(t, Unknown, version)
	assert.Less(t, length, 0)
}

func TestParseFixedHeaderTrimsStationAndTimestamp(t *testing.T) {
	buf := v2Header("000042", 0)
	copy(buf[8:13], "WLF  ")
	copy(buf[18:20], "GE")
	buf[24] = 1
	buf[25] = 2
	buf[26] = 3

	h, err := ParseFixedHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, "WLF", h.Station)
	assert.Equal(t, "GE", h.Network)
	assert.Equal(t, "2024,01,01,01,02,03", h.CanonicalTimestamp())
}

func TestDayOfYearToMonthDay(t *testing.T) {
	m, d := DayOfYearToMonthDay(2024, 60) // leap year, day 60 -> Feb 29
	assert.Equal(t, 2, m)
	assert.Equal(t, 29, d)
}
