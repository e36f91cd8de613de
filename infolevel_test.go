package goslink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDataPacketPlainData(t *testing.T) {
	frame := buildDataFrame(1, "GE", "WLF")
	record := frame[8:]
	assert.Equal(t, DataType, classifyDataPacket(record))
}

func TestClassifyDataPacketDetection(t *testing.T) {
	frame := buildDataFrame(1, "GE", "WLF")
	record := frame[8:]
	record[31] = 0 // num_samples = 0
	// Overwrite the blockette 1000 type with 200 (detection) and keep a
	// trailing blockette 1000 so the length is still determinable.
	record[48] = 0x00
	record[49] = 200
	record[50] = 0
	record[51] = 56 // next blockette at 56
	record[56] = 0x03
	record[57] = 0xE8
	record[58] = 0
	record[59] = 0
	record[60] = 11
	record[62] = 9
	assert.Equal(t, DetectionType, classifyDataPacket(record))
}

func TestClassifyDataPacketMessageWhenNoSamplesNoBlockette(t *testing.T) {
	frame := buildDataFrame(1, "GE", "WLF")
	record := frame[8:]
	record[31] = 0     // num_samples = 0
	record[46] = 0     // begin_blockette = 0 -> no blockette chain
	record[47] = 0
	assert.Equal(t, MessageType, classifyDataPacket(record))
}

func TestPacketTypeForInfo(t *testing.T) {
	p := &Packet{isInfo: true, infoLast: true}
	assert.Equal(t, InfoTerminatedType, p.Type())
	p2 := &Packet{isInfo: true, infoLast: false}
	assert.Equal(t, InfoType, p2.Type())
}
