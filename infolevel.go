package goslink

import "github.com/EarthScope/goslink/internal/mseed"

// PacketType classifies a delivered packet by its miniSEED quality byte and
// blockette content, recovered from the original client's sl_packettype().
// This is a pure accessor over an already-delivered packet: it does not
// affect delivery order or filtering.
type PacketType int

const (
	DataType PacketType = iota
	DetectionType
	CalibrationType
	TimingType
	MessageType
	GenericBlocketteType
	InfoType
	InfoTerminatedType
)

func (t PacketType) String() string {
	switch t {
	case DataType:
		return "Data"
	case DetectionType:
		return "Detection"
	case CalibrationType:
		return "Calibration"
	case TimingType:
		return "Timing"
	case MessageType:
		return "Message"
	case GenericBlocketteType:
		return "GenericBlockette"
	case InfoType:
		return "Info"
	case InfoTerminatedType:
		return "InfoTerminated"
	default:
		return "Unknown"
	}
}

// classifyDataPacket inspects a miniSEED 2 record's blockette chain to
// distinguish detection/calibration/timing/message records from ordinary
// data, the way sl_packettype() walks the blockette list. The data-quality
// byte alone (D/R/Q/M) does not distinguish these; blockette type does.
func classifyDataPacket(record []byte) PacketType {
	h, err := mseed.ParseFixedHeader(record)
	if err != nil {
		return DataType
	}

	offset := int(h.BeginBlockette)
	visited := map[int]bool{}
	sawBlockette := false
	for offset != 0 && offset+4 <= len(record) {
		if visited[offset] {
			break
		}
		visited[offset] = true
		sawBlockette = true

		blktType, ok := mseed.BlockettePeek(record, offset, h.Swapped)
		if !ok {
			break
		}

		switch {
		case blktType == 200 || blktType == 201:
			return DetectionType
		case blktType >= 300 && blktType <= 310:
			return CalibrationType
		case blktType == 500:
			return TimingType
		}

		var next uint16
		if h.Swapped {
			next = leUint16(record, offset+2)
		} else {
			next = beUint16(record, offset+2)
		}
		offset = int(next)
	}

	if h.NumSamples == 0 {
		if sawBlockette {
			return GenericBlocketteType
		}
		return MessageType
	}
	return DataType
}

func beUint16(b []byte, off int) uint16 {
	return uint16(b[off])<<8 | uint16(b[off+1])
}

func leUint16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}
