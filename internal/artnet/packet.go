package artnet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

// Port is the UDP port every Art-Net node listens on
const Port = 6454

const (
	headerLen       = 18
	opDMX           = 0x5000
	protocolVersion = 14
	minDMXLen       = 2
	maxDMXLen       = 512
)

var packetID = []byte("Art-Net\x00")

// DMXPacket is a decoded ArtDMX packet
type DMXPacket struct {
	Sequence uint8
	Physical uint8
	// Universe is the 15-bit port address: Net in the high byte, SubUni in the low.
	Universe uint16
	Data     []byte
}

// ParseDMX decodes an ArtDMX packet. Data aliases b.
func ParseDMX(b []byte) (DMXPacket, error) {
	if len(b) < 10 || !bytes.Equal(b[:8], packetID) {
		return DMXPacket{}, playerrors.ErrNotArtNet
	}
	if op := binary.LittleEndian.Uint16(b[8:10]); op != opDMX {
		return DMXPacket{}, fmt.Errorf("opcode 0x%04x: %w", op, playerrors.ErrUnsupportedOp)
	}
	if len(b) < headerLen {
		return DMXPacket{}, playerrors.ErrShortPacket
	}
	if v := binary.BigEndian.Uint16(b[10:12]); v < protocolVersion {
		return DMXPacket{}, fmt.Errorf("protocol version %d: %w", v, playerrors.ErrNotArtNet)
	}

	length := int(binary.BigEndian.Uint16(b[16:18]))
	if length > maxDMXLen {
		return DMXPacket{}, fmt.Errorf("length %d: %w", length, playerrors.ErrNotArtNet)
	}
	if length < minDMXLen {
		return DMXPacket{}, fmt.Errorf("length %d: %w", length, playerrors.ErrShortPacket)
	}
	if len(b) < headerLen+length {
		return DMXPacket{}, playerrors.ErrShortPacket
	}

	return DMXPacket{
		Sequence: b[12],
		Physical: b[13],
		Universe: uint16(b[15]&0x7F)<<8 | uint16(b[14]),
		Data:     b[headerLen : headerLen+length],
	}, nil
}

// EncodeDMX builds an ArtDMX packet for universe carrying data. Data longer
// than a universe is cut to 512 channels, shorter than two is zero padded.
func EncodeDMX(seq uint8, universe uint16, data []byte) []byte {
	if len(data) > maxDMXLen {
		data = data[:maxDMXLen]
	}
	if len(data) < minDMXLen {
		data = append(append([]byte(nil), data...), make([]byte, minDMXLen-len(data))...)
	}
	packet := make([]byte, headerLen+len(data))
	copy(packet[0:], packetID)
	binary.LittleEndian.PutUint16(packet[8:10], opDMX)
	binary.BigEndian.PutUint16(packet[10:12], protocolVersion)
	packet[12], packet[13] = seq, 0
	packet[14], packet[15] = byte(universe&0xFF), byte((universe>>8)&0x7F)
	binary.BigEndian.PutUint16(packet[16:18], uint16(len(data)))
	copy(packet[headerLen:], data)
	return packet
}
