package rxcall

import "encoding/binary"

// Wire protocol tunables.
const (
	TxMaxWindow    = 32
	TxSMSS         = 1024
	SackSize       = 64
	MaxBlockSize   = 1412
	JumboSubpktLen = 1412
	rttRingSize    = 8

	wireHeaderLen  = 28
	ackPacketLen   = 18
	jumboHeaderLen = 3
	ackInfoLen     = 16
	ackPadLen      = 3
)

// WireHeader is the fixed leading header every RxRPC packet carries, decoded
// from a PacketView's raw bytes. Field layout mirrors the historical 28-byte
// RxRPC header; only the subset the receive engine consults is exposed.
type WireHeader struct {
	Serial      Serial
	Seq         Seq
	Type        PacketType
	Flags       PacketFlags
	SecurityIdx uint8
	ServiceID   uint16
	Channel     uint32
	CallNumber  uint32
}

// PacketView is the read-only collaborator interface the classifier
// consumes: a decoded header plus access to the raw body for payload and
// sub-structure parsing. It is supplied by the external dispatch layer.
type PacketView interface {
	Header() WireHeader
	// Body returns the packet bytes following the fixed wire header.
	Body() []byte
	// Release gives the buffer back to its pool; called exactly once per
	// packet on every exit path.
	Release()
}

// AckPacket is the fixed-size structure immediately following the wire
// header on an ACK packet.
type AckPacket struct {
	BufferSpace    uint16
	MaxSkew        uint16
	FirstPacket    Seq
	PreviousPacket Seq
	AckedSerial    Serial
	Reason         AckReason
	NAcks          uint8
}

// decodeAckPacket parses the fixed ackpacket header at the start of body
// using explicit big-endian field accessors rather than a reflection-based
// or binary.Read decode.
func decodeAckPacket(body []byte) (AckPacket, error) {
	if len(body) < ackPacketLen {
		return AckPacket{}, errShortHeader
	}
	return AckPacket{
		BufferSpace:    binary.BigEndian.Uint16(body[0:2]),
		MaxSkew:        binary.BigEndian.Uint16(body[2:4]),
		FirstPacket:    Seq(binary.BigEndian.Uint32(body[4:8])),
		PreviousPacket: Seq(binary.BigEndian.Uint32(body[8:12])),
		AckedSerial:    Serial(binary.BigEndian.Uint32(body[12:16])),
		Reason:         AckReason(body[16]),
		NAcks:          body[17],
	}, nil
}

// AckInfo is the optional trailer present when the ACK packet is long
// enough to carry it.
type AckInfo struct {
	RxMTU    uint32
	MaxMTU   uint32
	Rwind    uint32
	JumboMax uint32
}

func decodeAckInfo(b []byte) (AckInfo, error) {
	if len(b) < ackInfoLen {
		return AckInfo{}, errShortAckInfo
	}
	return AckInfo{
		RxMTU:    binary.BigEndian.Uint32(b[0:4]),
		MaxMTU:   binary.BigEndian.Uint32(b[4:8]),
		Rwind:    binary.BigEndian.Uint32(b[8:12]),
		JumboMax: binary.BigEndian.Uint32(b[12:16]),
	}, nil
}

// jumboHeader is the trailing mini-header appended to every jumbo subpacket
// except the final (non-jumbo) remainder.
type jumboHeader struct {
	Flags PacketFlags
	_rsvd uint16
}

func decodeJumboHeader(b []byte) (jumboHeader, error) {
	if len(b) < jumboHeaderLen {
		return jumboHeader{}, errShortHeader
	}
	return jumboHeader{
		Flags: PacketFlags(b[0]),
		_rsvd: binary.BigEndian.Uint16(b[1:3]),
	}, nil
}

// TxBuffer is one queued-for-transmit unit. The Call owns an ordered-by-Seq
// slice of these; actual payload bytes are owned by the external transmit
// side and are not modelled here.
type TxBuffer struct {
	Seq  Seq
	Last bool
}
