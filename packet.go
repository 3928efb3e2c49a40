package isdbtpsi

// syncByte is the fixed first byte of every TS packet (spec.md §4.2).
const syncByte = 0x47

// packetSize is the standard TS packet length this package expects.
// Packets delivered with a leading timestamp prefix (192/204-byte
// recording formats) are handled by packet_buffer.go, which trims down
// to this size before handing a packet to parsePacket.
const packetSize = 188

// Packet represents one demodulated MPEG-2 TS packet, decoded only as
// far as needed to drive the PSI section reassembler: adaptation
// field / PCR timing and private data this package never inspects are
// not modeled (spec.md §1 Non-goals).
type Packet struct {
	Bytes           []byte // the whole packet, including the sync byte
	Header          *PacketHeader
	AdaptationField *PacketAdaptationField
	Payload         []byte // payload content, nil if HasPayload is false
}

// PacketHeader represents a packet's fixed 4-byte header.
type PacketHeader struct {
	TransportErrorIndicator   bool
	PayloadUnitStartIndicator bool // set when a PSI section begins in this packet's payload
	TransportPriority         bool
	PID                       uint16
	ContinuityCounter         uint8 // 4-bit, wraps mod 16
	HasAdaptationField        bool
	HasPayload                bool
}

// PacketAdaptationField represents the subset of the adaptation field
// this package needs: just enough to compute its length and skip past
// it to the payload.
type PacketAdaptationField struct {
	Length                  int
	DiscontinuityIndicator   bool
	RandomAccessIndicator    bool
}

// parsePacket parses one TS packet already trimmed to packetSize bytes.
func parsePacket(i []byte) (p *Packet, err error) {
	if i[0] != syncByte {
		return nil, ErrNotATSPacket
	}

	p = &Packet{Bytes: i}
	p.Header = parsePacketHeader(i)

	if p.Header.HasAdaptationField {
		if len(i) < 5 {
			return nil, ErrNotATSPacket
		}
		p.AdaptationField = parsePacketAdaptationField(i[4:])
	}

	if p.Header.HasPayload {
		offset := payloadOffset(p.Header, p.AdaptationField)
		if offset > len(i) {
			return nil, ErrNotATSPacket
		}
		p.Payload = i[offset:]
	}
	return p, nil
}

// payloadOffset returns the byte offset of the payload within the packet.
func payloadOffset(h *PacketHeader, a *PacketAdaptationField) (offset int) {
	offset = 4
	if h.HasAdaptationField {
		offset += 1 + a.Length
	}
	return
}

// parsePacketHeader parses the 4-byte packet header.
func parsePacketHeader(i []byte) *PacketHeader {
	return &PacketHeader{
		TransportErrorIndicator:   i[1]&0x80 > 0,
		PayloadUnitStartIndicator: i[1]&0x40 > 0,
		TransportPriority:         i[1]&0x20 > 0,
		PID:                       uint16(i[1]&0x1f)<<8 | uint16(i[2]),
		ContinuityCounter:         i[3] & 0x0f,
		HasAdaptationField:       i[3]&0x20 > 0,
		HasPayload:               i[3]&0x10 > 0,
	}
}

// parsePacketAdaptationField parses just the length and discontinuity
// flags this package's reassembler needs (spec.md §4.2); PCR/OPCR,
// splicing, and transport-private-data fields carried alongside them
// are skipped over rather than decoded.
func parsePacketAdaptationField(i []byte) *PacketAdaptationField {
	a := &PacketAdaptationField{Length: int(i[0])}
	if a.Length > 0 {
		a.DiscontinuityIndicator = i[1]&0x80 > 0
		a.RandomAccessIndicator = i[1]&0x40 > 0
	}
	return a
}
