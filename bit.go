package isdbtpsi

// BITBroadcaster is one broadcaster_id entry of a decoded Broadcaster
// Information Table, carrying its own descriptor loop (spec.md §6 BIT
// payload, "BI" in the reference decoder).
type BITBroadcaster struct {
	BroadcasterID uint8
	Descriptors   *Descriptor
	Next          *BITBroadcaster
}

// BITData is a fully decoded Broadcaster Information Table instance
// (table_id 0xC4), handed to the callback registered with AttachBIT
// whenever its content changes.
type BITData struct {
	TableID                uint8
	OriginalNetworkID       uint16
	Version                 uint8
	CurrentNext             bool
	BroadcastViewPropriety  bool
	Descriptors             *Descriptor
	Broadcasters            *BITBroadcaster
}

// decodeBIT walks a completed section chain into a BITData. Each
// section repeats the table-level descriptor loop header followed by
// the broadcaster loop; per the reference decoder every section's
// broadcaster entries are appended to the same running list.
//
// The reference decoder reads both the descriptor tag and its length
// from the same byte (p_byte[1]) in this loop; that is a copy/paste
// bug, not the wire format ARIB defines (tag is byte 0, length is byte
// 1, exactly as the broadcaster-level descriptor loop just below it
// already does correctly). This decoder reads tag from byte 0.
func decodeBIT(head *section) *BITData {
	data := &BITData{
		TableID:           head.TableID,
		OriginalNetworkID: head.Extension,
		Version:           head.Version,
		CurrentNext:       head.CurrentNext,
	}

	var descs descriptorList
	var broadcasters, broadcastersTail *BITBroadcaster

	for s := head; s != nil; s = s.Next {
		payload := s.payload()
		if len(payload) < 2 {
			continue
		}

		data.BroadcastViewPropriety = payload[0]&0x10 > 0
		firstDescLen := int(payload[0]&0x0f)<<8 | int(payload[1])

		offset := 2
		end := offset + firstDescLen
		if end > len(payload) {
			end = len(payload)
		}
		parseDescriptors(&descs, payload, &offset, end-offset)
		offset = end

		for offset+3 <= len(payload) {
			broadcasterID := payload[offset]
			descBroadcastLen := int(payload[offset+1]&0x0f)<<8 | int(payload[offset+2])
			offset += 3

			bi := &BITBroadcaster{BroadcasterID: broadcasterID}
			if broadcasters == nil {
				broadcasters = bi
			} else {
				broadcastersTail.Next = bi
			}
			broadcastersTail = bi

			biEnd := offset + descBroadcastLen
			if biEnd > len(payload) {
				offset = len(payload)
				break
			}
			var biDescs descriptorList
			parseDescriptors(&biDescs, payload, &offset, biEnd-offset)
			bi.Descriptors = biDescs.head()
			offset = biEnd
		}
	}

	data.Descriptors = descs.head()
	data.Broadcasters = broadcasters
	return data
}

// bitDecoder is the subtableDecoder attached to the demux for one
// (table_id, original_network_id) pair.
type bitDecoder struct {
	tableState
	onChange func(*BITData)
	current  *BITData
}

func newBITDecoder(onChange func(*BITData)) *bitDecoder {
	return &bitDecoder{onChange: onChange}
}

func (d *bitDecoder) push(s *section) {
	if !d.add(s) {
		d.restartBuild()
		if !d.add(s) {
			return
		}
	}
	if !d.completed() {
		return
	}

	head := d.chain()
	if d.changed(head) {
		d.current = decodeBIT(head)
		d.onChange(d.current)
	}
	d.restartBuild()
}

// BITSectionsGenerate serializes data into a chain of PSI sections,
// each already CRC-finalized and ready for transmission, mirroring
// dvbpsi_isdbt_bit_sections_generate. The table-level descriptor loop
// is carried entirely on the first section; broadcaster entries then
// fill sections in order, each capped at sectionMaxSize1024 bytes and
// never split mid-broadcaster.
func BITSectionsGenerate(data *BITData) []*section {
	const maxPayload = sectionMaxSize1024 - 8 - 4

	dl := descriptorListOf(data.Descriptors)
	firstPayload := make([]byte, 2+descriptorsLength(dl))
	off := 2
	writeDescriptors(dl, firstPayload, &off)
	length := off - 2
	firstPayload[0] = byte(length>>8) | 0xe0
	if data.BroadcastViewPropriety {
		firstPayload[0] |= 0x10
	}
	firstPayload[1] = byte(length)

	payloads := [][]byte{firstPayload}
	cur := 0

	for bi := data.Broadcasters; bi != nil; bi = bi.Next {
		bdl := descriptorListOf(bi.Descriptors)
		biBytes := make([]byte, 3+descriptorsLength(bdl))
		biBytes[0] = bi.BroadcasterID
		n := descriptorsLength(bdl)
		biBytes[1] = byte(n >> 8 & 0x0f)
		biBytes[2] = byte(n)
		bo := 3
		writeDescriptors(bdl, biBytes, &bo)

		if len(payloads[cur])+len(biBytes) > maxPayload {
			payloads = append(payloads, []byte{0xe0, 0x00})
			cur++
		}
		payloads[cur] = append(payloads[cur], biBytes...)
	}

	sections := make([]*section, len(payloads))
	for i, p := range payloads {
		sections[i] = &section{
			TableID:         data.TableID,
			SyntaxIndicator: true,
			Extension:       data.OriginalNetworkID,
			Version:         data.Version,
			CurrentNext:     data.CurrentNext,
			Number:          uint8(i),
			LastNumber:      uint8(len(payloads) - 1),
			Bytes:           finalizeSection(p, data.TableID, data.OriginalNetworkID, data.Version, data.CurrentNext, uint8(i), uint8(len(payloads)-1)),
		}
	}
	return sections
}

// descriptorListOf wraps an already-built *Descriptor chain head so it
// can be replayed through writeDescriptors/descriptorsLength.
func descriptorListOf(head *Descriptor) *descriptorList {
	return &descriptorList{first: head}
}

// finalizeSection assembles the 8-byte standard long-form header and
// 4-byte CRC_32 trailer around an already-built payload.
func finalizeSection(payload []byte, tableID uint8, extension uint16, version uint8, currentNext bool, number, lastNumber uint8) []byte {
	return finalizeSectionEx(payload, tableID, extension, version, currentNext, number, lastNumber, false)
}

// finalizeSectionEx is finalizeSection with an explicit
// private_indicator bit, needed by LDT (spec.md §6: LDT sets it, the
// other three tables don't).
func finalizeSectionEx(payload []byte, tableID uint8, extension uint16, version uint8, currentNext bool, number, lastNumber uint8, private bool) []byte {
	out := make([]byte, 8+len(payload)+4)
	copy(out[8:8+len(payload)], payload)

	length := 2 + 1 + 1 + 1 + len(payload) + 4
	out[0] = tableID
	out[1] = 0x80 | byte(length>>8&0x0f)
	if private {
		out[1] |= 0x40
	}
	out[2] = byte(length)
	out[3] = byte(extension >> 8)
	out[4] = byte(extension)
	out[5] = 0xc0 | version<<1
	if currentNext {
		out[5] |= 0x01
	}
	out[6] = number
	out[7] = lastNumber

	putCRC32(out)
	return out
}
