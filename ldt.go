package isdbtpsi

// LDTDescription is one description_id entry of a decoded Linked
// Description Table (spec.md §6 LDT payload).
type LDTDescription struct {
	DescriptionID uint16
	Reserved      uint16 // reserved_for_future_use, 12 bit
	Descriptors   *Descriptor
	Next          *LDTDescription
}

// LDTData is a fully decoded Linked Description Table instance
// (table_id 0xC7), delivered whenever its content changes.
type LDTData struct {
	TableID           uint8
	TransportStreamID uint16 // table_id_extension
	Version           uint8
	CurrentNext       bool
	OriginalNetworkID uint16
	Descriptions      *LDTDescription
}

// decodeLDT walks a completed section chain into an LDTData.
func decodeLDT(head *section) *LDTData {
	data := &LDTData{
		TableID:           head.TableID,
		TransportStreamID: head.Extension,
		Version:           head.Version,
		CurrentNext:       head.CurrentNext,
	}

	var descriptions, descriptionsTail *LDTDescription
	for s := head; s != nil; s = s.Next {
		payload := s.payload()
		if len(payload) < 4 {
			continue
		}
		data.OriginalNetworkID = uint16(payload[2])<<8 | uint16(payload[3])

		offset := 4
		for offset+5 <= len(payload) {
			descriptionID := uint16(payload[offset])<<8 | uint16(payload[offset+1])
			reserved := uint16(payload[offset+2])<<4 | uint16(payload[offset+3]>>4)
			descLoopLen := int(payload[offset+3]&0x0f)<<8 | int(payload[offset+4])
			offset += 5

			d := &LDTDescription{DescriptionID: descriptionID, Reserved: reserved}
			if descriptions == nil {
				descriptions = d
			} else {
				descriptionsTail.Next = d
			}
			descriptionsTail = d

			end := offset + descLoopLen
			if end > len(payload) {
				break
			}
			var descs descriptorList
			parseDescriptors(&descs, payload, &offset, end-offset)
			d.Descriptors = descs.head()
			offset = end
		}
	}

	data.Descriptions = descriptions
	return data
}

// ldtDecoder is the subtableDecoder attached for one (table_id,
// transport_stream_id) pair.
type ldtDecoder struct {
	tableState
	onChange func(*LDTData)
	current  *LDTData
}

func newLDTDecoder(onChange func(*LDTData)) *ldtDecoder {
	return &ldtDecoder{onChange: onChange}
}

func (d *ldtDecoder) push(s *section) {
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
		d.current = decodeLDT(head)
		d.onChange(d.current)
	}
	d.restartBuild()
}

// LDTSectionsGenerate serializes data into a chain of PSI sections,
// each capped at sectionMaxSize1024 bytes and never splitting a
// description's descriptor loop across sections.
//
// The reference generator writes the descriptors_loop_length field
// from the description record's stored i_descriptors_length rather
// than the length of the descriptors it actually just serialized,
// leaving the field wrong (usually 0) whenever the two diverge. This
// generator computes the field from the bytes it writes instead.
func LDTSectionsGenerate(data *LDTData) []*section {
	const maxPayload = sectionMaxSize1024 - 8 - 4

	header := make([]byte, 4)
	header[0] = byte(data.TransportStreamID >> 8)
	header[1] = byte(data.TransportStreamID)
	header[2] = byte(data.OriginalNetworkID >> 8)
	header[3] = byte(data.OriginalNetworkID)

	payloads := [][]byte{append([]byte{}, header...)}
	cur := 0

	for desc := data.Descriptions; desc != nil; desc = desc.Next {
		dl := descriptorListOf(desc.Descriptors)
		descLen := descriptorsLength(dl)

		entry := make([]byte, 5+descLen)
		entry[0] = byte(desc.DescriptionID >> 8)
		entry[1] = byte(desc.DescriptionID)
		entry[2] = byte(desc.Reserved >> 4)
		entry[3] = byte(desc.Reserved<<4) | byte(descLen>>8&0x0f)
		entry[4] = byte(descLen)
		off := 5
		writeDescriptors(dl, entry, &off)

		if len(payloads[cur])+len(entry) > maxPayload {
			payloads = append(payloads, append([]byte{}, header...))
			cur++
		}
		payloads[cur] = append(payloads[cur], entry...)
	}

	sections := make([]*section, len(payloads))
	for i, p := range payloads {
		sections[i] = &section{
			TableID:          data.TableID,
			SyntaxIndicator:  true,
			PrivateIndicator: true,
			Extension:        data.TransportStreamID,
			Version:          data.Version,
			CurrentNext:      data.CurrentNext,
			Number:           uint8(i),
			LastNumber:       uint8(len(payloads) - 1),
			Bytes:            finalizeSectionEx(p, data.TableID, data.TransportStreamID, data.Version, data.CurrentNext, uint8(i), uint8(len(payloads)-1), true),
		}
	}
	return sections
}
