package isdbtpsi

// CDTData is a fully decoded Common Data Table instance (table_id
// 0xC8, spec.md §6), delivered whenever its content changes.
type CDTData struct {
	TableID           uint8
	DownloadDataID    uint16 // table_id_extension
	Version           uint8
	CurrentNext       bool
	OriginalNetworkID uint16
	DataType          uint8
	Descriptors       *Descriptor
	DataModule        []byte
}

// decodeCDT walks a completed section chain into a CDTData.
// original_network_id/data_type and the descriptor loop are read from
// every section but only the last section's values survive, matching
// the reference decoder's unconditional field overwrite; data_module
// bytes likewise are replaced rather than appended on each section,
// since in practice a CDT's data_module_byte payload is carried whole
// within whichever single section declares it.
func decodeCDT(head *section) *CDTData {
	data := &CDTData{
		TableID:        head.TableID,
		DownloadDataID: head.Extension,
		Version:        head.Version,
		CurrentNext:    head.CurrentNext,
	}

	var descs descriptorList
	c := newPayloadCursor(nil)
	for s := head; s != nil; s = s.Next {
		payload := s.payload()
		if len(payload) < 5 {
			continue
		}
		c.reset(payload)

		onid, err := c.nextBytes(2)
		if err != nil {
			continue
		}
		data.OriginalNetworkID = uint16(onid[0])<<8 | uint16(onid[1])

		data.DataType, err = c.nextByte()
		if err != nil {
			continue
		}

		lenBytes, err := c.nextBytes(2)
		if err != nil {
			continue
		}
		descLoopLen := int(lenBytes[0]&0x0f)<<8 | int(lenBytes[1])

		end := c.offset + descLoopLen
		if end > len(payload) {
			end = len(payload)
		}
		descs = descriptorList{}
		parseDescriptors(&descs, payload, &c.offset, end-c.offset)
		c.offset = end

		data.DataModule = append([]byte{}, payload[c.offset:]...)
	}

	data.Descriptors = descs.head()
	return data
}

// cdtDecoder is the subtableDecoder attached for one (table_id,
// download_data_id) pair.
type cdtDecoder struct {
	tableState
	onChange func(*CDTData)
	current  *CDTData
}

func newCDTDecoder(onChange func(*CDTData)) *cdtDecoder {
	return &cdtDecoder{onChange: onChange}
}

func (d *cdtDecoder) push(s *section) {
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
		d.current = decodeCDT(head)
		d.onChange(d.current)
	}
	d.restartBuild()
}

// CDTSectionsGenerate serializes data into a single PSI section.
// The CDT's data_module_byte payload can be large (up to the
// sectionMaxSize4096 class), but this generator keeps it whole on one
// section rather than splitting data_module_byte across sections,
// since the reference decoder has no provision for reassembling a
// split data_module either. No size check is made: a payload too large
// for one section is written out regardless.
func CDTSectionsGenerate(data *CDTData) *section {
	dl := descriptorListOf(data.Descriptors)
	descLen := descriptorsLength(dl)

	payload := make([]byte, 5+descLen+len(data.DataModule))
	payload[0] = byte(data.OriginalNetworkID >> 8)
	payload[1] = byte(data.OriginalNetworkID)
	payload[2] = data.DataType
	payload[3] = byte(descLen >> 8 & 0x0f)
	payload[4] = byte(descLen)
	off := 5
	writeDescriptors(dl, payload, &off)
	copy(payload[off:], data.DataModule)

	return &section{
		TableID:         data.TableID,
		SyntaxIndicator: true,
		Extension:       data.DownloadDataID,
		Version:         data.Version,
		CurrentNext:     data.CurrentNext,
		Number:          0,
		LastNumber:      0,
		Bytes:           finalizeSection(payload, data.TableID, data.DownloadDataID, data.Version, data.CurrentNext, 0, 0),
	}
}
