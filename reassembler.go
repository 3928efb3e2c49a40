package isdbtpsi

// reassembler turns one PID's stream of TS packets back into complete
// PSI sections, per spec.md §4.2. It tracks the continuity counter,
// honors payload_unit_start_indicator/pointer_field, and hands
// complete section byte buffers to onSection as soon as each one's
// declared section_length is satisfied — everything this layer knows
// about a section is its raw bytes; table_id/extension/version
// semantics belong to the aggregator and table decoders above it.
//
// onSection handles its own errors (CRC, unknown subtable, version
// mismatch): those are section-semantic, not framing, problems and
// must never stop the reassembler from finding the next section in
// the same packet.
type reassembler struct {
	onSection func(bs []byte)

	haveCC bool
	cc     uint8

	buf []byte
}

func newReassembler(onSection func(bs []byte)) *reassembler {
	return &reassembler{onSection: onSection}
}

// reset drops any in-progress section and forgets the continuity
// counter, used on discontinuity and by Handle.Reset.
func (r *reassembler) reset() {
	r.haveCC = false
	r.buf = r.buf[:0]
}

// pushPacket feeds one TS packet already known to belong to this
// reassembler's PID. A returned error means framing was lost (a
// duplicate packet, a continuity discontinuity, or a section whose
// declared length can no longer be trusted): the in-progress section,
// if any, is dropped and reassembly resumes clean from the next
// payload_unit_start. It never reflects a single bad section among
// several sharing this packet; those are reported to onSection instead.
func (r *reassembler) pushPacket(p *Packet) error {
	if p.Header.HasAdaptationField && p.AdaptationField.DiscontinuityIndicator {
		r.reset()
	}

	if r.haveCC {
		if p.Header.ContinuityCounter == r.cc {
			return ErrDuplicatePacket
		}
		if p.Header.ContinuityCounter != (r.cc+1)&0x0f {
			r.reset()
			r.cc = p.Header.ContinuityCounter
			r.haveCC = true
			return ErrDiscontinuity
		}
	}
	r.cc = p.Header.ContinuityCounter
	r.haveCC = true

	if !p.Header.HasPayload || len(p.Payload) == 0 {
		return nil
	}

	payload := p.Payload
	if p.Header.PayloadUnitStartIndicator {
		if len(payload) < 1 {
			return ErrSectionTooLong
		}
		pointer := int(payload[0])
		payload = payload[1:]
		if pointer > len(payload) {
			return ErrSectionTooLong
		}

		// Bytes before the pointer complete whatever section was
		// already in progress; a section they leave incomplete is
		// dropped, since a new section starts at the pointer.
		if len(r.buf) > 0 {
			r.buf = append(r.buf, payload[:pointer]...)
			r.drainComplete()
			r.buf = r.buf[:0]
		}
		payload = payload[pointer:]
	}

	return r.consume(payload)
}

// consume walks payload, which may hold the tail of the section
// already in progress, zero or more further complete sections, the
// start of a new in-progress section, and/or trailing 0xFF stuffing,
// appending into r.buf and emitting each section as soon as it's
// complete.
func (r *reassembler) consume(payload []byte) error {
	for len(payload) > 0 {
		if len(r.buf) == 0 && payload[0] == 0xff {
			// Stuffing bytes fill the remainder of the TS packet once
			// every section it carried has started; nothing useful
			// follows within this packet.
			return nil
		}

		need := 3
		if len(r.buf) >= 3 {
			need = 3 + sectionLengthOf(r.buf)
			if need > sectionMaxSize4096 {
				r.buf = r.buf[:0]
				return ErrSectionTooLong
			}
		}

		take := need - len(r.buf)
		if take > len(payload) {
			take = len(payload)
		}
		r.buf = append(r.buf, payload[:take]...)
		payload = payload[take:]

		r.drainComplete()
	}
	return nil
}

// drainComplete emits r.buf through onSection if it now holds exactly
// one full section, resetting the buffer for the next one.
//
// The copy handed to onSection is a fresh allocation, not a pooled
// buffer: onSection's section.Bytes (section.go) is retained by the
// aggregator across every later PushPacket call until the whole table
// instance completes, which for a multi-section table can be many
// packets away. A pooled buffer reused via bytesPool.get/put right
// here would be handed back to the next drainComplete call — and to
// whatever section needed it next — while the aggregator still held a
// reference into it, silently corrupting every section but the last
// one received.
func (r *reassembler) drainComplete() {
	if len(r.buf) < 3 {
		return
	}
	total := 3 + sectionLengthOf(r.buf)
	if len(r.buf) != total {
		return
	}

	bs := make([]byte, total)
	copy(bs, r.buf)
	r.onSection(bs)

	r.buf = r.buf[:0]
}

// sectionLengthOf reads the 12-bit section_length out of a buffer that
// already holds at least 3 bytes.
func sectionLengthOf(bs []byte) int {
	return int(bs[1]&0x0f)<<8 | int(bs[2])
}
