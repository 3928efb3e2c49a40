package isdbtpsi

// Descriptor is an opaque (tag, length, data) tuple as carried in every
// BIT/CDT/LDT/SDTT payload. Per spec.md §1 this layer never interprets
// descriptor bodies, it only frames them; the catalog of per-tag
// descriptor decoders (DVB/ARIB descriptor semantics) is explicitly
// out of scope.
//
// Descriptor owns Data exclusively; Next links it into the flat
// singly-linked list owned by the containing table record or inner
// element (BIT broadcaster, LDT description, SDTT content), per
// spec.md §3/§4.6. Descriptors are freed, as a unit, whenever their
// owning entity is emptied.
type Descriptor struct {
	Tag    uint8
	Length uint8
	Data   []byte
	Next   *Descriptor
}

// descriptorList is the owning head pointer for a Descriptor chain.
// add is O(n) to preserve the order descriptors were encountered in,
// matching libdvbpsi's dvbpsi_isdbt_*_descriptor_add (walk to the tail,
// append) and spec.md §4.6.
type descriptorList struct {
	first *Descriptor
}

// add appends a new descriptor to the tail of the list and returns it.
func (l *descriptorList) add(tag, length uint8, data []byte) *Descriptor {
	d := &Descriptor{Tag: tag, Length: length, Data: data}
	if l.first == nil {
		l.first = d
		return d
	}
	last := l.first
	for last.Next != nil {
		last = last.Next
	}
	last.Next = d
	return d
}

// head returns the first descriptor in the list, or nil if empty.
func (l *descriptorList) head() *Descriptor {
	return l.first
}

// slice materializes the list in order as a slice of its elements.
func (l *descriptorList) slice() []*Descriptor {
	var out []*Descriptor
	for d := l.first; d != nil; d = d.Next {
		out = append(out, d)
	}
	return out
}

// empty clears the list; descriptors have no other owner so dropping
// the head pointer is enough for Go's GC to reclaim them (the
// reference decoder instead walks the list calling free() per node).
func (l *descriptorList) empty() {
	l.first = nil
}

// parseDescriptors reads a bounded run of descriptors out of bs
// starting at *offset, stopping once length bytes have been consumed.
// Per spec.md §4.5 "every nested parse is bounded by the enclosing
// length... except when the enclosing length exceeds the remaining
// payload, in which case it is clamped": if start+length overruns bs,
// the loop is clamped to len(bs) instead of reading out of bounds.
func parseDescriptors(l *descriptorList, bs []byte, offset *int, length int) {
	end := *offset + length
	if end > len(bs) {
		end = len(bs)
	}

	for *offset+2 <= end {
		tag := bs[*offset]
		dlength := bs[*offset+1]
		*offset += 2

		if int(dlength) > end-*offset {
			// Declared descriptor length overruns the enclosing loop;
			// stop rather than read into the next element.
			break
		}

		data := make([]byte, dlength)
		copy(data, bs[*offset:*offset+int(dlength)])
		l.add(tag, dlength, data)
		*offset += int(dlength)
	}

	if *offset < end {
		*offset = end
	}
}

// writeDescriptors serializes a descriptor chain into bs at *offset in
// encounter order, mirroring parseDescriptors, and returns the number
// of bytes written.
func writeDescriptors(l *descriptorList, bs []byte, offset *int) int {
	start := *offset
	for d := l.first; d != nil; d = d.Next {
		bs[*offset] = d.Tag
		bs[*offset+1] = d.Length
		copy(bs[*offset+2:], d.Data)
		*offset += 2 + len(d.Data)
	}
	return *offset - start
}

// descriptorsLength returns the total encoded length (including the
// 2-byte tag/length header of each element) of a descriptor chain.
func descriptorsLength(l *descriptorList) int {
	n := 0
	for d := l.first; d != nil; d = d.Next {
		n += 2 + len(d.Data)
	}
	return n
}
