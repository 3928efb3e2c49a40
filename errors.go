package isdbtpsi

import "errors"

// Sentinel errors returned (wrapped with fmt.Errorf("...: %w", err))
// by the packet reassembler, section aggregator, demux router and
// table decoders. Propagation is local recovery: a packet-level or
// section-level error drops the offending packet/section and the
// caller moves on, it never aborts the handle.
var (
	// ErrNotATSPacket is returned when a packet doesn't start with the sync byte 0x47.
	ErrNotATSPacket = errors.New("isdbtpsi: packet must start with a sync byte")

	// ErrDuplicatePacket is returned when a packet's continuity counter
	// is bit-exact identical to the previously stored one for its PID.
	ErrDuplicatePacket = errors.New("isdbtpsi: duplicate packet")

	// ErrDiscontinuity is returned when a packet's continuity counter
	// doesn't match the expected (stored+1)%16 sequence.
	ErrDiscontinuity = errors.New("isdbtpsi: continuity counter discontinuity")

	// ErrSectionTooLong is returned when a section's declared length
	// exceeds section_max_size-3.
	ErrSectionTooLong = errors.New("isdbtpsi: section too long")

	// ErrBadCRC32 is returned when a section's computed CRC-32 doesn't
	// match its trailing 4 bytes.
	ErrBadCRC32 = errors.New("isdbtpsi: bad CRC_32")

	// ErrRejectedTableID is returned for table_id 0x72 (ST), which is
	// always rejected regardless of its CRC.
	ErrRejectedTableID = errors.New("isdbtpsi: rejected table id")

	// ErrAlreadyAttached is returned by demux.attach (and so by
	// AttachBIT/AttachCDT/AttachLDT/AttachSDTT) when a subtable
	// decoder is already registered for (table_id, extension).
	ErrAlreadyAttached = errors.New("isdbtpsi: already a decoder for this (table_id, extension)")

	// ErrUnknownSubtable is returned by demux.detach (and so by
	// DetachBIT/DetachCDT/DetachLDT/DetachSDTT) when no entry matches
	// (table_id, extension).
	ErrUnknownSubtable = errors.New("isdbtpsi: no such subtable decoder")

	// ErrVersionMismatch is returned when a section's version_number
	// differs from the table instance being built, absent a discontinuity.
	ErrVersionMismatch = errors.New("isdbtpsi: version_number differs whereas no discontinuity has occurred")

	// ErrExtensionMismatch is returned when a section's table_id_extension
	// differs from the table instance being built.
	ErrExtensionMismatch = errors.New("isdbtpsi: table_id_extension differs whereas no discontinuity has occurred")

	// ErrLastSectionNumberMismatch is returned when a section's
	// last_section_number differs from the table instance being built.
	ErrLastSectionNumberMismatch = errors.New("isdbtpsi: last_section_number differs whereas no discontinuity has occurred")

	// ErrOutOfMemory stands in for allocation failure paths in the
	// original C decoder. Go doesn't fail allocation under normal
	// operation, and no function in this package returns it; the
	// *SectionsGenerate functions have no error return at all.
	ErrOutOfMemory = errors.New("isdbtpsi: out of memory")
)
