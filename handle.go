package isdbtpsi

import (
	"errors"
	"fmt"
)

// Level is the message-callback severity cutoff (spec.md §6 "msg_level").
// LevelNone disables the callback entirely; the rest mirror
// dvbpsi_error/dvbpsi_warning/dvbpsi_debug in original_source/src/dvbpsi.c.
type Level int

const (
	LevelNone  Level = -1
	LevelError Level = 0
	LevelWarn  Level = 1
	LevelDebug Level = 2
)

// MessageCallback receives handle-level diagnostics (bad CRC, packet
// discontinuity, duplicate packet, ...) that a consumer asked to
// observe, distinct from the package-level developer logger in
// logger.go. A nil callback is allowed; nothing is ever generated
// for it.
type MessageCallback func(level Level, message string)

// HandleOpt configures a Handle at construction time.
type HandleOpt func(h *Handle)

// HandleOptMessageLevel sets the cutoff below which messages are not
// even formatted, let alone delivered. Default is LevelError.
func HandleOptMessageLevel(l Level) HandleOpt {
	return func(h *Handle) { h.msgLevel = l }
}

// HandleOptSectionMaxSize records n as the handle's section size
// ceiling (sectionMaxSize1024 by default). The reassembler does not
// consult it: every PID's reassembly is bounded at sectionMaxSize4096
// whatever this option is set to.
func HandleOptSectionMaxSize(n int) HandleOpt {
	return func(h *Handle) { h.sectionMaxSize = n }
}

// Handle is the entry point into this package: one Handle tracks
// reassembly state per PID and the subtable decoders attached to it,
// per spec.md §6 (new_handle/delete_handle/push_packet).
type Handle struct {
	msgCallback    MessageCallback
	msgLevel       Level
	sectionMaxSize int

	demux        *demux
	reassemblers map[uint16]*reassembler
}

// NewHandle creates a Handle with no subtables attached. cb may be
// nil.
func NewHandle(cb MessageCallback, opts ...HandleOpt) *Handle {
	h := &Handle{
		msgCallback:    cb,
		msgLevel:       LevelError,
		sectionMaxSize: sectionMaxSize1024,
		demux:          newDemux(),
		reassemblers:   make(map[uint16]*reassembler),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// message formats and delivers a diagnostic if level clears the
// configured cutoff; below cutoff it returns before fmt.Sprintf, so
// the message text is never formatted.
func (h *Handle) message(level Level, format string, args ...interface{}) {
	if h.msgCallback == nil || h.msgLevel == LevelNone || level > h.msgLevel {
		return
	}
	h.msgCallback(level, fmt.Sprintf(format, args...))
}

// DeleteHandle tears down every attached subtable decoder and all
// per-PID reassembly state. The Handle can be reused afterward as if
// freshly constructed.
func (h *Handle) DeleteHandle() {
	h.demux.reset()
	h.demux = newDemux()
	h.reassemblers = make(map[uint16]*reassembler)
}

// Reset discards all in-progress reassembly and table-build state
// without detaching any subtable, for a caller that observes an
// out-of-band discontinuity (e.g. a channel re-tune) ahead of the
// reassembler noticing a continuity counter jump on its own.
func (h *Handle) Reset() {
	for _, r := range h.reassemblers {
		r.reset()
	}
	h.demux.reset()
}

// PushPacket feeds one already-demodulated TS packet (188 bytes,
// starting with the sync byte) into the handle. Reassembly framing is
// never lost for other PIDs: a bad packet on this PID drops at most
// the section in progress for it. A continuity discontinuity also
// restarts every attached decoder's in-progress table build.
func (h *Handle) PushPacket(bs []byte) error {
	p, err := parsePacket(bs)
	if err != nil {
		h.message(LevelError, "isdbtpsi: parsing packet: %v", err)
		return fmt.Errorf("isdbtpsi: parsing packet failed: %w", err)
	}

	r, ok := h.reassemblers[p.Header.PID]
	if !ok {
		r = newReassembler(h.onSection)
		h.reassemblers[p.Header.PID] = r
	}

	if err := r.pushPacket(p); err != nil {
		if errors.Is(err, ErrDiscontinuity) {
			// spec.md §4.5: a continuity counter discontinuity
			// re-initializes every in-progress table build, not just
			// this PID's reassembly buffer, since this package has no
			// PID->subtable mapping to reset more narrowly and a
			// partially-aggregated instance must never complete
			// against a section from before the discontinuity.
			h.demux.reset()
		}
		h.message(LevelWarn, "isdbtpsi: pid 0x%04x: %v", p.Header.PID, err)
		return fmt.Errorf("isdbtpsi: pushing packet failed: %w", err)
	}
	return nil
}

// onSection validates a reassembled section's CRC_32 and routes it to
// whichever subtable decoder is attached for its (table_id,
// table_id_extension). A rejected or unroutable section never stops
// the reassembler from finding the next one (spec.md §4.1/§4.3).
func (h *Handle) onSection(bs []byte) {
	s, err := parseSection(bs)
	if err != nil {
		h.message(LevelWarn, "isdbtpsi: parsing section: %v", err)
		return
	}

	if ok, err := sectionValid(s.TableID, bs); !ok {
		h.message(LevelError, "isdbtpsi: table_id 0x%02x: %v", s.TableID, err)
		return
	}

	h.demux.route(s)
}

// BITSubscription is returned by AttachBIT; Current reports the last
// BITData actually delivered to the callback, or nil before the first
// complete instance arrives (spec.md §4 supplemented current_bit).
type BITSubscription struct{ d *bitDecoder }

func (s *BITSubscription) Current() *BITData { return s.d.current }

// AttachBIT registers cb to receive BITData for originalNetworkID.
func AttachBIT(h *Handle, originalNetworkID uint16, cb func(*BITData)) (*BITSubscription, error) {
	d := newBITDecoder(cb)
	if err := h.demux.attach(tableIDBIT, originalNetworkID, d); err != nil {
		return nil, err
	}
	return &BITSubscription{d: d}, nil
}

// DetachBIT tears down whatever BIT subscription is registered for
// originalNetworkID.
func DetachBIT(h *Handle, originalNetworkID uint16) error {
	return h.demux.detach(tableIDBIT, originalNetworkID)
}

// CDTSubscription is returned by AttachCDT.
type CDTSubscription struct{ d *cdtDecoder }

func (s *CDTSubscription) Current() *CDTData { return s.d.current }

// AttachCDT registers cb to receive CDTData for downloadDataID.
func AttachCDT(h *Handle, downloadDataID uint16, cb func(*CDTData)) (*CDTSubscription, error) {
	d := newCDTDecoder(cb)
	if err := h.demux.attach(tableIDCDT, downloadDataID, d); err != nil {
		return nil, err
	}
	return &CDTSubscription{d: d}, nil
}

// DetachCDT tears down whatever CDT subscription is registered for
// downloadDataID.
func DetachCDT(h *Handle, downloadDataID uint16) error {
	return h.demux.detach(tableIDCDT, downloadDataID)
}

// LDTSubscription is returned by AttachLDT.
type LDTSubscription struct{ d *ldtDecoder }

func (s *LDTSubscription) Current() *LDTData { return s.d.current }

// AttachLDT registers cb to receive LDTData for transportStreamID.
func AttachLDT(h *Handle, transportStreamID uint16, cb func(*LDTData)) (*LDTSubscription, error) {
	d := newLDTDecoder(cb)
	if err := h.demux.attach(tableIDLDT, transportStreamID, d); err != nil {
		return nil, err
	}
	return &LDTSubscription{d: d}, nil
}

// DetachLDT tears down whatever LDT subscription is registered for
// transportStreamID.
func DetachLDT(h *Handle, transportStreamID uint16) error {
	return h.demux.detach(tableIDLDT, transportStreamID)
}

// SDTTSubscription is returned by AttachSDTT.
type SDTTSubscription struct{ d *sdttDecoder }

func (s *SDTTSubscription) Current() *SDTTData { return s.d.current }

// AttachSDTT registers cb to receive SDTTData for the given
// maker_id/model_id pair, packed the way section.Extension carries it.
func AttachSDTT(h *Handle, makerID, modelID uint8, cb func(*SDTTData)) (*SDTTSubscription, error) {
	d := newSDTTDecoder(cb)
	extension := uint16(makerID)<<8 | uint16(modelID)
	if err := h.demux.attach(tableIDSDTT, extension, d); err != nil {
		return nil, err
	}
	return &SDTTSubscription{d: d}, nil
}

// DetachSDTT tears down whatever SDTT subscription is registered for
// the given maker_id/model_id pair.
func DetachSDTT(h *Handle, makerID, modelID uint8) error {
	return h.demux.detach(tableIDSDTT, uint16(makerID)<<8|uint16(modelID))
}
