package isdbtpsi

import "golang.org/x/exp/slices"

// subtableDecoder is implemented by each table-specific decoder
// (bitDecoder, cdtDecoder, ldtDecoder, sdttDecoder). The demux router
// owns no table semantics itself — it only dispatches a parsed section
// to whichever decoder is attached for its (table_id, extension) pair,
// per spec.md §4.3.
type subtableDecoder interface {
	push(s *section)
	reset()
}

type subtableKey struct {
	tableID   uint8
	extension uint16
}

// demux is the (table_id, table_id_extension) -> decoder registry a
// Handle consults for every reassembled section.
type demux struct {
	entries map[subtableKey]subtableDecoder
}

func newDemux() *demux {
	return &demux{entries: make(map[subtableKey]subtableDecoder)}
}

// attach registers dec to receive every section matching (tableID, extension).
func (d *demux) attach(tableID uint8, extension uint16, dec subtableDecoder) error {
	k := subtableKey{tableID, extension}
	if _, ok := d.entries[k]; ok {
		return ErrAlreadyAttached
	}
	d.entries[k] = dec
	return nil
}

// detach tears down whatever decoder is registered for (tableID, extension).
func (d *demux) detach(tableID uint8, extension uint16) error {
	k := subtableKey{tableID, extension}
	dec, ok := d.entries[k]
	if !ok {
		return ErrUnknownSubtable
	}
	dec.reset()
	delete(d.entries, k)
	return nil
}

// route hands a validated section to its registered decoder, if any.
// An unattached (table_id, extension) is not an error at this layer;
// it just means nothing in this Handle cares about that subtable, so
// the section is silently dropped.
func (d *demux) route(s *section) {
	if dec, ok := d.entries[subtableKey{s.TableID, s.Extension}]; ok {
		dec.push(s)
	}
}

// reset reinitializes every attached decoder, used when the
// reassembler reports a discontinuity: every in-progress table build
// across every attached subtable must restart clean.
//
// Resets run in a deterministic (table_id, extension) order rather
// than Go's randomized map iteration, so a message callback observing
// a batch of resets sees a stable, reproducible sequence.
func (d *demux) reset() {
	keys := make([]subtableKey, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b subtableKey) bool {
		if a.tableID != b.tableID {
			return a.tableID < b.tableID
		}
		return a.extension < b.extension
	})

	for _, k := range keys {
		d.entries[k].reset()
	}
}
