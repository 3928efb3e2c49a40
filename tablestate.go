package isdbtpsi

// tableState is the Idle -> Building -> Complete bookkeeping shared by
// every table decoder (spec.md §4.4). A decoder is Idle when
// aggregator.haveFirst is false, Building while sections are still
// arriving, and transitions back to Idle the instant its aggregator
// completes (the decoder decodes immediately, there is no lingering
// Complete state to observe from outside).
//
// crcs holds the CRC_32 trailer of up to the first six sections of the
// most recently decoded table instance (spec.md §9: republish is
// suppressed unless at least one of these six fingerprints changed,
// following the reference decoder's own six-slot array rather than a
// full field-by-field comparison).
type tableState struct {
	aggregator sectionAggregator
	crcs       [6]uint32
	haveCRCs   bool
}

// reset discards any in-progress build and its fingerprint, used on
// discontinuity and on detach.
func (ts *tableState) reset() {
	ts.aggregator.reset()
	ts.haveCRCs = false
	ts.crcs = [6]uint32{}
}

// restartBuild discards only the in-progress section set, keeping the
// change-suppression fingerprint from the last completed instance.
// Used both after a successful decode (ready for the next version) and
// after a version/extension/last_number mismatch forces a fresh start.
func (ts *tableState) restartBuild() {
	ts.aggregator.reset()
}

// add buffers s, reporting whether the version/extension/last_number
// stayed consistent with whatever is already buffered. false means the
// caller should reset and start over rather than decode a mismatched set.
func (ts *tableState) add(s *section) bool {
	if err := ts.aggregator.add(s); err != nil {
		return false
	}
	return true
}

// completed reports whether every section of the instance currently
// being built has arrived.
func (ts *tableState) completed() bool {
	return ts.aggregator.completed()
}

// chain returns the ordered section list for the completed instance.
func (ts *tableState) chain() *section {
	return ts.aggregator.chain()
}

// changed compares the completed chain's fingerprint against the
// stored one, updating it unconditionally (even a no-op republish
// moves the fingerprint window forward, matching the reference
// decoder always overwriting current_bit/current_cdt/etc.).
func (ts *tableState) changed(head *section) bool {
	next := sectionFingerprint(head)
	changed := !ts.haveCRCs || next != ts.crcs
	ts.crcs = next
	ts.haveCRCs = true
	return changed
}

// sectionFingerprint reads the CRC_32 trailer of up to the first six
// sections of a chain, zero-filling any slot beyond the chain's length.
func sectionFingerprint(head *section) [6]uint32 {
	var out [6]uint32
	cur := head
	for i := 0; i < 6 && cur != nil; i++ {
		out[i] = embeddedCRC32(cur.Bytes)
		cur = cur.Next
	}
	return out
}
