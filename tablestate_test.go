package isdbtpsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionWithCRC(number, lastNumber uint8, crc uint32) *section {
	bs := make([]byte, 4)
	bs[0] = byte(crc >> 24)
	bs[1] = byte(crc >> 16)
	bs[2] = byte(crc >> 8)
	bs[3] = byte(crc)
	return &section{
		Bytes:      bs,
		TableID:    tableIDBIT,
		Extension:  1,
		Number:     number,
		LastNumber: lastNumber,
	}
}

func Test_tableState_changedSuppressesRepublish(t *testing.T) {
	var ts tableState

	require.True(t, ts.add(sectionWithCRC(0, 0, 0xaaaaaaaa)))
	require.True(t, ts.completed())
	head := ts.chain()
	assert.True(t, ts.changed(head), "first completed instance is always reported")
	ts.restartBuild()

	require.True(t, ts.add(sectionWithCRC(0, 0, 0xaaaaaaaa)))
	head = ts.chain()
	assert.False(t, ts.changed(head), "identical CRC fingerprint suppresses republish")
	ts.restartBuild()

	require.True(t, ts.add(sectionWithCRC(0, 0, 0xbbbbbbbb)))
	head = ts.chain()
	assert.True(t, ts.changed(head), "a changed trailing CRC always republishes")
}

func Test_tableState_reset(t *testing.T) {
	var ts tableState
	require.True(t, ts.add(sectionWithCRC(0, 0, 0x1)))
	ts.changed(ts.chain())

	ts.reset()
	assert.False(t, ts.haveCRCs)
	assert.False(t, ts.completed())
}

func Test_sectionFingerprint_zeroFillsShortChains(t *testing.T) {
	head := sectionWithCRC(0, 0, 0x01020304)
	fp := sectionFingerprint(head)
	assert.Equal(t, [6]uint32{0x01020304, 0, 0, 0, 0, 0}, fp)
}
