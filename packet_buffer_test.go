package isdbtpsi

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_newPacketBuffer_explicitSize(t *testing.T) {
	bs := append(tsPacket(0x10, 0, true, 0, []byte{1}), tsPacket(0x11, 1, true, 0, []byte{2})...)
	pb, err := newPacketBuffer(bytes.NewReader(bs), packetSize)
	require.NoError(t, err)

	p1, err := pb.next()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x10), p1.Header.PID)

	p2, err := pb.next()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x11), p2.Header.PID)

	_, err = pb.next()
	assert.ErrorIs(t, err, io.EOF)
}

func Test_newPacketBuffer_autoDetect(t *testing.T) {
	bs := append(tsPacket(0x10, 0, true, 0, []byte{1}), tsPacket(0x11, 1, true, 0, []byte{2})...)
	pb, err := newPacketBuffer(bufio.NewReader(bytes.NewReader(bs)), 0)
	require.NoError(t, err)
	assert.Equal(t, packetSize, pb.packetSize)

	p1, err := pb.next()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x10), p1.Header.PID)
}

func Test_autoDetectPacketSize_singleSyncByte(t *testing.T) {
	bs := make([]byte, packetSize+5)
	bs[0] = syncByte
	_, err := autoDetectPacketSize(bufio.NewReader(bytes.NewReader(bs)))
	assert.ErrorIs(t, err, ErrSingleSyncByte)
}

func Test_autoDetectPacketSize_notSyncByte(t *testing.T) {
	bs := make([]byte, packetSize+5)
	bs[0] = 0x00
	_, err := autoDetectPacketSize(bufio.NewReader(bytes.NewReader(bs)))
	assert.ErrorIs(t, err, ErrNotATSPacket)
}
