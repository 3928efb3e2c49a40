package isdbtpsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_descriptorList_add(t *testing.T) {
	var l descriptorList
	d1 := l.add(0x40, 3, []byte{1, 2, 3})
	d2 := l.add(0x41, 0, nil)

	got := l.slice()
	assert.Equal(t, []*Descriptor{d1, d2}, got)
	assert.Equal(t, d1, l.head())
}

func Test_descriptorList_empty(t *testing.T) {
	var l descriptorList
	l.add(0x40, 0, nil)
	l.empty()
	assert.Nil(t, l.head())
	assert.Empty(t, l.slice())
}

func Test_parseDescriptors(t *testing.T) {
	bs := []byte{0x40, 0x02, 0xaa, 0xbb, 0x41, 0x01, 0xcc}
	var l descriptorList
	offset := 0
	parseDescriptors(&l, bs, &offset, len(bs))

	got := l.slice()
	if assert.Len(t, got, 2) {
		assert.Equal(t, uint8(0x40), got[0].Tag)
		assert.Equal(t, uint8(2), got[0].Length)
		assert.Equal(t, []byte{0xaa, 0xbb}, got[0].Data)
		assert.Equal(t, uint8(0x41), got[1].Tag)
		assert.Equal(t, []byte{0xcc}, got[1].Data)
	}
	assert.Equal(t, len(bs), offset)
}

func Test_parseDescriptors_clampsOnOverrun(t *testing.T) {
	bs := []byte{0x40, 0x02, 0xaa, 0xbb, 0x41, 0x05, 0xcc}
	var l descriptorList
	offset := 0
	parseDescriptors(&l, bs, &offset, len(bs))

	got := l.slice()
	assert.Len(t, got, 1, "the truncated second descriptor is dropped rather than read out of bounds")
	assert.Equal(t, len(bs), offset)
}

func Test_parseDescriptors_clampsOnOverrunLength(t *testing.T) {
	bs := []byte{0x40, 0x02, 0xaa, 0xbb, 0x41, 0x01, 0xcc, 0xdd, 0xee}
	var l descriptorList
	offset := 0
	parseDescriptors(&l, bs, &offset, 6) // only 6 bytes belong to this loop, not all 9

	assert.Len(t, l.slice(), 1, "the second descriptor's data byte lies outside the loop, so it is dropped")
	assert.Equal(t, 6, offset)
}

func Test_writeDescriptors_roundTrip(t *testing.T) {
	var l descriptorList
	l.add(0x40, 2, []byte{0xaa, 0xbb})
	l.add(0x41, 1, []byte{0xcc})

	out := make([]byte, descriptorsLength(&l))
	offset := 0
	n := writeDescriptors(&l, out, &offset)
	assert.Equal(t, len(out), n)

	var roundTripped descriptorList
	offset = 0
	parseDescriptors(&roundTripped, out, &offset, len(out))
	assert.Equal(t, l.slice(), roundTripped.slice())
}
