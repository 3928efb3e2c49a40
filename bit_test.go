package isdbtpsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainSections(sections []*section) *section {
	for i := 0; i+1 < len(sections); i++ {
		sections[i].Next = sections[i+1]
	}
	if len(sections) == 0 {
		return nil
	}
	return sections[0]
}

func Test_BIT_roundTrip(t *testing.T) {
	data := &BITData{
		TableID:                tableIDBIT,
		OriginalNetworkID:      0x7fe1,
		Version:                3,
		CurrentNext:            true,
		BroadcastViewPropriety: true,
		Descriptors:            (&descriptorList{}).add(0x40, 2, []byte{0x01, 0x02}),
		Broadcasters: &BITBroadcaster{
			BroadcasterID: 0x01,
			Descriptors:   (&descriptorList{}).add(0x41, 1, []byte{0xaa}),
			Next: &BITBroadcaster{
				BroadcasterID: 0x02,
			},
		},
	}

	sections := BITSectionsGenerate(data)
	require.Len(t, sections, 1)

	parsed, err := parseSection(sections[0].Bytes)
	require.NoError(t, err)
	ok, err := sectionValid(tableIDBIT, sections[0].Bytes)
	require.NoError(t, err)
	require.True(t, ok)

	got := decodeBIT(parsed)
	assert.Equal(t, data.OriginalNetworkID, got.OriginalNetworkID)
	assert.Equal(t, data.Version, got.Version)
	assert.True(t, got.CurrentNext)
	assert.True(t, got.BroadcastViewPropriety)

	require.NotNil(t, got.Descriptors)
	assert.Equal(t, uint8(0x40), got.Descriptors.Tag)

	require.NotNil(t, got.Broadcasters)
	assert.Equal(t, uint8(0x01), got.Broadcasters.BroadcasterID)
	require.NotNil(t, got.Broadcasters.Descriptors)
	assert.Equal(t, uint8(0x41), got.Broadcasters.Descriptors.Tag)
	require.NotNil(t, got.Broadcasters.Next)
	assert.Equal(t, uint8(0x02), got.Broadcasters.Next.BroadcasterID)
}

func Test_BIT_multiSectionSplitNeverBreaksABroadcaster(t *testing.T) {
	var broadcasters, tail *BITBroadcaster
	for i := 0; i < 80; i++ {
		bi := &BITBroadcaster{
			BroadcasterID: uint8(i),
			Descriptors:   (&descriptorList{}).add(0x40, 20, make([]byte, 20)),
		}
		if broadcasters == nil {
			broadcasters = bi
		} else {
			tail.Next = bi
		}
		tail = bi
	}

	data := &BITData{TableID: tableIDBIT, OriginalNetworkID: 1, Broadcasters: broadcasters}
	sections := BITSectionsGenerate(data)
	assert.Greater(t, len(sections), 1, "80 broadcasters with 25-byte entries overflow one 1024-class section")

	var count int
	for _, s := range sections {
		parsed, err := parseSection(s.Bytes)
		require.NoError(t, err)
		d := decodeBIT(chainSections([]*section{parsed}))
		for b := d.Broadcasters; b != nil; b = b.Next {
			count++
		}
	}
	assert.Equal(t, 80, count)
}

func Test_bitDecoder_suppressesUnchangedRepublish(t *testing.T) {
	var fired int
	d := newBITDecoder(func(*BITData) { fired++ })

	data := &BITData{TableID: tableIDBIT, OriginalNetworkID: 1, Version: 1}
	sections := BITSectionsGenerate(data)
	s, err := parseSection(sections[0].Bytes)
	require.NoError(t, err)

	d.push(s)
	assert.Equal(t, 1, fired)

	s2, err := parseSection(sections[0].Bytes)
	require.NoError(t, err)
	d.push(s2)
	assert.Equal(t, 1, fired, "identical content is not re-reported")
}
