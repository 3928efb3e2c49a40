package isdbtpsi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SDTT_roundTrip(t *testing.T) {
	startTime := time.Date(2026, time.March, 4, 12, 30, 0, 0, time.UTC)

	data := &SDTTData{
		TableID:           tableIDSDTT,
		MakerID:           0x01,
		ModelID:           0x02,
		Version:           4,
		CurrentNext:       true,
		TransportStreamID: 0x0001,
		OriginalNetworkID: 0x7fe1,
		ServiceID:         0x0010,
		Contents: &SDTTContent{
			Group:                        0x3,
			TargetVersion:                0x123,
			NewVersion:                   0x456,
			DownloadLevel:                0x1,
			VersionIndicator:             0x2,
			ScheduleTimeshiftInformation: 0x5,
			Schedules: &SDTTSchedule{
				StartTime: startTime,
				Duration:  2*time.Hour + 30*time.Minute,
			},
			Descriptors: (&descriptorList{}).add(0x70, 1, []byte{0x09}),
		},
	}

	sections := SDTTSectionsGenerate(data)
	require.Len(t, sections, 1)
	ok, err := sectionValid(tableIDSDTT, sections[0].Bytes)
	require.NoError(t, err)
	require.True(t, ok)

	parsed, err := parseSection(sections[0].Bytes)
	require.NoError(t, err)

	got := decodeSDTT(parsed)
	assert.Equal(t, data.TransportStreamID, got.TransportStreamID)
	assert.Equal(t, data.OriginalNetworkID, got.OriginalNetworkID)
	assert.Equal(t, data.ServiceID, got.ServiceID)
	assert.Equal(t, data.MakerID, got.MakerID)
	assert.Equal(t, data.ModelID, got.ModelID)

	require.NotNil(t, got.Contents)
	c := got.Contents
	assert.Equal(t, uint8(0x3), c.Group)
	assert.Equal(t, uint16(0x123), c.TargetVersion)
	assert.Equal(t, uint16(0x456), c.NewVersion)
	assert.Equal(t, uint8(0x1), c.DownloadLevel)
	assert.Equal(t, uint8(0x2), c.VersionIndicator)
	assert.Equal(t, uint8(0x5), c.ScheduleTimeshiftInformation)

	require.NotNil(t, c.Schedules)
	assert.Equal(t, 2*time.Hour+30*time.Minute, c.Schedules.Duration)
	assert.Equal(t, startTime.Format("2006-01-02"), c.Schedules.StartTime.Format("2006-01-02"))

	require.NotNil(t, c.Descriptors)
	assert.Equal(t, uint8(0x70), c.Descriptors.Tag)
}

func Test_sdttDecoder_currentSnapshot(t *testing.T) {
	d := newSDTTDecoder(func(*SDTTData) {})

	sections := SDTTSectionsGenerate(&SDTTData{TableID: tableIDSDTT, ServiceID: 5})
	parsed, err := parseSection(sections[0].Bytes)
	require.NoError(t, err)

	assert.Nil(t, d.current)
	d.push(parsed)
	require.NotNil(t, d.current)
	assert.Equal(t, uint16(5), d.current.ServiceID)
}
