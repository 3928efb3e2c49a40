package isdbtpsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sectionFixture(number, lastNumber uint8) *section {
	return &section{
		TableID:    tableIDBIT,
		Extension:  0x1234,
		Version:    1,
		Number:     number,
		LastNumber: lastNumber,
	}
}

func Test_sectionAggregator_singleSection(t *testing.T) {
	var a sectionAggregator
	assert.False(t, a.completed())

	err := a.add(sectionFixture(0, 0))
	assert.NoError(t, err)
	assert.True(t, a.completed())
	assert.NotNil(t, a.chain())
}

func Test_sectionAggregator_multiSection(t *testing.T) {
	var a sectionAggregator
	assert.NoError(t, a.add(sectionFixture(0, 2)))
	assert.False(t, a.completed())
	assert.NoError(t, a.add(sectionFixture(2, 2)))
	assert.False(t, a.completed(), "section 1 is still missing")
	assert.NoError(t, a.add(sectionFixture(1, 2)))
	assert.True(t, a.completed())

	var numbers []uint8
	for s := a.chain(); s != nil; s = s.Next {
		numbers = append(numbers, s.Number)
	}
	assert.Equal(t, []uint8{0, 1, 2}, numbers)
}

func Test_sectionAggregator_duplicateAccepted(t *testing.T) {
	var a sectionAggregator
	assert.NoError(t, a.add(sectionFixture(0, 1)))
	assert.NoError(t, a.add(sectionFixture(0, 1)))
	assert.False(t, a.completed())
}

func Test_sectionAggregator_mismatches(t *testing.T) {
	var a sectionAggregator
	assert.NoError(t, a.add(sectionFixture(0, 1)))

	bad := sectionFixture(1, 1)
	bad.Extension = 0x9999
	assert.ErrorIs(t, a.add(bad), ErrExtensionMismatch)

	bad = sectionFixture(1, 1)
	bad.Version = 5
	assert.ErrorIs(t, a.add(bad), ErrVersionMismatch)

	bad = sectionFixture(1, 9)
	assert.ErrorIs(t, a.add(bad), ErrLastSectionNumberMismatch)
}

func Test_sectionAggregator_reset(t *testing.T) {
	var a sectionAggregator
	assert.NoError(t, a.add(sectionFixture(0, 0)))
	assert.True(t, a.completed())

	a.reset()
	assert.False(t, a.completed())
	assert.False(t, a.haveFirst)
}
