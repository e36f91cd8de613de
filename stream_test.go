package goslink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamListAddRejectsSequenceOutOfRange(t *testing.T) {
	s := NewStreamList()
	err := s.Add("GE", "WLF", "", 0x1000000, "")
	assert.ErrorIs(t, err, ErrSequenceOutOfRange)
}

func TestStreamListUniMultiConflict(t *testing.T) {
	s := NewStreamList()
	require.NoError(t, s.SetUniStation("", -1, ""))
	err := s.Add("GE", "WLF", "", -1, "")
	assert.ErrorIs(t, err, ErrUniMultiConflict)

	s2 := NewStreamList()
	require.NoError(t, s2.Add("GE", "WLF", "", -1, ""))
	err = s2.SetUniStation("", -1, "")
	assert.ErrorIs(t, err, ErrUniMultiConflict)
}

func TestStreamListUpdateGlobMatchesMultipleEntries(t *testing.T) {
	s := NewStreamList()
	require.NoError(t, s.Add("GE", "*", "", -1, ""))
	require.NoError(t, s.Add("IU", "ANMO", "", -1, ""))
	require.NoError(t, s.Add("G?", "W*", "", -1, ""))

	n := s.update("GE", "WLF", 0xAB, "2024,001,00,00,00")
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 0xAB, s.Entries()[0].SeqNum)
	assert.Equal(t, "2024,001,00,00,00", s.Entries()[0].Timestamp)
	assert.EqualValues(t, -1, s.Entries()[1].SeqNum)
	assert.EqualValues(t, 0xAB, s.Entries()[2].SeqNum)
}

func TestStreamListUpdateNoMatchReturnsZero(t *testing.T) {
	s := NewStreamList()
	require.NoError(t, s.Add("IU", "ANMO", "", -1, ""))

	n := s.update("GE", "WLF", 0xAB, "2024,001,00,00,00")
	assert.Equal(t, 0, n)
}

func TestStreamResumeSeqWrapsModulo2To24(t *testing.T) {
	s := &Stream{SeqNum: 0xFFFFFF}
	assert.EqualValues(t, 0, s.resumeSeq())
	assert.Equal(t, "000000", s.resumeHex())
}

func TestStreamResumeSeqFromNext(t *testing.T) {
	s := &Stream{SeqNum: -1}
	assert.EqualValues(t, -1, s.resumeSeq())
	assert.Equal(t, "", s.resumeHex())
}

func TestUniStationUpdateUnconditional(t *testing.T) {
	s := NewStreamList()
	require.NoError(t, s.SetUniStation("", -1, ""))

	n := s.update("ANYTHING", "GOES", 5, "2024,100,01,02,03")
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 5, s.Entries()[0].SeqNum)
}
