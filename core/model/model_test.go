package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeading(t *testing.T) {
	h, err := ParseHeading("UP")
	require.NoError(t, err)
	assert.Equal(t, HeadingUp, h)

	h, err = ParseHeading("")
	require.NoError(t, err)
	assert.Equal(t, HeadingNone, h)

	_, err = ParseHeading("sideways")
	assert.Error(t, err)
}

func TestHallCallDecoding(t *testing.T) {
	var call HallCall
	require.NoError(t, json.Unmarshal([]byte(`{"level":3,"heading":"down"}`), &call))
	assert.Equal(t, HallCall{Level: 3, Heading: HeadingDown}, call)

	assert.Error(t, json.Unmarshal([]byte(`{"level":3,"heading":"x"}`), &call))
}

func TestUnitViewEncodesEnumsAsStrings(t *testing.T) {
	dest := 4
	v := UnitView{ID: 1, Position: 2.5, Destination: &dest, Phase: PhaseMoving, Heading: HeadingUp}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"phase":"moving"`)
	assert.Contains(t, s, `"heading":"up"`)
	assert.Contains(t, s, `"destination":4`)
}
