package motif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wcoj/pkg/motif"
)

func TestParseTriangle(t *testing.T) {
	t.Parallel()

	data := []byte(`
relations:
  - [a, b]
  - [b, c]
  - [c, a]
source: 0
`)

	relations, source, err := motif.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 0, source)
	require.Len(t, relations, 3)

	assert.Equal(t, motif.Relation{Src: 0, Dst: 1}, relations[0])
	assert.Equal(t, motif.Relation{Src: 1, Dst: 2}, relations[1])
	assert.Equal(t, motif.Relation{Src: 2, Dst: 0}, relations[2])
}

func TestParseReusesAttributeIDsAcrossRelations(t *testing.T) {
	t.Parallel()

	data := []byte(`
relations:
  - [x, y]
  - [y, z]
source: 1
`)

	relations, source, err := motif.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 1, source)
	assert.Equal(t, motif.Relation{Src: 0, Dst: 1}, relations[0])
	assert.Equal(t, motif.Relation{Src: 1, Dst: 2}, relations[1])
}

func TestParseEmptyRelationsErrors(t *testing.T) {
	t.Parallel()

	_, _, err := motif.Parse([]byte(`relations: []`))
	require.Error(t, err)
}

func TestParseSourceOutOfRangeErrors(t *testing.T) {
	t.Parallel()

	data := []byte(`
relations:
  - [a, b]
source: 5
`)

	_, _, err := motif.Parse(data)
	require.Error(t, err)
}

func TestParseMalformedYAMLErrors(t *testing.T) {
	t.Parallel()

	_, _, err := motif.Parse([]byte("not: [valid"))
	require.Error(t, err)
}
