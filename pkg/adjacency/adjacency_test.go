package adjacency

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
)

func TestLoadVectorParsesWhitespaceSeparatedEdges(t *testing.T) {
	text := "# comment\n0 1\n0 2\n\n1 2\n"

	entries, err := LoadVector(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, []compact.Entry[uint32, uint32]{
		{Key: 0, Value: 1},
		{Key: 0, Value: 2},
		{Key: 1, Value: 2},
	}, entries)
}

func TestLoadVectorRejectsMalformedLine(t *testing.T) {
	_, err := LoadVector(strings.NewReader("0 1 2\n"))
	require.Error(t, err)
}

func TestLoadVectorRejectsNonNumericField(t *testing.T) {
	_, err := LoadVector(strings.NewReader("a b\n"))
	require.Error(t, err)
}

func TestWriteAndLoadMappedRoundTrips(t *testing.T) {
	entries := []compact.Entry[uint32, uint32]{
		{Key: 0, Value: 1},
		{Key: 0, Value: 2},
		{Key: 2, Value: 0},
	}

	prefix := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, WriteMapped(prefix, entries, 3))

	got, err := LoadMapped(prefix)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestLoadMappedRejectsBadMagic(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, os.WriteFile(prefix+".offsets", []byte("not-a-valid-header"), 0o644))
	require.NoError(t, os.WriteFile(prefix+".targets", []byte("not-a-valid-header"), 0o644))

	_, err := LoadMapped(prefix)
	require.Error(t, err)
}
