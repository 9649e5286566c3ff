package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wcoj/pkg/motif"
)

func sampleResult() RunResult {
	return RunResult{
		Relations: []motif.Relation{{Src: 0, Dst: 1}, {Src: 1, Dst: 0}},
		Source:    0,
		Steps: []StepResult{
			{Time: 1, Updates: 2, Matches: 1, NetDelta: 1},
			{Time: 2, Updates: 3, Matches: 2, NetDelta: -1},
		},
	}
}

func TestLoadRunResult(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	data, err := json.Marshal(result)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := loadRunResult(path)
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestLoadRunResultRejectsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadRunResult(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRelationsTableRendersEachRelation(t *testing.T) {
	t.Parallel()

	out := relationsTable(sampleResult())
	assert.Contains(t, out, "Relation")
	assert.True(t, strings.Count(out, "\n") > 1)
}

func TestStepsTableIncludesFooterTotals(t *testing.T) {
	t.Parallel()

	out := stepsTable(sampleResult())
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "5")
}
