package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

func writeRun(t *testing.T, path string, titles ...string) string {
	t.Helper()
	w, err := NewWriter(path, "Q-CID", "topn: 2\n")
	require.NoError(t, err)

	for i, title := range titles {
		spec := &core.Spectrum{
			Title:       title,
			Charge:      2,
			PrecursorMZ: 500,
			Peaks:       []core.Peak{{Mass: 100, Intensity: 5}, {Mass: 200, Intensity: 7}},
		}
		parent := spec.Parent(core.Tolerance{Value: 0.02})
		matches := []core.TagMatch{
			{Sequence: "PEPTIDEK", Protein: "P1", Score: float64(20 + i), Unmatched: 1},
			{Sequence: "KEDITPEP", Protein: "P2", Score: float64(10 + i), Unmatched: 3, Modification: "Oxidation@M4"},
		}
		require.NoError(t, w.WriteResult(spec, &parent, matches))
	}
	id := w.RunID()
	require.NoError(t, w.Finalize())
	return id
}

func TestWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	id := writeRun(t, path, "scan=1", "scan=2")

	_, err := uuid.Parse(id)
	require.NoError(t, err, "run id is a UUID")

	runs, err := LoadRuns(path)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "Q-CID", runs[0].Instrument)
	assert.Equal(t, "topn: 2\n", runs[0].Settings)
	assert.Equal(t, 2, runs[0].SpectrumCount)
	assert.Equal(t, 4, runs[0].MatchCount)

	scores, err := LoadScores(path, id, 0)
	require.NoError(t, err)
	require.Len(t, scores, 4)
	assert.Equal(t, Score{Spectrum: "scan=1", Charge: 2, Rank: 1, Sequence: "PEPTIDEK", Protein: "P1", Score: 20, Unmatched: 1}, scores[0])
	assert.Equal(t, "KEDITPEP", scores[1].Sequence)
	assert.Equal(t, 2, scores[1].Rank)
	assert.Equal(t, 21.0, scores[2].Score)

	top, err := LoadScores(path, id, 1)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, []float64{20, 21}, []float64{top[0].Score, top[1].Score})
}

func TestWriter_AppendsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	first := writeRun(t, path, "a")
	second := writeRun(t, path, "b", "c")
	assert.NotEqual(t, first, second)

	runs, err := LoadRuns(path)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	all, err := LoadScores(path, "", 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Spectrum, all[1].Spectrum, all[2].Spectrum})

	only, err := LoadScores(path, second, 0)
	require.NoError(t, err)
	assert.Len(t, only, 4)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadRuns(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
	_, err = LoadScores(filepath.Join(t.TempDir(), "missing.db"), "", 0)
	assert.Error(t, err)
}

func TestEncodePeaksFloat64(t *testing.T) {
	buf := encodePeaksFloat64([]core.Peak{{Mass: 1.5, Intensity: 2}, {Mass: 3, Intensity: 4}}, true)
	require.Len(t, buf, 16)
	assert.Equal(t, byte(0xf8), buf[6], "1.5 little-endian")
	assert.Equal(t, byte(0x3f), buf[7])
}
