package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/writer/sqlite"
)

func TestSummarizeScores(t *testing.T) {
	scores := []sqlite.Score{
		{Spectrum: "a", Rank: 1, Score: 10, Unmatched: 2},
		{Spectrum: "a", Rank: 2, Score: 4},
		{Spectrum: "b", Rank: 1, Score: 20, Unmatched: 0},
		{Spectrum: "c", Rank: 1, Score: 30, Unmatched: 4},
		{Spectrum: "c", Rank: 2, Score: 28},
	}
	s := summarizeScores(scores)
	assert.Equal(t, 3, s.Spectra)
	assert.InDelta(t, 20.0, s.Mean, 1e-9)
	assert.InDelta(t, 10.0, s.StdDev, 1e-9)
	assert.Equal(t, 20.0, s.Median)
	assert.Equal(t, 30.0, s.Q90)
	assert.InDelta(t, 2.0, s.MeanUnmatched, 1e-9)
	assert.InDelta(t, 4.0, s.MeanDelta, 1e-9)

	assert.Equal(t, runSummary{}, summarizeScores(nil))
}

func TestConfigValue(t *testing.T) {
	assert.Equal(t, true, configValue("yes"))
	assert.Equal(t, false, configValue("off"))
	assert.Equal(t, 5, configValue("5"))
	assert.Equal(t, 0.5, configValue("0.5"))
	assert.Equal(t, "20ppm", configValue("20ppm"))
}

func TestDetectFormat(t *testing.T) {
	f, err := detectFormat("lib.MSP", "")
	require.NoError(t, err)
	assert.Equal(t, "msp", f)

	f, err = detectFormat("run.txt", "MGF")
	require.NoError(t, err)
	assert.Equal(t, "mgf", f)

	_, err = detectFormat("run.txt", "")
	assert.Error(t, err)
	_, err = detectFormat("run.mgf", "mzml")
	assert.Error(t, err)
}

func TestReadPeptideList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peptides.txt")
	require.NoError(t, os.WriteFile(path, []byte("# header\nPEPTIDEK\tP1\n\nSAMPLER\n"), 0o644))

	cands, err := readPeptideList(path)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "PEPTIDEK", cands[0].Peptide.Sequence())
	assert.Equal(t, "P1", cands[0].Protein)
	assert.Equal(t, "", cands[1].Protein)

	require.NoError(t, os.WriteFile(path, []byte("PEPTIDEZ\n"), 0o644))
	_, err = readPeptideList(path)
	assert.ErrorIs(t, err, core.ErrInvalidResidue)
}

func TestSettingsFromConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("instrument", "esi-q-cid")
	viper.Set("ions", "b,y")
	viper.Set("parent-tol", "10ppm")
	viper.Set("fragment-tol", "0.02")
	viper.Set("top-n", 3)
	viper.Set("max-unmatched", -1)
	viper.Set("max-immonium-unmatched", -1)
	viper.Set("internal-min-len", 2)
	viper.Set("crosslink", true)
	viper.Set("bridge-mass", 96.0211)

	s, err := settingsFromConfig()
	require.NoError(t, err)
	assert.Equal(t, "ESI-Q-CID", s.Instrument.String())
	assert.Equal(t, core.Tolerance{Value: 10, Unit: core.PPM}, s.ParentTol)
	assert.Equal(t, core.Tolerance{Value: 0.02}, s.FragmentTol)
	assert.Equal(t, 3, s.TopN)
	assert.True(t, s.Crosslink)
	assert.Equal(t, 96.0211, s.BridgeMass)

	viper.Set("fragment-tol", "fast")
	_, err = settingsFromConfig()
	assert.Error(t, err)
}
