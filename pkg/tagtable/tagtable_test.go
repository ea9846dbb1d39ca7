package tagtable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
)

func mustConfig(t *testing.T, flags string) *iontype.Config {
	t.Helper()
	cfg, err := iontype.ParseBiemann(flags)
	require.NoError(t, err)
	return cfg
}

func TestBuild_Empty(t *testing.T) {
	tab := Build(nil, mustConfig(t, "b,y"), 2)
	assert.Equal(t, 0, tab.NumPeaks())
	assert.True(t, math.IsInf(tab.MinNInData, 1))
	assert.True(t, math.IsInf(tab.MaxNInData, -1))
	assert.True(t, math.IsInf(tab.MinCInData, 1))
	assert.True(t, math.IsInf(tab.MaxCInData, -1))

	w := tab.NWindow()
	from, to := w.Advance(500)
	assert.Equal(t, from, to)
}

func TestBuild_TagsAndBounds(t *testing.T) {
	cfg := mustConfig(t, "b,bp2,y")
	peaks := []core.Peak{
		{Mass: 200.0, Tolerance: 0.5},
		{Mass: 400.0, Tolerance: 0.5},
	}
	tab := Build(peaks, cfg, 2)

	require.Equal(t, 2, tab.NumN())
	require.Equal(t, 1, tab.NumC())

	bIdx := cfg.Index(iontype.B)
	bp2Idx := cfg.Index(iontype.BP2)
	yIdx := cfg.Index(iontype.Y)

	tag, tol := tab.NTag(0, bIdx)
	assert.InDelta(t, 200.0+core.ElectronMass, tag, 1e-9)
	assert.Equal(t, 0.5, tol)

	// Doubly charged interpretation doubles both mass and tolerance
	tag, tol = tab.NTag(0, bp2Idx)
	assert.InDelta(t, 400.0-core.ProtonMass+core.ElectronMass, tag, 1e-9)
	assert.Equal(t, 1.0, tol)

	tag, _ = tab.CTag(1, yIdx)
	assert.InDelta(t, 400.0-core.MassH-core.ProtonMass, tag, 1e-9)

	for i := range peaks {
		assert.LessOrEqual(t, tab.MinN[i], tab.MaxN[i])
		assert.LessOrEqual(t, tab.MinC[i], tab.MaxC[i])
		assert.LessOrEqual(t, tab.MinNInData, tab.MinN[i])
		assert.GreaterOrEqual(t, tab.MaxNInData, tab.MaxN[i])
	}
	// Peak 1's bp2 tag is the largest N window in the data
	tag, tol = tab.NTag(1, bp2Idx)
	assert.InDelta(t, tag+tol, tab.MaxNInData, 1e-9)
}

func TestBuild_ChargeLimits(t *testing.T) {
	cfg := mustConfig(t, "b,bp2,bp3")
	peaks := []core.Peak{
		{Mass: 300.0, Tolerance: 0.5},
		{Mass: 310.0, Tolerance: 0.5, Charge: 2},
	}
	tab := Build(peaks, cfg, 2)

	tag, _ := tab.NTag(0, cfg.Index(iontype.BP3))
	assert.True(t, math.IsNaN(tag), "bp3 must be disabled for a 2+ precursor")

	// A peak with a known charge of 2 only takes the doubly charged interpretation
	tag, _ = tab.NTag(1, cfg.Index(iontype.B))
	assert.True(t, math.IsNaN(tag))
	tag, _ = tab.NTag(1, cfg.Index(iontype.BP2))
	assert.False(t, math.IsNaN(tag))
}

func TestBuild_SatelliteWidening(t *testing.T) {
	peaks := []core.Peak{{Mass: 300.0, Tolerance: 0.5}}
	plain := Build(peaks, mustConfig(t, "a"), 1)
	withD := Build(peaks, mustConfig(t, "a,d"), 1)

	assert.InDelta(t, plain.MaxN[0]+core.MaxSatelliteLoss, withD.MaxN[0], 1e-9)
	assert.Equal(t, plain.MinN[0], withD.MinN[0])
}

func TestWindow_Monotone(t *testing.T) {
	cfg := mustConfig(t, "b")
	peaks := []core.Peak{
		{Mass: 100.0, Tolerance: 0.5},
		{Mass: 200.0, Tolerance: 0.5},
		{Mass: 300.0, Tolerance: 0.5},
	}
	tab := Build(peaks, cfg, 1)
	w := tab.NWindow()

	from, to := w.Advance(50)
	assert.Equal(t, 0, from)
	assert.Equal(t, 0, to)

	from, to = w.Advance(200.0)
	assert.Equal(t, 1, from, "peak 0 is behind the running mass")
	assert.Equal(t, 2, to)
	assert.True(t, w.Contains(1, 200.0))

	from, to = w.Advance(1000.0)
	assert.Equal(t, 3, from)
	assert.Equal(t, 3, to)
}
