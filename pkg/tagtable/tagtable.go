// Package tagtable converts a spectrum's peaks into per-ion-type candidate running masses
// ("tags") and the pruning windows used by the ion matcher.
package tagtable

import (
	"math"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
)

// Table holds the tags of one spectrum. Tag and tolerance slices are flat,
// indexed by peak*numTypes + typeIndex. A NaN tag never matches.
type Table struct {
	Peaks []core.Peak

	numN, numC int
	nTag, nTol []float64
	cTag, cTol []float64

	// Per-peak bounds on the running mass that can match any tag of the peak
	MinN, MaxN []float64
	MinC, MaxC []float64

	// Spectrum-wide bounds
	MinNInData, MaxNInData float64
	MinCInData, MaxCInData float64

	// Monotone pruning arrays: prefix max of the upper bounds and suffix min of the lower bounds
	preMaxN, sufMinN []float64
	preMaxC, sufMinC []float64
}

// Build computes the tag table for peaks sorted by ascending m/z. Ion types whose charge
// exceeds maxCharge are disabled.
func Build(peaks []core.Peak, cfg *iontype.Config, maxCharge int) *Table {
	if maxCharge < 1 {
		maxCharge = 1
	}
	np := len(peaks)
	t := &Table{
		Peaks: peaks,
		numN:  cfg.NumN(),
		numC:  cfg.NumC(),
		nTag:  make([]float64, np*cfg.NumN()),
		nTol:  make([]float64, np*cfg.NumN()),
		cTag:  make([]float64, np*cfg.NumC()),
		cTol:  make([]float64, np*cfg.NumC()),
		MinN:  make([]float64, np),
		MaxN:  make([]float64, np),
		MinC:  make([]float64, np),
		MaxC:  make([]float64, np),
	}

	nWiden, cWiden := 0.0, 0.0
	if cfg.HasSatellite(iontype.NTerminal) {
		nWiden = core.MaxSatelliteLoss
	}
	if cfg.HasSatellite(iontype.CTerminal) {
		cWiden = core.MaxSatelliteLoss
	}

	for i := range peaks {
		t.MinN[i], t.MaxN[i] = fill(peaks[i], cfg.N, maxCharge, t.nTag[i*t.numN:(i+1)*t.numN], t.nTol[i*t.numN:(i+1)*t.numN])
		t.MinC[i], t.MaxC[i] = fill(peaks[i], cfg.C, maxCharge, t.cTag[i*t.numC:(i+1)*t.numC], t.cTol[i*t.numC:(i+1)*t.numC])
		if !math.IsInf(t.MaxN[i], -1) {
			t.MaxN[i] += nWiden
		}
		if !math.IsInf(t.MaxC[i], -1) {
			t.MaxC[i] += cWiden
		}
	}

	t.MinNInData, t.MaxNInData, t.preMaxN, t.sufMinN = pruning(t.MinN, t.MaxN)
	t.MinCInData, t.MaxCInData, t.preMaxC, t.sufMinC = pruning(t.MinC, t.MaxC)
	return t
}

// fill computes the tags of one peak for the given ion types and returns the union of
// their tolerance windows. A peak without any usable tag gets [+Inf, -Inf].
func fill(pk core.Peak, defs []iontype.Def, maxCharge int, tags, tols []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for k, d := range defs {
		z := d.Charge
		if z > maxCharge || (pk.Charge > 1 && pk.Charge != z) {
			tags[k] = math.NaN()
			tols[k] = 0
			continue
		}
		tag := core.ChargedPeakMass(pk.Mass, z) + d.Offset
		tol := pk.Tolerance * float64(z)
		tags[k] = tag
		tols[k] = tol
		lo = math.Min(lo, tag-tol)
		hi = math.Max(hi, tag+tol)
	}
	return lo, hi
}

func pruning(lo, hi []float64) (minAll, maxAll float64, preMax, sufMin []float64) {
	n := len(lo)
	preMax = make([]float64, n)
	sufMin = make([]float64, n)
	minAll, maxAll = math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		maxAll = math.Max(maxAll, hi[i])
		preMax[i] = maxAll
	}
	for i := n - 1; i >= 0; i-- {
		minAll = math.Min(minAll, lo[i])
		sufMin[i] = minAll
	}
	return minAll, maxAll, preMax, sufMin
}

// NumPeaks returns the number of peaks in the table.
func (t *Table) NumPeaks() int { return len(t.Peaks) }

// NumN returns the number of N-terminal ion types per peak.
func (t *Table) NumN() int { return t.numN }

// NumC returns the number of C-terminal ion types per peak.
func (t *Table) NumC() int { return t.numC }

// NTag returns the tag and absolute tolerance of N-terminal ion type k at peak i.
func (t *Table) NTag(i, k int) (tag, tol float64) {
	j := i*t.numN + k
	return t.nTag[j], t.nTol[j]
}

// CTag returns the tag and absolute tolerance of C-terminal ion type k at peak i.
func (t *Table) CTag(i, k int) (tag, tol float64) {
	j := i*t.numC + k
	return t.cTag[j], t.cTol[j]
}

// NRow returns the tags and tolerances of peak i for all N-terminal ion types.
func (t *Table) NRow(i int) (tags, tols []float64) {
	return t.nTag[i*t.numN : (i+1)*t.numN], t.nTol[i*t.numN : (i+1)*t.numN]
}

// CRow returns the tags and tolerances of peak i for all C-terminal ion types.
func (t *Table) CRow(i int) (tags, tols []float64) {
	return t.cTag[i*t.numC : (i+1)*t.numC], t.cTol[i*t.numC : (i+1)*t.numC]
}

// Window is a cursor over the peaks whose N or C window can contain a running mass that
// only grows during a scan. Peaks behind the cursor are never revisited.
type Window struct {
	lo, hi         []float64
	preMax, sufMin []float64
	start          int
}

// NWindow returns a fresh cursor for the forward (N-terminal) scan.
func (t *Table) NWindow() Window {
	return Window{lo: t.MinN, hi: t.MaxN, preMax: t.preMaxN, sufMin: t.sufMinN}
}

// CWindow returns a fresh cursor for the backward (C-terminal) scan.
func (t *Table) CWindow() Window {
	return Window{lo: t.MinC, hi: t.MaxC, preMax: t.preMaxC, sufMin: t.sufMinC}
}

// Advance moves the cursor past every peak that can no longer match mass and returns the
// half-open range [from, to) of peaks that still might. Within the range individual peaks
// must still be checked with Contains.
func (w *Window) Advance(mass float64) (from, to int) {
	n := len(w.lo)
	for w.start < n && w.preMax[w.start] < mass {
		w.start++
	}
	to = w.start
	for to < n && w.sufMin[to] <= mass {
		to++
	}
	return w.start, to
}

// Contains reports whether peak i's window contains mass.
func (w *Window) Contains(i int, mass float64) bool {
	return mass >= w.lo[i] && mass <= w.hi[i]
}
