package match

import (
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

// InternalScorer scores singly charged internal fragments: residue windows that contain
// neither terminus, as b-type (sum + proton) and a-type (b - CO) ions.
type InternalScorer struct {
	A, B   bool
	MinLen int
	MaxLen int // 0 means unlimited

	index peakIndex
}

// NewInternalScorer returns an internal ion scorer for one spectrum.
func NewInternalScorer(peaks []core.Peak, a, b bool, minLen, maxLen int) *InternalScorer {
	if minLen < 2 {
		minLen = 2
	}
	return &InternalScorer{A: a, B: b, MinLen: minLen, MaxLen: maxLen, index: newPeakIndex(peaks)}
}

func (s *InternalScorer) Name() string { return "internal" }

func (s *InternalScorer) Score(st *State, t *scoretable.Table, c Candidate) {
	if t.Internal <= 0 || !(s.A || s.B) {
		return
	}
	combine := func(p int) { st.Combine(p, t.Internal) }
	pep := c.Peptide
	n := pep.Len()
	for i := 1; i < n-1; i++ {
		sum := 0.0
		for j := i; j < n-1; j++ {
			sum += pep.ResidueMass(j)
			l := j - i + 1
			if s.MaxLen > 0 && l > s.MaxLen {
				break
			}
			if l < s.MinLen {
				continue
			}
			b := sum + core.ProtonMass
			if s.B {
				s.index.each(b, 1, combine)
			}
			if s.A {
				s.index.each(b-core.MassCO, 1, combine)
			}
		}
	}
}
