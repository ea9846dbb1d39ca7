package search

import (
	"sort"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Candidate is a peptide to be searched and the protein it came from.
type Candidate struct {
	Peptide core.Peptide
	Protein string
	Mass    float64 // unmodified neutral mass
}

// CandidateSet holds candidates sorted by mass.
type CandidateSet struct {
	items []Candidate
}

// NewCandidateSet computes candidate masses and sorts them.
func NewCandidateSet(cands []Candidate) *CandidateSet {
	items := make([]Candidate, len(cands))
	copy(items, cands)
	for i := range items {
		items[i].Mass = items[i].Peptide.NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Mass < items[j].Mass })
	return &CandidateSet{items: items}
}

// Len returns the number of candidates.
func (cs *CandidateSet) Len() int { return len(cs.items) }

// Window returns the candidates with mass in [lo, hi].
func (cs *CandidateSet) Window(lo, hi float64) []Candidate {
	from := sort.Search(len(cs.items), func(i int) bool { return cs.items[i].Mass >= lo })
	to := sort.Search(len(cs.items), func(i int) bool { return cs.items[i].Mass > hi })
	if from >= to {
		return nil
	}
	return cs.items[from:to]
}
