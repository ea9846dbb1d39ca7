// Package modsearch rescores candidates whose unmodified mass misses the precursor window
// against mass-shifted variants supplied by a modification provider.
package modsearch

import (
	"math"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/match"
)

// Applied is the outcome of applying a variant's modifications to the terminal weights.
type Applied struct {
	NTermWt float64
	CTermWt float64
	// MassOnly is set when the modification is only a mass with no defined chemistry, in
	// which case the precursor window is checked again.
	MassOnly bool
}

// Variant is one modified form of a candidate.
type Variant interface {
	Peptide() core.Peptide
	ApplyModifications(nTermWt, cTermWt, delta float64) Applied
	Description() string
}

// Provider enumerates the modified forms of a peptide whose mass shift lies in
// [minDelta, maxDelta].
type Provider interface {
	MutatedSequences(minDelta, maxDelta float64, pep core.Peptide, nTermAllowed, cTermAllowed bool, charge int) []Variant
}

// Scorer scores one candidate. It returns false when the candidate is rejected before matching.
type Scorer interface {
	Score(c match.Candidate) (match.Result, bool)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(c match.Candidate) (match.Result, bool)

func (f ScorerFunc) Score(c match.Candidate) (match.Result, bool) { return f(c) }

// Rescorer scores candidates directly or through their modified variants. It is owned by
// a single search session.
type Rescorer struct {
	provider Provider
	scorer   Scorer
	memo     memo
}

// NewRescorer creates a Rescorer. A nil provider disables modification search.
func NewRescorer(p Provider, s Scorer) *Rescorer {
	return &Rescorer{provider: p, scorer: s}
}

// MemoStats returns how often the memo answered and how often it had to score.
func (r *Rescorer) MemoStats() (hits, misses int) { return r.memo.hits, r.memo.misses }

// MatchWithModifications scores a candidate against a precursor. When the candidate's mass
// is within tolerance of the precursor it is scored as is; otherwise every variant the
// provider offers for the mass difference is scored. Rejected candidates and an empty variant
// set yield no matches.
func (r *Rescorer) MatchWithModifications(c match.Candidate, parent *core.ParentPeak) []core.TagMatch {
	native := c.NeutralMass()
	delta := parent.Mass - native
	tol := parent.Tolerance

	if math.Abs(delta) < tol {
		return r.MatchDirect(c, parent, "")
	}
	if r.provider == nil {
		return nil
	}

	nTermAllowed := math.Abs(c.NTermWt-core.DefaultNTermWt) <= labelTol
	cTermAllowed := math.Abs(c.CTermWt-core.DefaultCTermWt) <= labelTol
	variants := r.provider.MutatedSequences(delta-tol, delta+tol, c.Peptide, nTermAllowed, cTermAllowed, parent.Charge)

	var out []core.TagMatch
	for _, v := range variants {
		applied := v.ApplyModifications(c.NTermWt, c.CTermWt, delta)
		vc := match.Candidate{Peptide: v.Peptide(), NTermWt: applied.NTermWt, CTermWt: applied.CTermWt}
		if applied.MassOnly && !parent.Contains(vc.NeutralMass()) {
			continue
		}
		res, ok := r.score(vc)
		if !ok {
			continue
		}
		out = append(out, newTagMatch(parent, vc, res, v.Description()))
	}
	return out
}

const labelTol = 1e-6

// MatchDirect scores a candidate as is, whatever its mass, and labels the match with desc.
func (r *Rescorer) MatchDirect(c match.Candidate, parent *core.ParentPeak, desc string) []core.TagMatch {
	res, ok := r.score(c)
	if !ok {
		return nil
	}
	return []core.TagMatch{newTagMatch(parent, c, res, desc)}
}

func (r *Rescorer) score(c match.Candidate) (match.Result, bool) {
	key := r.memo.fingerprint(c)
	if res, ok, found := r.memo.get(key, c); found {
		return res, ok
	}
	res, ok := r.scorer.Score(c)
	r.memo.put(key, c, res, ok)
	return res, ok
}

func newTagMatch(parent *core.ParentPeak, c match.Candidate, res match.Result, desc string) core.TagMatch {
	return core.TagMatch{
		Parent:       parent,
		Unmatched:    res.Unmatched,
		Score:        res.Score,
		Sequence:     c.Peptide.String(),
		Modification: desc,
		NTermWt:      c.NTermWt,
		CTermWt:      c.CTermWt,
		MassError:    parent.Mass - c.NeutralMass(),
	}
}
