// Package match implements the ion matcher: the forward (N-terminal) and backward
// (C-terminal) residue scans that compare running masses against a spectrum's tag table.
package match

import (
	"math"

	"github.com/ChrisMcGann/PepTag/pkg/composition"
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
	"github.com/ChrisMcGann/PepTag/pkg/tagtable"
)

// Candidate is a peptide with the terminal weights it is scored with.
type Candidate struct {
	Peptide core.Peptide
	NTermWt float64
	CTermWt float64
}

// NewCandidate returns a candidate with unmodified termini.
func NewCandidate(pep core.Peptide) Candidate {
	return Candidate{Peptide: pep, NTermWt: core.DefaultNTermWt, CTermWt: core.DefaultCTermWt}
}

// NeutralMass returns the neutral monoisotopic mass of the candidate.
func (c Candidate) NeutralMass() float64 {
	return c.Peptide.NeutralMass(c.NTermWt, c.CTermWt)
}

// Result is the outcome of scoring one candidate.
type Result struct {
	Score     float64
	Unmatched int
	// ImmoniumUnmatched counts immonium region peaks the composition does not explain
	ImmoniumUnmatched int
}

// AdditionalScorer contributes scores after the main scans. Implementations update the
// state only through State.Combine.
type AdditionalScorer interface {
	Name() string
	Score(st *State, t *scoretable.Table, c Candidate)
}

// Options configures a Matcher.
type Options struct {
	// FirstMatchWins records only the first qualifying ion type, in catalog order, for a
	// peak at a given cleavage instead of the best scoring one.
	FirstMatchWins bool
	// Gate rejects candidates before matching. Nil accepts all.
	Gate *composition.Gate
	// Immonium seeds matched peaks with the immonium score. Nil disables it.
	Immonium *composition.Immonium
	Scorers  []AdditionalScorer
}

// Matcher scores candidates against one spectrum. It owns its State and is not safe for
// concurrent use.
type Matcher struct {
	tags  *tagtable.Table
	ions  *iontype.Config
	opts  Options
	state State
}

// New creates a Matcher over a tag table built with the same ion type config.
func New(tags *tagtable.Table, ions *iontype.Config, opts Options) *Matcher {
	return &Matcher{tags: tags, ions: ions, opts: opts}
}

// Tags returns the tag table the matcher scans.
func (m *Matcher) Tags() *tagtable.Table { return m.tags }

// State exposes the scratch of the last match.
func (m *Matcher) State() *State { return &m.state }

// Match scores a candidate with the given score table. It returns false when the composition
// gate rejects the candidate, which is a non-match rather than a zero score.
func (m *Matcher) Match(t *scoretable.Table, c Candidate) (Result, bool) {
	var res Result
	mask := composition.PeptideMask(c.Peptide, c.NTermWt, c.CTermWt)
	if !m.opts.Gate.Accepts(mask) {
		return res, false
	}

	st := &m.state
	st.Reset(m.tags.NumPeaks())
	if m.opts.Immonium != nil && t.Immonium > 0 {
		res.ImmoniumUnmatched = m.opts.Immonium.Search(mask, st.matched, t.Immonium)
	}

	st.phase = ScanningForward
	m.scanForward(t, c)
	st.phase = ScanningBackward
	m.scanBackward(t, c)
	for _, s := range m.opts.Scorers {
		s.Score(st, t, c)
	}
	st.phase = Done

	res.Score, res.Unmatched = st.totals(t.Unmatched)
	return res, true
}

func (m *Matcher) scanForward(t *scoretable.Table, c Candidate) {
	pep := c.Peptide
	n := pep.Len()
	if m.tags.NumN() == 0 || n < 2 {
		return
	}
	w := m.tags.NWindow()
	running := c.NTermWt
	var flags core.LossFlags
	for i := 0; i < n-1; i++ {
		running += pep.ResidueMass(i)
		flags |= pep.Residues[i].Flags()
		if running < m.tags.MinNInData {
			continue
		}
		if running > m.tags.MaxNInData {
			break
		}
		from, to := w.Advance(running)
		for p := from; p < to; p++ {
			if !w.Contains(p, running) {
				continue
			}
			tags, tols := m.tags.NRow(p)
			m.matchPeak(p, running, flags, m.ions.N, tags, tols, t.N, pep.Residues[i])
		}
	}
}

func (m *Matcher) scanBackward(t *scoretable.Table, c Candidate) {
	pep := c.Peptide
	n := pep.Len()
	if m.tags.NumC() == 0 || n < 2 {
		return
	}
	w := m.tags.CWindow()
	running := c.CTermWt
	var flags core.LossFlags
	for i := n - 1; i > 0; i-- {
		running += pep.ResidueMass(i)
		flags |= pep.Residues[i].Flags()
		if running < m.tags.MinCInData {
			continue
		}
		if running > m.tags.MaxCInData {
			break
		}
		from, to := w.Advance(running)
		for p := from; p < to; p++ {
			if !w.Contains(p, running) {
				continue
			}
			tags, tols := m.tags.CRow(p)
			m.matchPeak(p, running, flags, m.ions.C, tags, tols, t.C, pep.Residues[i])
		}
	}
}

// matchPeak evaluates every enabled ion type of one terminus against peak p. cleaved is
// the residue at the cleavage site, whose substituent satellite ions lose.
func (m *Matcher) matchPeak(p int, running float64, flags core.LossFlags, defs []iontype.Def, tags, tols, scores []float64, cleaved core.Residue) {
	best := 0.0
	for k := range defs {
		d := &defs[k]
		if flags&d.Requires != d.Requires {
			continue
		}
		if !hit(d, tags[k], tols[k], running, cleaved) {
			continue
		}
		if m.opts.FirstMatchWins {
			best = scores[k]
			break
		}
		if scores[k] > best {
			best = scores[k]
		}
	}
	if best > 0 {
		m.state.Combine(p, best)
	}
}

func hit(d *iontype.Def, tag, tol, running float64, cleaved core.Residue) bool {
	if math.IsNaN(tag) {
		return false
	}
	if !d.Satellite {
		return math.Abs(tag-running) <= tol
	}
	for _, loss := range cleaved.SatelliteLosses() {
		if math.Abs(tag+loss-running) <= tol {
			return true
		}
	}
	return false
}
