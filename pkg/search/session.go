package search

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/PepTag/pkg/composition"
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/match"
	"github.com/ChrisMcGann/PepTag/pkg/modsearch"
	"github.com/ChrisMcGann/PepTag/pkg/tagtable"
)

// Session scores candidates against one spectrum. It owns its tag table, match state and
// rescoring memo, so it must be used by one goroutine at a time.
type Session struct {
	engine   *Engine
	spectrum *core.Spectrum
	parent   core.ParentPeak
	tags     *tagtable.Table
	matcher  *match.Matcher
	rescorer *modsearch.Rescorer
	xlink    *match.CrosslinkScorer
}

// NewSession validates a spectrum and builds its tag table.
func (e *Engine) NewSession(sp *core.Spectrum) (*Session, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	s := &e.settings

	peaks := make([]core.Peak, len(sp.Peaks))
	copy(peaks, sp.Peaks)
	for i := range peaks {
		if peaks[i].Tolerance == 0 {
			peaks[i].Tolerance = s.FragmentTol.Abs(peaks[i].Mass)
		}
	}

	sess := &Session{
		engine:   e,
		spectrum: sp,
		parent:   core.NewParentPeak(sp.PrecursorMZ, sp.Charge, sp.PrecursorIntensity, s.Adduct, s.ParentTol),
	}
	sess.tags = tagtable.Build(peaks, e.ions, sess.parent.Charge)

	opts := match.Options{FirstMatchWins: s.FirstMatchWins, Gate: e.gate}
	if e.ions.Immonium {
		opts.Immonium = composition.NewImmonium(peaks)
	}
	if e.ions.InternalA || e.ions.InternalB {
		opts.Scorers = append(opts.Scorers, match.NewInternalScorer(peaks, e.ions.InternalA, e.ions.InternalB, s.InternalMinLen, s.InternalMaxLen))
	}
	if s.Crosslink {
		sess.xlink = match.NewCrosslinkScorer(peaks, &sess.parent, s.BridgeMass, s.CrosslinkMax)
		opts.Scorers = append(opts.Scorers, sess.xlink)
	}
	sess.matcher = match.New(sess.tags, e.ions, opts)
	sess.rescorer = modsearch.NewRescorer(e.provider, modsearch.ScorerFunc(sess.scoreCandidate))
	return sess, nil
}

// Parent returns the precursor of the session's spectrum.
func (s *Session) Parent() *core.ParentPeak { return &s.parent }

// Tags returns the session's tag table.
func (s *Session) Tags() *tagtable.Table { return s.tags }

func (s *Session) scoreCandidate(c match.Candidate) (match.Result, bool) {
	e := s.engine
	t := e.resolver.ResolveFor(e.settings.Instrument, s.parent.Charge, c.Peptide)
	res, ok := s.matcher.Match(t, c)
	if !ok {
		return res, false
	}
	if limit := e.settings.MaxImmoniumUnmatched; limit >= 0 && res.ImmoniumUnmatched > limit {
		return res, false
	}
	return res, true
}

// Score scores one peptide, through its modified variants when its mass misses the
// precursor window. With crosslinking on, a peptide light enough to leave room for the
// bridge and a partner is scored as is, as one half of a crosslinked pair.
func (s *Session) Score(pep core.Peptide) []core.TagMatch {
	c := match.NewCandidate(pep)
	var matches []core.TagMatch
	if partner := s.partnerMass(c); partner > 0 {
		matches = s.rescorer.MatchDirect(c, &s.parent, fmt.Sprintf("Crosslink(partner %.4f)", partner))
	} else {
		matches = s.rescorer.MatchWithModifications(c, &s.parent)
	}
	limit := s.engine.settings.MaxUnmatched
	if limit < 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Unmatched <= limit {
			kept = append(kept, m)
		}
	}
	return kept
}

// partnerMass is the mass left for a crosslinked partner, or 0 when c cannot be half of a
// pair.
func (s *Session) partnerMass(c match.Candidate) float64 {
	if s.xlink == nil {
		return 0
	}
	if partner := s.xlink.PartnerMass(c); partner > s.parent.Tolerance {
		return partner
	}
	return 0
}

// Search scores every candidate whose mass can reach the precursor and returns the ranked
// best matches.
func (s *Session) Search(cands *CandidateSet) []core.TagMatch {
	e := s.engine
	lo := s.parent.MinMass - e.shiftHi
	hi := s.parent.MaxMass - e.shiftLo
	if s.xlink != nil {
		lo = 0
		hi = max(hi, s.parent.MaxMass-e.settings.BridgeMass)
	}

	var out []core.TagMatch
	window := cands.Window(lo, hi)
	for _, c := range window {
		for _, m := range s.Score(c.Peptide) {
			m.Protein = c.Protein
			out = append(out, m)
		}
	}
	out = Rank(out, e.settings.TopN)

	hits, misses := s.rescorer.MemoStats()
	e.logger.Debug("searched spectrum",
		zap.String("spectrum", s.spectrum.Name()),
		zap.Int("candidates", len(window)),
		zap.Int("matches", len(out)),
		zap.Int("memo_hits", hits),
		zap.Int("memo_misses", misses))
	return out
}

// Rank orders matches by score, highest first, then by fewest unmatched peaks, and keeps the
// first topN. topN of 0 keeps all.
func Rank(matches []core.TagMatch, topN int) []core.TagMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Unmatched < matches[j].Unmatched
	})
	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}
