package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ChrisMcGann/PepTag/pkg/composition"
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/modsearch"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

// theoretical builds a spectrum holding every b and y ion of seq.
func theoretical(seq string, charge int) *core.Spectrum {
	pep := core.MustParsePeptide(seq)
	var peaks []core.Peak
	sum := 0.0
	for i := 0; i < pep.Len()-1; i++ {
		sum += pep.ResidueMass(i)
		peaks = append(peaks, core.Peak{Mass: sum + core.ProtonMass, Intensity: 100})
	}
	sum = 0
	for i := pep.Len() - 1; i > 0; i-- {
		sum += pep.ResidueMass(i)
		peaks = append(peaks, core.Peak{Mass: sum + core.MassH2O + core.ProtonMass, Intensity: 50})
	}
	mass := pep.NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)
	sp := &core.Spectrum{Title: seq, Charge: charge, PrecursorMZ: core.MZ(mass, charge), Peaks: peaks}
	sp.SortPeaks()
	return sp
}

func candidates(seqs ...string) *CandidateSet {
	cands := make([]Candidate, len(seqs))
	for i, s := range seqs {
		cands[i] = Candidate{Peptide: core.MustParsePeptide(s), Protein: fmt.Sprintf("P%d", i)}
	}
	return NewCandidateSet(cands)
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Biemann = "b,y"
	s.ParentTol = core.Tolerance{Value: 0.02}
	s.FragmentTol = core.Tolerance{Value: 0.3}
	s.Workers = 4
	return s
}

func newEngine(t *testing.T, s Settings) *Engine {
	t.Helper()
	e, err := NewEngine(s, scoretable.DefaultProfiles())
	require.NoError(t, err)
	return e
}

func TestSession_Search(t *testing.T) {
	e := newEngine(t, testSettings())
	sess, err := e.NewSession(theoretical("PEPTIDEK", 2))
	require.NoError(t, err)

	got := sess.Search(candidates("PEPTIDER", "KEDITPEP", "PEPTIDEK", "ELVISLIVESK"))
	require.Len(t, got, 2, "PEPTIDER and ELVISLIVESK miss the precursor window")
	assert.Equal(t, "PEPTIDEK", got[0].Sequence)
	assert.Equal(t, "P2", got[0].Protein)
	assert.Equal(t, 56.0, got[0].Score, "14 b/y ions at 4 each")
	assert.Equal(t, 0, got[0].Unmatched)
	assert.Equal(t, "KEDITPEP", got[1].Sequence)
	assert.Less(t, got[1].Score, got[0].Score)
}

func TestSession_ModificationSearch(t *testing.T) {
	specs, err := core.DefaultModDatabase().ParseModSpecs("Oxidation@M")
	require.NoError(t, err)
	e := newEngine(t, testSettings())
	e.SetProvider(modsearch.NewTableProvider(specs))

	sess, err := e.NewSession(theoretical("PEPmIDEK", 2))
	require.NoError(t, err)
	got := sess.Search(candidates("PEPMIDEK", "PEPTIDEK"))
	require.NotEmpty(t, got)
	assert.Equal(t, "PEPmIDEK", got[0].Sequence)
	assert.Equal(t, "Oxidation@M4", got[0].Modification)
	assert.Equal(t, 0, got[0].Unmatched)
}

func TestSession_Filters(t *testing.T) {
	s := testSettings()
	s.MaxUnmatched = 0
	e := newEngine(t, s)
	sp := theoretical("PEPTIDEK", 2)
	sess, err := e.NewSession(sp)
	require.NoError(t, err)
	got := sess.Search(candidates("PEPTIDEK", "KEDITPEP"))
	require.Len(t, got, 1)
	assert.Equal(t, "PEPTIDEK", got[0].Sequence)

	gate, err := composition.ParseGate("W", "", composition.And)
	require.NoError(t, err)
	e = newEngine(t, testSettings())
	e.SetGate(gate)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)
	assert.Empty(t, sess.Search(candidates("PEPTIDEK")))
}

// crosslinked builds the spectrum of light crosslinked to partner through the default bridge:
// the b and y ions of light plus the intact partner at charge 1 and 2.
func crosslinked(light, partner string) *core.Spectrum {
	sp := theoretical(light, 3)
	pm := core.MustParsePeptide(partner).NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)
	lm := core.MustParsePeptide(light).NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)
	sp.PrecursorMZ = core.MZ(lm+DSSBridgeMass+pm, 3)
	sp.Peaks = append(sp.Peaks,
		core.Peak{Mass: core.MZ(pm, 2), Intensity: 20},
		core.Peak{Mass: pm + core.ProtonMass, Intensity: 20},
	)
	sp.SortPeaks()
	return sp
}

func TestSession_Crosslink(t *testing.T) {
	sp := crosslinked("AGK", "PEPTIDEK")

	e := newEngine(t, testSettings())
	sess, err := e.NewSession(sp)
	require.NoError(t, err)
	assert.Empty(t, sess.Search(candidates("AGK")), "AGK misses the precursor without crosslinking")

	s := testSettings()
	s.Crosslink = true
	e = newEngine(t, s)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)

	got := sess.Search(candidates("AGK"))
	require.Len(t, got, 1)
	assert.Equal(t, "AGK", got[0].Sequence)
	assert.True(t, strings.HasPrefix(got[0].Modification, "Crosslink(partner "), got[0].Modification)
	assert.Equal(t, 0, got[0].Unmatched, "both partner peaks are explained")
	assert.Equal(t, 20.0, got[0].Score, "4 b/y ions at 4 and 2 partner ions at 2")

	// A candidate that fills the precursor alone is scored without a partner
	sess, err = e.NewSession(theoretical("PEPTIDEK", 2))
	require.NoError(t, err)
	got = sess.Search(candidates("PEPTIDEK"))
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Modification)
	assert.Equal(t, 56.0, got[0].Score)
}

func TestSession_InternalIons(t *testing.T) {
	pep := core.MustParsePeptide("PEPTIDEK")
	ti := pep.ResidueMass(3) + pep.ResidueMass(4) + core.ProtonMass
	pti := pep.ResidueMass(2) + ti
	sp := theoretical("PEPTIDEK", 2)
	sp.Peaks = append(sp.Peaks, core.Peak{Mass: ti, Intensity: 10}, core.Peak{Mass: pti, Intensity: 10})
	sp.SortPeaks()

	e := newEngine(t, testSettings())
	sess, err := e.NewSession(sp)
	require.NoError(t, err)
	got := sess.Search(candidates("PEPTIDEK"))
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Unmatched)
	assert.Equal(t, 54.0, got[0].Score)

	s := testSettings()
	s.Biemann = "b,y,internal-b"
	e = newEngine(t, s)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)
	got = sess.Search(candidates("PEPTIDEK"))
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Unmatched, "TI and PTI are internal b ions")
	assert.Equal(t, 58.0, got[0].Score)

	s.InternalMaxLen = 2
	e = newEngine(t, s)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)
	got = sess.Search(candidates("PEPTIDEK"))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Unmatched, "PTI is longer than the window")
}

func TestSession_MaxImmoniumUnmatched(t *testing.T) {
	sp := theoretical("PEPTIDEK", 2)
	sp.Peaks = append(sp.Peaks,
		core.Peak{Mass: core.Glu.ImmoniumMass(), Intensity: 30},
		core.Peak{Mass: core.Trp.ImmoniumMass(), Intensity: 30},
	)
	sp.SortPeaks()

	s := testSettings()
	s.Biemann = "b,y,i"
	e := newEngine(t, s)
	sess, err := e.NewSession(sp)
	require.NoError(t, err)
	got := sess.Search(candidates("PEPTIDEK"))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Unmatched, "PEPTIDEK has no tryptophan")

	s.MaxImmoniumUnmatched = 1
	e = newEngine(t, s)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)
	assert.Len(t, sess.Search(candidates("PEPTIDEK")), 1)

	s.MaxImmoniumUnmatched = 0
	e = newEngine(t, s)
	sess, err = e.NewSession(sp)
	require.NoError(t, err)
	assert.Empty(t, sess.Search(candidates("PEPTIDEK")))
}

func TestNewSession_InvalidSpectrum(t *testing.T) {
	e := newEngine(t, testSettings())
	sp := theoretical("PEPTIDEK", 2)
	sp.Charge = 0
	_, err := e.NewSession(sp)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewEngine_InvalidSettings(t *testing.T) {
	s := testSettings()
	s.TopN = -1
	_, err := NewEngine(s, scoretable.DefaultProfiles())
	assert.ErrorIs(t, err, ErrInvalidSettings)

	s = testSettings()
	s.BridgeMass = -1
	_, err = NewEngine(s, scoretable.DefaultProfiles())
	assert.ErrorIs(t, err, ErrInvalidSettings)

	s = testSettings()
	s.Biemann = "b,q"
	_, err = NewEngine(s, scoretable.DefaultProfiles())
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	matches := []core.TagMatch{
		{Sequence: "A", Score: 5, Unmatched: 3},
		{Sequence: "B", Score: 9, Unmatched: 4},
		{Sequence: "C", Score: 5, Unmatched: 1},
		{Sequence: "D", Score: 1},
	}
	got := Rank(matches, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Sequence)
	assert.Equal(t, "C", got[1].Sequence)
	assert.Equal(t, "A", got[2].Sequence)
}

func TestCandidateSet_Window(t *testing.T) {
	cs := candidates("PEPTIDEK", "AGK", "ELVISLIVESK")
	require.Equal(t, 3, cs.Len())
	agk := core.MustParsePeptide("AGK").NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)

	got := cs.Window(agk-0.01, agk+0.01)
	require.Len(t, got, 1)
	assert.Equal(t, "AGK", got[0].Peptide.Sequence())
	assert.Empty(t, cs.Window(0, 100))
	assert.Len(t, cs.Window(0, 1e6), 3)
}

func TestRun_OrderAndSkips(t *testing.T) {
	defer goleak.VerifyNone(t)

	seqs := []string{"PEPTIDEK", "ELVISLIVESK", "AGGGK", "SAMPLER", "LLEEKK"}
	var spectra []*core.Spectrum
	for i := 0; i < 40; i++ {
		spectra = append(spectra, theoretical(seqs[i%len(seqs)], 2))
	}
	spectra[7] = &core.Spectrum{Title: "broken", Charge: 0, PrecursorMZ: 500}

	e := newEngine(t, testSettings())
	var order []int
	err := e.Run(context.Background(), spectra, candidates(seqs...), func(r Result) error {
		order = append(order, r.Seq)
		require.NotEmpty(t, r.Matches)
		assert.Equal(t, r.Spectrum.Title, r.Matches[0].Sequence)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, order, 39)
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
	assert.NotContains(t, order, 7)
}

func TestRun_ConsumerErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var spectra []*core.Spectrum
	for i := 0; i < 30; i++ {
		spectra = append(spectra, theoretical("PEPTIDEK", 2))
	}
	e := newEngine(t, testSettings())
	stop := errors.New("stop")
	calls := 0
	err := e.Run(context.Background(), spectra, candidates("PEPTIDEK"), func(Result) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestRun_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, testSettings())
	err := e.Run(ctx, []*core.Spectrum{theoretical("PEPTIDEK", 2)}, candidates("PEPTIDEK"), func(Result) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	err = e.Run(context.Background(), nil, NewCandidateSet(nil), func(Result) error { return nil })
	assert.ErrorIs(t, err, ErrNoCandidates)
}
