package scoretable

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
)

func newResolver(t *testing.T, flags string) *Resolver {
	t.Helper()
	cfg, err := iontype.ParseBiemann(flags)
	require.NoError(t, err)
	return NewResolver(DefaultProfiles(), cfg)
}

func TestResolve_PureFunction(t *testing.T) {
	r := newResolver(t, "a,b,y,bp2,yp2")
	for inst := Instrument(0); int(inst) < NumInstruments; inst++ {
		for b := ChargeBucket(0); b < NumBuckets; b++ {
			first := r.Resolve(inst, b, true, false)
			// A second resolver built from the same inputs must agree bit for bit
			second := newResolver(t, "a,b,y,bp2,yp2").Resolve(inst, b, true, false)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("%s/%s mismatch (-first +second):\n%s", inst, b, diff)
			}
			assert.Same(t, first, r.Resolve(inst, b, true, false))
		}
	}
}

func TestResolve_ArrayLengthsMatchConfig(t *testing.T) {
	r := newResolver(t, "a,b,c,y,z+1,w")
	tab := r.Resolve(ESIQCID, 1, false, true)
	assert.Len(t, tab.N, r.Config().NumN())
	assert.Len(t, tab.C, r.Config().NumC())
}

func TestResolve_GenericFromFlags(t *testing.T) {
	r := newResolver(t, "b,y")
	tab := r.Resolve(Generic, 1, false, false)
	assert.Equal(t, []float64{4}, tab.N)
	assert.Equal(t, []float64{4}, tab.C)
	assert.Equal(t, -1.0, tab.Unmatched)
}

func TestResolve_RulesByChargeAndBasicity(t *testing.T) {
	r := newResolver(t, "a,b,y")
	cfg := r.Config()
	b := cfg.Index(iontype.B)
	y := cfg.Index(iontype.Y)

	// ESI-Q-CID: tryptic (C-basic) peptides favour y ions
	tab := r.Resolve(ESIQCID, BucketFor(2), false, true)
	assert.Equal(t, 8.0, tab.C[y])
	assert.Equal(t, 4.0, tab.N[b])

	tab = r.Resolve(ESIQCID, BucketFor(2), true, false)
	assert.Equal(t, 6.0, tab.N[b])
	assert.Equal(t, 4.0, tab.C[y])

	tab = r.Resolve(ESIQCID, BucketFor(2), true, true)
	assert.Equal(t, 7.0, tab.C[y])

	// ESI-TRAP: later rules win for 4+ NC
	tab = r.Resolve(ESITrapCIDLowRes, BucketFor(6), true, true)
	assert.Equal(t, 4.0, tab.N[b])
}

func TestResolveFor_Peptide(t *testing.T) {
	r := newResolver(t, "b,y")
	pep := core.MustParsePeptide("PEPTIDEK")
	tab := r.ResolveFor(ESIQCID, 2, pep)
	assert.Equal(t, Key{Instrument: ESIQCID, Bucket: 1, BasicN: false, BasicC: true}, tab.Key)
}

func TestParseInstrument_FallsBackToGeneric(t *testing.T) {
	assert.Equal(t, ESIQCID, ParseInstrument("esi-q-cid"))
	assert.Equal(t, ESIETDHighRes, ParseInstrument("ESI-ETD-high-res"))
	assert.Equal(t, Generic, ParseInstrument("MALDI-TOF-TOF"))

	r := newResolver(t, "b,y")
	assert.Equal(t, r.Resolve(Generic, 0, false, false), r.Resolve(Instrument(99), 0, false, false))
}

func TestBucketFor(t *testing.T) {
	tests := map[int]string{0: "1", 1: "1", 2: "2", 3: "3", 4: "4", 5: "5+", 9: "5+"}
	for charge, want := range tests {
		assert.Equal(t, want, BucketFor(charge).String(), "charge %d", charge)
	}
}

func TestLoadProfiles_OverrideAndFallback(t *testing.T) {
	user := `
[profile."ESI-Q-CID"]
ions = ["b", "y"]
unmatched = -2.0
[profile."ESI-Q-CID".scores]
"b" = 9.0
"y" = 11.0
`
	p, err := LoadProfiles(strings.NewReader(user))
	require.NoError(t, err)

	// Only ESI-Q-CID is defined: every other class falls back to an empty Generic
	cfg, err := p.IonConfig(ESIQCID, "a")
	require.NoError(t, err)
	assert.Equal(t, "b,y", cfg.String())
	r := NewResolver(p, cfg)
	assert.Len(t, r.Fallbacks(), NumInstruments-1)

	merged := DefaultProfiles().Override(p)
	r = NewResolver(merged, cfg)
	assert.Empty(t, r.Fallbacks())
	tab := r.Resolve(ESIQCID, 0, false, false)
	assert.Equal(t, []float64{9}, tab.N)
	assert.Equal(t, []float64{11}, tab.C)
	assert.Equal(t, -2.0, tab.Unmatched)
}

func TestLoadProfiles_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown class":  "[profile.Orbitrap]\nunmatched = -1.0\n",
		"unknown ion":    "[profile.Generic.scores]\n\"q\" = 1.0\n",
		"bad bucket":     "[[profile.Generic.rule]]\ncharges = [\"7\"]\n",
		"bad basicity":   "[[profile.Generic.rule]]\nbasic = [\"X\"]\n",
		"unknown in ion": "[profile.Generic]\nions = [\"b\", \"q\"]\n",
		"syntax":         "[profile\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadProfiles(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestIonConfig_InstrumentProfile(t *testing.T) {
	p := DefaultProfiles()
	cfg, err := p.IonConfig(ESIETDHighRes, "b,y")
	require.NoError(t, err)
	assert.True(t, cfg.Enabled(iontype.C))
	assert.True(t, cfg.Enabled(iontype.ZPlus1))
	assert.False(t, cfg.Enabled(iontype.B))

	cfg, err = p.IonConfig(Generic, "b,y")
	require.NoError(t, err)
	assert.Equal(t, "b,y", cfg.String())
}

func TestProfile_OutOfRangeClass(t *testing.T) {
	p := DefaultProfiles()
	generic, ok := p.Profile(Generic)
	require.True(t, ok)

	for _, inst := range []Instrument{-1, Instrument(NumInstruments), Instrument(99)} {
		prof, ok := p.Profile(inst)
		assert.False(t, ok, "class %d", inst)
		assert.Same(t, generic, prof, "class %d", inst)
	}

	empty := &Profiles{}
	prof, ok := empty.Profile(Instrument(99))
	assert.False(t, ok)
	assert.Equal(t, -1.0, prof.Unmatched)
}
