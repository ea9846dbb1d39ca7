// Package scoretable resolves the per-ion-type score constants for an instrument class,
// precursor charge bucket and terminal basicity.
package scoretable

import (
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
)

// Instrument is an instrument class with its own score profile.
type Instrument int

const (
	Generic Instrument = iota
	ESITrapCIDLowRes
	ESIQCID
	ESIETDLowRes
	ESIETDHighRes

	NumInstruments = int(ESIETDHighRes) + 1
)

var instrumentNames = [NumInstruments]string{
	Generic:          "Generic",
	ESITrapCIDLowRes: "ESI-TRAP-CID-low-res",
	ESIQCID:          "ESI-Q-CID",
	ESIETDLowRes:     "ESI-ETD-low-res",
	ESIETDHighRes:    "ESI-ETD-high-res",
}

func (i Instrument) String() string {
	if i < 0 || int(i) >= NumInstruments {
		return instrumentNames[Generic]
	}
	return instrumentNames[i]
}

// LookupInstrument finds an instrument class by name, ignoring case.
func LookupInstrument(name string) (Instrument, bool) {
	for i, n := range instrumentNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Instrument(i), true
		}
	}
	return Generic, false
}

// ParseInstrument maps a name to an instrument class. Unknown names select Generic.
func ParseInstrument(name string) Instrument {
	inst, _ := LookupInstrument(name)
	return inst
}

// InstrumentNames returns the names of all instrument classes.
func InstrumentNames() []string {
	return instrumentNames[:]
}

// ChargeBucket groups precursor charges: 1, 2, 3, 4 and 5 or more.
type ChargeBucket int

const NumBuckets = 5

// BucketFor returns the bucket of a precursor charge.
func BucketFor(charge int) ChargeBucket {
	switch {
	case charge <= 1:
		return 0
	case charge >= 5:
		return 4
	default:
		return ChargeBucket(charge - 1)
	}
}

func (b ChargeBucket) String() string {
	if b >= 4 {
		return "5+"
	}
	return string(rune('1' + b))
}

func parseBucket(s string) (ChargeBucket, bool) {
	switch strings.TrimSpace(s) {
	case "1":
		return 0, true
	case "2":
		return 1, true
	case "3":
		return 2, true
	case "4":
		return 3, true
	case "5+", "5":
		return 4, true
	}
	return 0, false
}

// Key identifies a resolved score table.
type Key struct {
	Instrument Instrument
	Bucket     ChargeBucket
	BasicN     bool
	BasicC     bool
}

// Table holds the scores of every enabled ion type for one key. N and C are indexed like
// the ion type config they were resolved for.
type Table struct {
	Key       Key
	N         []float64
	C         []float64
	Unmatched float64
	Immonium  float64
	Internal  float64
	Crosslink float64
}

// Resolver holds every table for one ion type config, built once.
type Resolver struct {
	cfg       *iontype.Config
	tables    [NumInstruments][NumBuckets][2][2]*Table
	fallbacks []Instrument
}

// NewResolver resolves all keys against the profiles for the given ion type config.
func NewResolver(p *Profiles, cfg *iontype.Config) *Resolver {
	r := &Resolver{cfg: cfg}
	for inst := Instrument(0); int(inst) < NumInstruments; inst++ {
		prof, ok := p.Profile(inst)
		if !ok {
			r.fallbacks = append(r.fallbacks, inst)
		}
		generic := inst == Generic || !ok
		for b := ChargeBucket(0); b < NumBuckets; b++ {
			for n := 0; n < 2; n++ {
				for c := 0; c < 2; c++ {
					key := Key{Instrument: inst, Bucket: b, BasicN: n == 1, BasicC: c == 1}
					r.tables[inst][b][n][c] = build(prof, cfg, key, generic)
				}
			}
		}
	}
	return r
}

func build(prof *Profile, cfg *iontype.Config, key Key, generic bool) *Table {
	t := &Table{
		Key:       key,
		N:         make([]float64, cfg.NumN()),
		C:         make([]float64, cfg.NumC()),
		Unmatched: prof.Unmatched,
		Immonium:  prof.Immonium,
		Internal:  prof.Internal,
		Crosslink: prof.Crosslink,
	}
	fillScores(t.N, cfg.N, prof, key, generic)
	fillScores(t.C, cfg.C, prof, key, generic)
	return t
}

func fillScores(dst []float64, defs []iontype.Def, prof *Profile, key Key, generic bool) {
	for i, d := range defs {
		s, ok := prof.score(d.Name, key.Bucket, key.BasicN, key.BasicC)
		if !ok && generic {
			// An enabled Biemann flag always scores
			s = 1
		}
		dst[i] = s
	}
}

// Config returns the ion type config the tables are indexed by.
func (r *Resolver) Config() *iontype.Config { return r.cfg }

// Fallbacks lists the instrument classes without a profile of their own.
func (r *Resolver) Fallbacks() []Instrument { return r.fallbacks }

// Resolve returns the table for a key. Out of range instruments resolve to Generic.
func (r *Resolver) Resolve(inst Instrument, b ChargeBucket, basicN, basicC bool) *Table {
	if inst < 0 || int(inst) >= NumInstruments {
		inst = Generic
	}
	if b < 0 {
		b = 0
	} else if b >= NumBuckets {
		b = NumBuckets - 1
	}
	return r.tables[inst][b][boolIndex(basicN)][boolIndex(basicC)]
}

// ResolveFor returns the table for a candidate peptide searched against a precursor charge.
func (r *Resolver) ResolveFor(inst Instrument, charge int, pep core.Peptide) *Table {
	return r.Resolve(inst, BucketFor(charge), pep.BasicN(), pep.BasicC())
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
