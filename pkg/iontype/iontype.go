// Package iontype provides the catalog of fragment ion families and the enabled ion
// type configuration used to index tag and score tables.
package iontype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Terminus says which end of the peptide a fragment retains.
type Terminus int

const (
	NTerminal Terminus = iota
	CTerminal
)

// Kind identifies one ion type in the catalog. Catalog order is the historical
// matching priority.
type Kind int

const (
	A Kind = iota
	ANH3
	AH2O
	B
	BNH3
	BH2O
	BPlusH2O
	CMinus1
	C
	CPlus1
	CPlus2
	D
	BH3PO4
	BSOCH4
	BP2
	BP3
	CP2

	X
	Y
	YNH3
	YH2O
	BigY
	Z
	ZPlus1
	ZPlus2
	ZPlus3
	W
	YH3PO4
	YSOCH4
	YP2
	YP3
	ZPlus1P2

	NumKinds = int(ZPlus1P2) + 1
)

// Def describes an ion family.
type Def struct {
	Kind     Kind
	Name     string
	Terminus Terminus
	// Offset converts a singly protonated fragment mass into the running-mass space of the
	// scan: running = MH+ + Offset.
	Offset    float64
	Charge    int
	Requires  core.LossFlags
	Satellite bool // d/w: subtract a substituent loss of the cleavage residue
}

var catalog [NumKinds]Def

func init() {
	e := core.ElectronMass
	h := core.MassH
	p := core.ProtonMass
	nh3 := core.MassNH3
	h2o := core.MassH2O
	co := core.MassCO
	h3po4 := core.MassH3PO4
	ch4so := core.MassCH4SO
	yOff := -h - p
	zOff := yOff + nh3

	defs := []Def{
		{A, "a", NTerminal, e + co, 1, 0, false},
		{ANH3, "a-NH3", NTerminal, e + co + nh3, 1, core.FlagAmmonia, false},
		{AH2O, "a-H2O", NTerminal, e + co + h2o, 1, core.FlagWater, false},
		{B, "b", NTerminal, e, 1, 0, false},
		{BNH3, "b-NH3", NTerminal, e + nh3, 1, core.FlagAmmonia, false},
		{BH2O, "b-H2O", NTerminal, e + h2o, 1, core.FlagWater, false},
		{BPlusH2O, "b+H2O", NTerminal, e - h2o, 1, 0, false},
		{CMinus1, "c-1", NTerminal, e - nh3 + h, 1, 0, false},
		{C, "c", NTerminal, e - nh3, 1, 0, false},
		{CPlus1, "c+1", NTerminal, e - nh3 - h, 1, 0, false},
		{CPlus2, "c+2", NTerminal, e - nh3 - 2*h, 1, 0, false},
		{D, "d", NTerminal, e + co, 1, 0, true},
		{BH3PO4, "b-H3PO4", NTerminal, e + h3po4, 1, core.FlagPhospho, false},
		{BSOCH4, "b-SOCH4", NTerminal, e + ch4so, 1, core.FlagOxidizedMet, false},
		{BP2, "bp2", NTerminal, e, 2, core.FlagPositive, false},
		{BP3, "bp3", NTerminal, e, 3, core.FlagPositive, false},
		{CP2, "cp2", NTerminal, e - nh3, 2, core.FlagPositive, false},

		{X, "x", CTerminal, yOff - co + 2*h, 1, 0, false},
		{Y, "y", CTerminal, yOff, 1, 0, false},
		{YNH3, "y-NH3", CTerminal, yOff + nh3, 1, core.FlagAmmonia, false},
		{YH2O, "y-H2O", CTerminal, yOff + h2o, 1, core.FlagWater, false},
		{BigY, "Y", CTerminal, yOff + 2*h, 1, 0, false},
		{Z, "z", CTerminal, zOff, 1, 0, false},
		{ZPlus1, "z+1", CTerminal, zOff - h, 1, 0, false},
		{ZPlus2, "z+2", CTerminal, zOff - 2*h, 1, 0, false},
		{ZPlus3, "z+3", CTerminal, zOff - 3*h, 1, 0, false},
		{W, "w", CTerminal, zOff - h, 1, 0, true},
		{YH3PO4, "y-H3PO4", CTerminal, yOff + h3po4, 1, core.FlagPhospho, false},
		{YSOCH4, "y-SOCH4", CTerminal, yOff + ch4so, 1, core.FlagOxidizedMet, false},
		{YP2, "yp2", CTerminal, yOff, 2, core.FlagPositive, false},
		{YP3, "yp3", CTerminal, yOff, 3, core.FlagPositive, false},
		{ZPlus1P2, "z+1p2", CTerminal, zOff - h, 2, core.FlagPositive, false},
	}
	for _, d := range defs {
		catalog[d.Kind] = d
	}
}

// Lookup returns the definition of an ion kind.
func Lookup(k Kind) Def { return catalog[k] }

// ByName finds an ion kind by its name (case sensitive: "Y" and "y" differ).
func ByName(name string) (Kind, bool) {
	for i := range catalog {
		if catalog[i].Name == name {
			return catalog[i].Kind, true
		}
	}
	return 0, false
}

// Names returns every catalog name in priority order.
func Names() []string {
	names := make([]string, NumKinds)
	for i := range catalog {
		names[i] = catalog[i].Name
	}
	return names
}

func (k Kind) String() string { return catalog[k].Name }

// Extension ion classes that are not terminal fragments
const (
	Immonium  = "i"
	InternalA = "internal-a"
	InternalB = "internal-b"
)

// Config is the immutable set of enabled ion types. Indices are dense per terminus and
// follow catalog order.
type Config struct {
	N []Def
	C []Def

	Immonium  bool
	InternalA bool
	InternalB bool

	nIndex [NumKinds]int
	cIndex [NumKinds]int
}

// NewConfig builds a Config from a list of ion kinds. Duplicates are ignored.
func NewConfig(kinds []Kind, immonium, internalA, internalB bool) *Config {
	enabled := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		enabled[k] = true
	}
	sorted := make([]Kind, 0, len(enabled))
	for k := range enabled {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	cfg := &Config{Immonium: immonium, InternalA: internalA, InternalB: internalB}
	for i := range cfg.nIndex {
		cfg.nIndex[i] = -1
		cfg.cIndex[i] = -1
	}
	for _, k := range sorted {
		d := catalog[k]
		if d.Terminus == NTerminal {
			cfg.nIndex[k] = len(cfg.N)
			cfg.N = append(cfg.N, d)
		} else {
			cfg.cIndex[k] = len(cfg.C)
			cfg.C = append(cfg.C, d)
		}
	}
	return cfg
}

// ParseBiemann builds a Config from a comma separated list of ion names, e.g.
// "a,b,y,b-H2O,i,internal-b".
func ParseBiemann(flags string) (*Config, error) {
	var kinds []Kind
	var imm, intA, intB bool
	for _, tok := range strings.Split(flags, ",") {
		tok = strings.TrimSpace(tok)
		switch tok {
		case "":
			continue
		case Immonium:
			imm = true
			continue
		case InternalA:
			intA = true
			continue
		case InternalB:
			intB = true
			continue
		}
		k, ok := ByName(tok)
		if !ok {
			return nil, fmt.Errorf("unknown ion type '%s'", tok)
		}
		kinds = append(kinds, k)
	}
	return NewConfig(kinds, imm, intA, intB), nil
}

// NumN returns the number of enabled N-terminal ion types.
func (c *Config) NumN() int { return len(c.N) }

// NumC returns the number of enabled C-terminal ion types.
func (c *Config) NumC() int { return len(c.C) }

// Index returns the dense index of an enabled kind within its terminus, or -1.
func (c *Config) Index(k Kind) int {
	if catalog[k].Terminus == NTerminal {
		return c.nIndex[k]
	}
	return c.cIndex[k]
}

// Enabled reports whether a kind is part of the configuration.
func (c *Config) Enabled(k Kind) bool { return c.Index(k) >= 0 }

// HasSatellite reports whether d or w ions are enabled for the given terminus.
func (c *Config) HasSatellite(t Terminus) bool {
	defs := c.N
	if t == CTerminal {
		defs = c.C
	}
	for _, d := range defs {
		if d.Satellite {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	var names []string
	for _, d := range c.N {
		names = append(names, d.Name)
	}
	for _, d := range c.C {
		names = append(names, d.Name)
	}
	if c.Immonium {
		names = append(names, Immonium)
	}
	if c.InternalA {
		names = append(names, InternalA)
	}
	if c.InternalB {
		names = append(names, InternalB)
	}
	return strings.Join(names, ",")
}
