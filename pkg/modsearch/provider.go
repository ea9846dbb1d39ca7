package modsearch

import (
	"fmt"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// UnknownMod allows a mass-only modification of any mass in [Min, Max] at a free terminus.
type UnknownMod struct {
	Enabled bool
	Min     float64
	Max     float64
}

// TableProvider offers single-site variable modifications from a list of ModSpecs.
// Oxidation of M and phosphorylation of S, T and Y become their modified residue codes;
// other residue modifications become residue shifts and terminal ones change the terminal
// weights.
type TableProvider struct {
	mods []core.ModSpec
	// ResidueTol is the mass tolerance used to map a modification onto a residue code.
	ResidueTol float64
	Unknown    UnknownMod
}

// NewTableProvider creates a provider for the given variable modifications.
func NewTableProvider(mods []core.ModSpec) *TableProvider {
	return &TableProvider{mods: mods, ResidueTol: 0.01}
}

// Range returns the lowest and highest mass shift any variant can carry.
func (p *TableProvider) Range() (lo, hi float64) {
	for _, m := range p.mods {
		if m.Mass < lo {
			lo = m.Mass
		}
		if m.Mass > hi {
			hi = m.Mass
		}
	}
	if p.Unknown.Enabled {
		if p.Unknown.Min < lo {
			lo = p.Unknown.Min
		}
		if p.Unknown.Max > hi {
			hi = p.Unknown.Max
		}
	}
	return lo, hi
}

func (p *TableProvider) MutatedSequences(minDelta, maxDelta float64, pep core.Peptide, nTermAllowed, cTermAllowed bool, charge int) []Variant {
	var out []Variant
	for _, m := range p.mods {
		if m.Mass < minDelta || m.Mass > maxDelta {
			continue
		}
		if m.NTerm && nTermAllowed {
			out = append(out, &variant{pep: pep, desc: m.Name + "@N-term", nShift: m.Mass})
		}
		if m.CTerm && cTermAllowed {
			out = append(out, &variant{pep: pep, desc: m.Name + "@C-term", cShift: m.Mass})
		}
		for i, r := range pep.Residues {
			if !m.Sites.Has(r) {
				continue
			}
			desc := fmt.Sprintf("%s@%c%d", m.Name, r.Code(), i+1)
			if mod, ok := core.ModifiedForm(r, m.Mass, p.ResidueTol); ok {
				out = append(out, &variant{pep: pep.WithResidue(i, mod), desc: desc})
			} else {
				out = append(out, &variant{pep: pep.WithShift(i, m.Mass), desc: desc})
			}
		}
	}

	if p.Unknown.Enabled && maxDelta >= p.Unknown.Min && minDelta <= p.Unknown.Max {
		if nTermAllowed {
			out = append(out, &variant{pep: pep, desc: "Unknown@N-term", unknown: true, nterm: true})
		}
		if cTermAllowed {
			out = append(out, &variant{pep: pep, desc: "Unknown@C-term", unknown: true})
		}
	}
	return out
}

type variant struct {
	pep            core.Peptide
	desc           string
	nShift, cShift float64
	unknown, nterm bool
}

func (v *variant) Peptide() core.Peptide { return v.pep }

func (v *variant) Description() string { return v.desc }

func (v *variant) ApplyModifications(nTermWt, cTermWt, delta float64) Applied {
	if v.unknown {
		if v.nterm {
			return Applied{NTermWt: nTermWt + delta, CTermWt: cTermWt, MassOnly: true}
		}
		return Applied{NTermWt: nTermWt, CTermWt: cTermWt + delta, MassOnly: true}
	}
	return Applied{NTermWt: nTermWt + v.nShift, CTermWt: cTermWt + v.cShift}
}
