package core

import "strings"

// Residue is one member of the closed amino-acid alphabet understood by the scorer.
type Residue uint8

// Supported residues. The lower-case codes are modified forms with their own mass.
const (
	Ala Residue = iota
	Arg
	Asn
	Asp
	Cys
	Glu
	Gln
	Gly
	His
	Ile
	Leu
	Lys
	Met
	Phe
	Pro
	Ser
	Thr
	Trp
	Tyr
	Val
	Sec // U
	Pyl // O
	MetOx
	PhosphoSer
	PhosphoThr
	PhosphoTyr

	NumResidues = int(PhosphoTyr) + 1
)

// LossFlags marks the neutral-loss and charge conditions a fragment can satisfy.
type LossFlags uint8

const (
	FlagAmmonia LossFlags = 1 << iota
	FlagWater
	FlagPhospho
	FlagOxidizedMet
	FlagPositive
)

type residueInfo struct {
	code      byte
	comp      Composition
	base      Residue // unmodified form
	flags     LossFlags
	satellite []Composition // Cβ substituents, lost as (substituent - H) by d/w ions
}

var residues = [NumResidues]residueInfo{
	Ala:        {code: 'A', comp: Composition{C: 3, H: 5, N: 1, O: 1}},
	Arg:        {code: 'R', comp: Composition{C: 6, H: 12, N: 4, O: 1}, flags: FlagAmmonia | FlagPositive, satellite: []Composition{{C: 3, H: 8, N: 3}}},
	Asn:        {code: 'N', comp: Composition{C: 4, H: 6, N: 2, O: 2}, flags: FlagAmmonia, satellite: []Composition{{C: 1, H: 2, N: 1, O: 1}}},
	Asp:        {code: 'D', comp: Composition{C: 4, H: 5, N: 1, O: 3}, flags: FlagWater, satellite: []Composition{{C: 1, H: 1, O: 2}}},
	Cys:        {code: 'C', comp: Composition{C: 3, H: 5, N: 1, O: 1, S: 1}, satellite: []Composition{{H: 1, S: 1}}},
	Glu:        {code: 'E', comp: Composition{C: 5, H: 7, N: 1, O: 3}, flags: FlagWater, satellite: []Composition{{C: 2, H: 3, O: 2}}},
	Gln:        {code: 'Q', comp: Composition{C: 5, H: 8, N: 2, O: 2}, flags: FlagAmmonia, satellite: []Composition{{C: 2, H: 4, N: 1, O: 1}}},
	Gly:        {code: 'G', comp: Composition{C: 2, H: 3, N: 1, O: 1}},
	His:        {code: 'H', comp: Composition{C: 6, H: 7, N: 3, O: 1}, flags: FlagPositive},
	Ile:        {code: 'I', comp: Composition{C: 6, H: 11, N: 1, O: 1}, satellite: []Composition{{C: 2, H: 5}, {C: 1, H: 3}}},
	Leu:        {code: 'L', comp: Composition{C: 6, H: 11, N: 1, O: 1}, satellite: []Composition{{C: 3, H: 7}}},
	Lys:        {code: 'K', comp: Composition{C: 6, H: 12, N: 2, O: 1}, flags: FlagAmmonia | FlagPositive, satellite: []Composition{{C: 3, H: 8, N: 1}}},
	Met:        {code: 'M', comp: Composition{C: 5, H: 9, N: 1, O: 1, S: 1}, satellite: []Composition{{C: 2, H: 5, S: 1}}},
	Phe:        {code: 'F', comp: Composition{C: 9, H: 9, N: 1, O: 1}},
	Pro:        {code: 'P', comp: Composition{C: 5, H: 7, N: 1, O: 1}},
	Ser:        {code: 'S', comp: Composition{C: 3, H: 5, N: 1, O: 2}, flags: FlagWater, satellite: []Composition{{H: 1, O: 1}}},
	Thr:        {code: 'T', comp: Composition{C: 4, H: 7, N: 1, O: 2}, flags: FlagWater, satellite: []Composition{{H: 1, O: 1}, {C: 1, H: 3}}},
	Trp:        {code: 'W', comp: Composition{C: 11, H: 10, N: 2, O: 1}},
	Tyr:        {code: 'Y', comp: Composition{C: 9, H: 9, N: 1, O: 2}},
	Val:        {code: 'V', comp: Composition{C: 5, H: 9, N: 1, O: 1}, satellite: []Composition{{C: 1, H: 3}}},
	Sec:        {code: 'U', comp: Composition{C: 3, H: 5, N: 1, O: 1, Se: 1}},
	Pyl:        {code: 'O', comp: Composition{C: 12, H: 19, N: 3, O: 2}, flags: FlagAmmonia},
	MetOx:      {code: 'm', comp: Composition{C: 5, H: 9, N: 1, O: 2, S: 1}, base: Met, flags: FlagOxidizedMet},
	PhosphoSer: {code: 's', comp: Composition{C: 3, H: 6, N: 1, O: 5, P: 1}, base: Ser, flags: FlagWater | FlagPhospho},
	PhosphoThr: {code: 't', comp: Composition{C: 4, H: 8, N: 1, O: 5, P: 1}, base: Thr, flags: FlagWater | FlagPhospho},
	PhosphoTyr: {code: 'y', comp: Composition{C: 9, H: 10, N: 1, O: 5, P: 1}, base: Tyr, flags: FlagPhospho},
}

// Lookup tables derived from residues at init
var (
	residueMass      [NumResidues]float64
	residueImmonium  [NumResidues]float64
	residueSatellite [NumResidues][]float64
	codeToResidue    [256]int16

	// MaxSatelliteLoss is the largest d/w substituent loss of any residue.
	MaxSatelliteLoss float64
	// MaxImmoniumMass is the largest immonium ion m/z of any residue.
	MaxImmoniumMass float64
)

func init() {
	for i := range codeToResidue {
		codeToResidue[i] = -1
	}
	for i := range residues {
		r := &residues[i]
		if r.base == 0 && Residue(i) != Ala {
			r.base = Residue(i)
		}
		codeToResidue[r.code] = int16(i)
		residueMass[i] = r.comp.Mass()
		residueImmonium[i] = residueMass[i] - MassCO + ProtonMass
		if residueImmonium[i] > MaxImmoniumMass {
			MaxImmoniumMass = residueImmonium[i]
		}
		for _, sub := range r.satellite {
			loss := sub.Mass() - MassH
			residueSatellite[i] = append(residueSatellite[i], loss)
			if loss > MaxSatelliteLoss {
				MaxSatelliteLoss = loss
			}
		}
	}
}

// ParseResidue maps a one-letter code to a Residue.
func ParseResidue(code byte) (Residue, bool) {
	idx := codeToResidue[code]
	if idx < 0 {
		return 0, false
	}
	return Residue(idx), true
}

// Code returns the one-letter code of the residue.
func (r Residue) Code() byte { return residues[r].code }

// Mass returns the monoisotopic residue mass.
func (r Residue) Mass() float64 { return residueMass[r] }

// Flags returns the loss conditions the residue enables.
func (r Residue) Flags() LossFlags { return residues[r].flags }

// Base returns the unmodified form of a modified residue, or r itself.
func (r Residue) Base() Residue { return residues[r].base }

// ImmoniumMass returns the singly charged immonium ion m/z.
func (r Residue) ImmoniumMass() float64 { return residueImmonium[r] }

// SatelliteLosses returns the masses lost from a/z+1 ions to form d/w ions.
func (r Residue) SatelliteLosses() []float64 { return residueSatellite[r] }

// IsBasic reports whether the residue carries a positive charge.
func (r Residue) IsBasic() bool { return residues[r].flags&FlagPositive != 0 }

func (r Residue) String() string { return string(residues[r].code) }

// ModifiedForm returns the residue code carrying a modification of the given mass, if one exists.
// Oxidation of M and phosphorylation of S, T and Y have dedicated codes.
func ModifiedForm(r Residue, mass, tol float64) (Residue, bool) {
	for i := MetOx; i <= PhosphoTyr; i++ {
		if residues[i].base != r {
			continue
		}
		delta := residueMass[i] - residueMass[r]
		if mass >= delta-tol && mass <= delta+tol {
			return i, true
		}
	}
	return 0, false
}

// ResidueSet is a bitmask over residues.
type ResidueSet uint32

// ParseResidueSet builds a set from one-letter codes.
func ParseResidueSet(codes string) (ResidueSet, error) {
	var set ResidueSet
	for i := 0; i < len(codes); i++ {
		r, ok := ParseResidue(codes[i])
		if !ok {
			return 0, &InvalidResidueError{Sequence: codes, Position: i, Code: codes[i]}
		}
		set |= 1 << r
	}
	return set, nil
}

// Has reports whether r is in the set.
func (s ResidueSet) Has(r Residue) bool { return s&(1<<r) != 0 }

func (s ResidueSet) String() string {
	var b strings.Builder
	for i := 0; i < NumResidues; i++ {
		if s.Has(Residue(i)) {
			b.WriteByte(residues[i].code)
		}
	}
	return b.String()
}
