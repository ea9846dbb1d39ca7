package core

import (
	"strconv"
	"strings"
)

// Peptide is a parsed candidate sequence.
type Peptide struct {
	Residues []Residue
	// Shifts holds a per-residue mass shift for modifications without a residue code.
	// Nil when the peptide carries none.
	Shifts []float64
}

// ParsePeptide converts a one-letter sequence into a Peptide. It is the only place raw
// sequence text enters the scorer.
func ParsePeptide(seq string) (Peptide, error) {
	if seq == "" {
		return Peptide{}, ErrEmptySequence
	}
	res := make([]Residue, len(seq))
	for i := 0; i < len(seq); i++ {
		r, ok := ParseResidue(seq[i])
		if !ok {
			return Peptide{}, &InvalidResidueError{Sequence: seq, Position: i, Code: seq[i]}
		}
		res[i] = r
	}
	return Peptide{Residues: res}, nil
}

// MustParsePeptide is like ParsePeptide but panics on error. Intended for tests and constants.
func MustParsePeptide(seq string) Peptide {
	p, err := ParsePeptide(seq)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of residues.
func (p Peptide) Len() int { return len(p.Residues) }

// ResidueMass returns the effective mass of residue i including any shift.
func (p Peptide) ResidueMass(i int) float64 {
	m := p.Residues[i].Mass()
	if p.Shifts != nil {
		m += p.Shifts[i]
	}
	return m
}

// ResidueSum returns the sum of effective residue masses.
func (p Peptide) ResidueSum() float64 {
	var m float64
	for i := range p.Residues {
		m += p.ResidueMass(i)
	}
	return m
}

// NeutralMass returns the neutral monoisotopic mass with the given terminal groups.
func (p Peptide) NeutralMass(nTermWt, cTermWt float64) float64 {
	return p.ResidueSum() + nTermWt + cTermWt
}

// BasicN reports whether the first residue carries a positive charge.
func (p Peptide) BasicN() bool {
	return len(p.Residues) > 0 && p.Residues[0].IsBasic()
}

// BasicC reports whether the last residue carries a positive charge.
func (p Peptide) BasicC() bool {
	return len(p.Residues) > 0 && p.Residues[len(p.Residues)-1].IsBasic()
}

// WithShift returns a copy of p with mass added to residue i.
func (p Peptide) WithShift(i int, mass float64) Peptide {
	shifts := make([]float64, len(p.Residues))
	copy(shifts, p.Shifts)
	shifts[i] += mass
	return Peptide{Residues: p.Residues, Shifts: shifts}
}

// WithResidue returns a copy of p with residue i replaced.
func (p Peptide) WithResidue(i int, r Residue) Peptide {
	res := make([]Residue, len(p.Residues))
	copy(res, p.Residues)
	res[i] = r
	return Peptide{Residues: res, Shifts: p.Shifts}
}

// Sequence returns the plain one-letter sequence.
func (p Peptide) Sequence() string {
	b := make([]byte, len(p.Residues))
	for i, r := range p.Residues {
		b[i] = r.Code()
	}
	return string(b)
}

// String returns the sequence with residue shifts in brackets, e.g. "PEPT[+42.0106]IDE".
func (p Peptide) String() string {
	if p.Shifts == nil {
		return p.Sequence()
	}
	var b strings.Builder
	for i, r := range p.Residues {
		b.WriteByte(r.Code())
		if s := p.Shifts[i]; s != 0 {
			b.WriteByte('[')
			if s > 0 {
				b.WriteByte('+')
			}
			b.WriteString(strconv.FormatFloat(s, 'f', 4, 64))
			b.WriteByte(']')
		}
	}
	return b.String()
}
