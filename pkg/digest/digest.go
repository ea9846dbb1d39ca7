// Package digest turns protein sequences into candidate peptides by in-silico enzymatic cleavage.
package digest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// ErrUnknownEnzyme is returned by ParseEnzyme for names it does not recognise.
var ErrUnknownEnzyme = errors.New("unknown enzyme")

// Enzyme is a cleavage rule: cut after any residue in Sites, unless the next residue is a
// proline and Proline is set. An enzyme with no sites cuts everywhere.
type Enzyme struct {
	Name    string
	Sites   string
	Proline bool
}

// Supported enzymes.
var (
	Trypsin  = Enzyme{Name: "trypsin", Sites: "KR", Proline: true}
	LysC     = Enzyme{Name: "lys-c", Sites: "K"}
	ArgC     = Enzyme{Name: "arg-c", Sites: "R", Proline: true}
	GluC     = Enzyme{Name: "glu-c", Sites: "E", Proline: true}
	NoEnzyme = Enzyme{Name: "none"}
)

var enzymes = []Enzyme{Trypsin, LysC, ArgC, GluC, NoEnzyme}

// ParseEnzyme looks an enzyme up by name, ignoring case.
func ParseEnzyme(name string) (Enzyme, error) {
	for _, e := range enzymes {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	switch strings.ToLower(name) {
	case "lysc":
		return LysC, nil
	case "argc":
		return ArgC, nil
	case "gluc":
		return GluC, nil
	case "nonspecific", "no-enzyme":
		return NoEnzyme, nil
	}
	return Enzyme{}, fmt.Errorf("%w: %q", ErrUnknownEnzyme, name)
}

// Specific reports whether the enzyme has cleavage sites.
func (e Enzyme) Specific() bool { return e.Sites != "" }

func (e Enzyme) cleavesAfter(seq string, i int) bool {
	if strings.IndexByte(e.Sites, seq[i]) < 0 {
		return false
	}
	return !e.Proline || i+1 >= len(seq) || seq[i+1] != 'P'
}

// Config controls a digestion.
type Config struct {
	Enzyme          Enzyme
	MissedCleavages int
	MinLength       int
	MaxLength       int     // 0 = no limit for specific enzymes
	MinMass         float64 // Neutral mass limits, 0 = no limit
	MaxMass         float64
	ClipMethionine  bool // Also emit peptides of proteins with the initiator Met removed
}

// DefaultConfig returns tryptic digestion with two missed cleavages.
func DefaultConfig() Config {
	return Config{
		Enzyme:          Trypsin,
		MissedCleavages: 2,
		MinLength:       6,
		MaxLength:       40,
		ClipMethionine:  true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MissedCleavages < 0 {
		return fmt.Errorf("missed cleavages must be non-negative")
	}
	if c.MinLength < 1 {
		return fmt.Errorf("minimum length must be positive")
	}
	if c.MaxLength != 0 && c.MaxLength < c.MinLength {
		return fmt.Errorf("maximum length %d is below minimum length %d", c.MaxLength, c.MinLength)
	}
	if !c.Enzyme.Specific() && c.MaxLength == 0 {
		return fmt.Errorf("non-specific digestion needs a maximum length")
	}
	if c.MaxMass != 0 && c.MaxMass < c.MinMass {
		return fmt.Errorf("maximum mass %g is below minimum mass %g", c.MaxMass, c.MinMass)
	}
	return nil
}

// Peptide is one digestion product.
type Peptide struct {
	Peptide core.Peptide
	Start   int // 0-based offset in the protein
	Missed  int // Missed cleavages inside the peptide
	Mass    float64
}

// Digest cleaves a protein sequence. Products containing residues outside the scoring
// alphabet are dropped. Each distinct sequence is returned once, at its first position.
func (c Config) Digest(protein string) []Peptide {
	if protein == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Peptide

	emit := func(start, end, missed int) {
		n := end - start
		if n < c.MinLength || (c.MaxLength > 0 && n > c.MaxLength) {
			return
		}
		seq := protein[start:end]
		if _, dup := seen[seq]; dup {
			return
		}
		pep, err := core.ParsePeptide(seq)
		if err != nil {
			return
		}
		mass := pep.NeutralMass(core.DefaultNTermWt, core.DefaultCTermWt)
		if (c.MinMass > 0 && mass < c.MinMass) || (c.MaxMass > 0 && mass > c.MaxMass) {
			return
		}
		seen[seq] = struct{}{}
		out = append(out, Peptide{Peptide: pep, Start: start, Missed: missed, Mass: mass})
	}

	if !c.Enzyme.Specific() {
		for start := 0; start < len(protein); start++ {
			for end := start + c.MinLength; end <= len(protein) && end-start <= c.MaxLength; end++ {
				emit(start, end, 0)
			}
		}
		return out
	}

	bounds := c.boundaries(protein)
	for a := 0; a < len(bounds)-1; a++ {
		for k := 1; k <= c.MissedCleavages+1 && a+k < len(bounds); k++ {
			emit(bounds[a], bounds[a+k], k-1)
		}
	}
	if c.ClipMethionine && protein[0] == 'M' && len(bounds) > 1 {
		for k := 1; k <= c.MissedCleavages+1 && k < len(bounds); k++ {
			emit(1, bounds[k], k-1)
		}
	}
	return out
}

// boundaries returns the peptide start offsets followed by the protein length.
func (c Config) boundaries(protein string) []int {
	bounds := []int{0}
	for i := 0; i < len(protein)-1; i++ {
		if c.Enzyme.cleavesAfter(protein, i) {
			bounds = append(bounds, i+1)
		}
	}
	return append(bounds, len(protein))
}
