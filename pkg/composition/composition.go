// Package composition provides the residue composition pre-filters evaluated before ion
// matching: a hard required/excluded gate and the immonium-ion soft scorer.
package composition

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Mask is a bitmask over residues and composition labels.
type Mask uint32

// Label bits above the residue bits
const (
	NTermLabel Mask = 1 << (core.NumResidues + iota)
	CTermLabel
	LossLabel
)

// ResidueBit returns the mask bit of a single residue.
func ResidueBit(r core.Residue) Mask { return 1 << r }

// labelTol is the tolerance used to decide whether a terminal weight is modified.
const labelTol = 1e-6

// PeptideMask builds the composition mask of a candidate. Modified residues set both their
// own bit and the bit of their unmodified form.
func PeptideMask(pep core.Peptide, nTermWt, cTermWt float64) Mask {
	var m Mask
	for _, r := range pep.Residues {
		m |= ResidueBit(r) | ResidueBit(r.Base())
		if r != r.Base() {
			m |= LossLabel
		}
	}
	if math.Abs(nTermWt-core.DefaultNTermWt) > labelTol {
		m |= NTermLabel
	}
	if math.Abs(cTermWt-core.DefaultCTermWt) > labelTol {
		m |= CTermLabel
	}
	return m
}

// Policy selects how required bits combine.
type Policy int

const (
	// And requires every required bit
	And Policy = iota
	// Or requires at least one required bit
	Or
)

func (p Policy) String() string {
	if p == Or {
		return "OR"
	}
	return "AND"
}

// ParsePolicy parses "and" or "or", ignoring case.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND":
		return And, nil
	case "OR":
		return Or, nil
	}
	return And, fmt.Errorf("unknown composition policy '%s'", s)
}

// Gate is the hard composition filter. A nil Gate accepts every candidate.
type Gate struct {
	Required Mask
	Excluded Mask
	Policy   Policy
}

// Accepts reports whether a candidate mask passes the gate.
func (g *Gate) Accepts(m Mask) bool {
	if g == nil {
		return true
	}
	if m&g.Excluded != 0 {
		return false
	}
	if g.Required == 0 {
		return true
	}
	if g.Policy == Or {
		return m&g.Required != 0
	}
	return m&g.Required == g.Required
}

// ParseGate builds a gate from required and excluded lists. A list holds residue codes and
// the labels Nterm, Cterm and loss separated by commas, e.g. "CK,Nterm". It returns nil
// when both lists are empty.
func ParseGate(required, excluded string, policy Policy) (*Gate, error) {
	req, err := ParseMask(required)
	if err != nil {
		return nil, fmt.Errorf("required composition: %w", err)
	}
	exc, err := ParseMask(excluded)
	if err != nil {
		return nil, fmt.Errorf("excluded composition: %w", err)
	}
	if req == 0 && exc == 0 {
		return nil, nil
	}
	if req&exc != 0 {
		return nil, fmt.Errorf("composition %s is both required and excluded", FormatMask(req&exc))
	}
	return &Gate{Required: req, Excluded: exc, Policy: policy}, nil
}

// ParseMask parses a comma separated list of residue codes and labels.
func ParseMask(s string) (Mask, error) {
	var m Mask
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		switch strings.ToLower(tok) {
		case "":
			continue
		case "nterm", "n-term":
			m |= NTermLabel
			continue
		case "cterm", "c-term":
			m |= CTermLabel
			continue
		case "loss":
			m |= LossLabel
			continue
		}
		set, err := core.ParseResidueSet(tok)
		if err != nil {
			return 0, err
		}
		m |= Mask(set)
	}
	return m, nil
}

// FormatMask renders a mask in the syntax accepted by ParseMask.
func FormatMask(m Mask) string {
	var parts []string
	if res := core.ResidueSet(m & (1<<core.NumResidues - 1)); res != 0 {
		parts = append(parts, res.String())
	}
	if m&NTermLabel != 0 {
		parts = append(parts, "Nterm")
	}
	if m&CTermLabel != 0 {
		parts = append(parts, "Cterm")
	}
	if m&LossLabel != 0 {
		parts = append(parts, "loss")
	}
	return strings.Join(parts, ",")
}
