package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// ModSpec is a variable modification: a mass shift and where it may be placed.
type ModSpec struct {
	Name  string
	Mass  float64
	Sites ResidueSet // residues that may carry the shift
	NTerm bool       // peptide N-terminus
	CTerm bool       // peptide C-terminus
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift,aa)
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[modName] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Len returns the number of known modifications.
func (db *ModDatabase) Len() int {
	return len(db.mods)
}

// ParseModSpecs parses a variable modification list like "Oxidation@M;Phospho@STY;Acetyl@N-term"
// or "15.994915@M". Names are resolved through the database.
func (db *ModDatabase) ParseModSpecs(specStr string) ([]ModSpec, error) {
	if strings.TrimSpace(specStr) == "" {
		return nil, nil
	}

	var specs []ModSpec
	for _, part := range strings.Split(specStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		atParts := strings.Split(part, "@")
		if len(atParts) != 2 {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@sites' or 'mass@sites'", part)
		}

		nameOrMass := strings.TrimSpace(atParts[0])
		sites := strings.TrimSpace(atParts[1])

		// Try to parse as a number first (direct mass)
		mass, err := strconv.ParseFloat(nameOrMass, 64)
		if err != nil {
			var ok bool
			mass, ok = db.GetMass(nameOrMass)
			if !ok {
				return nil, fmt.Errorf("unknown modification '%s'", nameOrMass)
			}
		}

		spec := ModSpec{Name: nameOrMass, Mass: mass}
		if err := parseSites(&spec, sites); err != nil {
			return nil, fmt.Errorf("invalid sites '%s': %w", sites, err)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// parseSites accepts residue letters and the terminal keywords "N-term" and "C-term",
// separated by commas or run together (e.g. "STY", "K,N-term").
func parseSites(spec *ModSpec, sites string) error {
	for _, tok := range strings.Split(sites, ",") {
		tok = strings.TrimSpace(tok)
		switch strings.ToLower(tok) {
		case "":
			continue
		case "n-term", "nterm":
			spec.NTerm = true
			continue
		case "c-term", "cterm":
			spec.CTerm = true
			continue
		}
		set, err := ParseResidueSet(tok)
		if err != nil {
			return err
		}
		spec.Sites |= set
	}
	if spec.Sites == 0 && !spec.NTerm && !spec.CTerm {
		return fmt.Errorf("no sites given")
	}
	return nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Biotin", 226.077598)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Carboxymethyl", 58.005479)
	db.Add("Deamidated", 0.984016)
	db.Add("Met->Hse", -29.992806)
	db.Add("Met->Hsl", -48.003371)
	db.Add("NIPCAM", 99.068414)
	db.Add("Phospho", 79.966331)
	db.Add("Dehydrated", -18.010565)
	db.Add("Propionamide", 71.037114)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Cation:Na", 21.981943)
	db.Add("Methyl", 14.01565)
	db.Add("Oxidation", 15.994915)
	db.Add("Dimethyl", 28.0313)
	db.Add("Trimethyl", 42.04695)
	db.Add("Methylthio", 45.987721)
	db.Add("Sulfo", 79.956815)
	db.Add("Hex", 162.052824)
	db.Add("HexNAc", 203.079373)
	db.Add("GlyGly", 114.042927)
	db.Add("Formyl", 27.994915)
	db.Add("Propionyl", 56.026215)
	db.Add("TMT", 229.162932)
	db.Add("TMTPro", 304.207146)
	db.Add("TMT6plex", 229.162932)
	db.Add("TMT10plex", 229.162932)
	db.Add("TMT16plex", 304.207146)
	db.Add("iTRAQ4plex", 144.102063)
	db.Add("iTRAQ8plex", 304.205360)

	return db
}
