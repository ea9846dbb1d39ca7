// Package msp provides streaming readers for MSP (NIST/Prosit) format spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// residueTol is the tolerance used to map a library modification onto a modified residue code.
const residueTol = 0.01

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	modDB       *core.ModDatabase
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{
		scanner: sc,
		modDB:   modDB,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// entry collects the header fields of one library entry until its peaks are read.
type entry struct {
	spec     *core.Spectrum
	sequence string
	mods     string
	mw       float64
}

// readSpectrum reads a single spectrum entry from the MSP file
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	e := entry{spec: &core.Spectrum{
		SourceFormat: "msp",
		Peaks:        []core.Peak{},
	}}

	var numPeaks int
	started := false
	inPeaks := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines between entries
		if line == "" {
			continue
		}

		if !inPeaks {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: expected header field, got %q", r.lineNum, line)
			}
			value = strings.TrimSpace(value)
			started = true

			switch strings.ToLower(key) {
			case "name":
				if err := r.parseName(&e, value); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			case "mw":
				if mw, err := strconv.ParseFloat(value, 64); err == nil {
					e.mw = mw
				}
			case "precursormz":
				if mz, err := strconv.ParseFloat(value, 64); err == nil {
					e.spec.PrecursorMZ = mz
				}
			case "comment":
				r.parseComment(&e, value)
			case "num peaks":
				n, err := strconv.Atoi(value)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: invalid num peaks %q", r.lineNum, value)
				}
				numPeaks = n
				inPeaks = true
				if numPeaks == 0 {
					return r.finish(&e)
				}
			}
			continue
		}

		peak, err := r.parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		e.spec.Peaks = append(e.spec.Peaks, peak)

		// Check if we've read all peaks
		if len(e.spec.Peaks) >= numPeaks {
			return r.finish(&e)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if started {
		if !inPeaks {
			return nil, fmt.Errorf("line %d: entry %q has no peak list", r.lineNum, e.spec.Title)
		}
		return nil, fmt.Errorf("line %d: entry %q ends after %d of %d peaks", r.lineNum, e.spec.Title, len(e.spec.Peaks), numPeaks)
	}

	return nil, io.EOF
}

// finish applies the library modifications and fills in derived fields.
func (r *Reader) finish(e *entry) (*core.Spectrum, error) {
	spec := e.spec
	if spec.PrecursorMZ == 0 && e.mw > 0 && spec.Charge > 0 {
		spec.PrecursorMZ = core.MZ(e.mw, spec.Charge)
	}
	if e.sequence != "" {
		seq, err := r.annotate(e.sequence, e.mods)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", spec.Title, err)
		}
		spec.Sequence = seq
	}
	spec.SortPeaks()
	return spec, nil
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE")
func (r *Reader) parseName(e *entry, name string) error {
	e.spec.Title = name

	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}
	// Prosit names carry trailing fields after the charge, e.g. "PEPTIDE/2_0"
	chargeStr, _, _ = strings.Cut(chargeStr, "_")

	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	e.sequence = seq
	e.spec.Charge = charge

	return nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(e *entry, comment string) {
	// Comment format: key=value key=value...
	// Example: Parent=414.71 Collision_energy=35 Mods=1/3,M,Oxidation iRT=61.01

	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil {
				e.spec.PrecursorMZ = mz
			}

		case "iRT", "RetentionTime", "RT":
			if rt, err := strconv.ParseFloat(value, 64); err == nil {
				e.spec.RetentionTime = &rt
			}

		case "Inst", "Instrument":
			e.spec.Instrument = value

		case "Mods":
			e.mods = value
		}
	}
}

// annotate applies NIST modifications ("count/pos,AA,Name/pos,AA,Name") to seq. Oxidised
// methionine and phosphorylated residues take their own residue codes; other shifts stay
// attached to the residue. Terminal modifications (negative positions) are ignored.
func (r *Reader) annotate(seq, mods string) (string, error) {
	pep, err := core.ParsePeptide(seq)
	if err != nil {
		return "", err
	}
	if mods == "" || mods == "0" {
		return pep.String(), nil
	}

	parts := strings.Split(mods, "/")
	count, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid mods count in %q: %w", mods, err)
	}
	if count != len(parts)-1 {
		return "", fmt.Errorf("mods %q declares %d modifications, found %d", mods, count, len(parts)-1)
	}

	for _, m := range parts[1:] {
		fields := strings.Split(m, ",")
		if len(fields) != 3 {
			return "", fmt.Errorf("invalid modification %q", m)
		}
		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return "", fmt.Errorf("invalid modification position %q: %w", m, err)
		}
		if pos < 0 {
			continue
		}
		if pos >= pep.Len() {
			return "", fmt.Errorf("modification %q is past the end of %s", m, seq)
		}
		if fields[1] != string(pep.Residues[pos].Code()) {
			return "", fmt.Errorf("modification %q does not match residue %c", m, pep.Residues[pos].Code())
		}
		mass, ok := r.modDB.GetMass(fields[2])
		if !ok {
			return "", fmt.Errorf("unknown modification %q", fields[2])
		}

		if res, ok := core.ModifiedForm(pep.Residues[pos], mass, residueTol); ok {
			pep = pep.WithResidue(pos, res)
		} else {
			pep = pep.WithShift(pos, mass)
		}
	}

	return pep.String(), nil
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
func (r *Reader) parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{
		Mass:      mz,
		Intensity: intensity,
	}

	// Parse annotation if present (third field, may be quoted)
	if len(fields) >= 3 {
		annotation := strings.Trim(fields[2], "\"")
		// Keep the ion name, drop alternatives and the ppm error
		if idx := strings.IndexAny(annotation, ",/"); idx > 0 {
			annotation = annotation[:idx]
		}
		peak.Annotation = annotation
	}

	return peak, nil
}
