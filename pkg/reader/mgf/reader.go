// Package mgf provides a streaming reader for Mascot Generic Format peak lists
package mgf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Reader provides streaming access to MGF files
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MGF reader
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{scanner: sc}
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

// readSpectrum reads one BEGIN IONS ... END IONS block
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || line[0] == '#' || line[0] == ';' || line[0] == '!' {
			continue
		}

		if spec == nil {
			// Global parameters before the first block are ignored
			if strings.EqualFold(line, "BEGIN IONS") {
				spec = &core.Spectrum{SourceFormat: "mgf", Peaks: []core.Peak{}}
			}
			continue
		}

		if strings.EqualFold(line, "END IONS") {
			spec.SortPeaks()
			return spec, nil
		}
		if strings.EqualFold(line, "BEGIN IONS") {
			return nil, fmt.Errorf("line %d: BEGIN IONS inside an open block", r.lineNum)
		}

		if key, value, ok := strings.Cut(line, "="); ok && !startsNumeric(line) {
			if err := r.parseParam(spec, strings.ToUpper(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}

		peak, err := r.parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		spec.Peaks = append(spec.Peaks, peak)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if spec != nil {
		return nil, fmt.Errorf("line %d: missing END IONS for %q", r.lineNum, spec.Title)
	}
	return nil, io.EOF
}

func startsNumeric(line string) bool {
	c := line[0]
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

// parseParam handles one KEY=value line inside a block
func (r *Reader) parseParam(spec *core.Spectrum, key, value string) error {
	switch key {
	case "TITLE":
		spec.Title = value

	case "PEPMASS":
		// Format: "mz [intensity]"
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("invalid PEPMASS %q: %w", value, err)
		}
		spec.PrecursorMZ = mz
		if len(fields) > 1 {
			if in, err := strconv.ParseFloat(fields[1], 64); err == nil {
				spec.PrecursorIntensity = in
			}
		}

	case "CHARGE":
		z, err := parseCharge(value)
		if err != nil {
			return err
		}
		spec.Charge = z

	case "RTINSECONDS":
		// May be a range "start-end", take the first value
		first, _, _ := strings.Cut(value, "-")
		if rt, err := strconv.ParseFloat(first, 64); err == nil {
			spec.RetentionTime = &rt
		}

	case "INSTRUMENT":
		spec.Instrument = value

	case "SEQ":
		spec.Sequence = value
	}
	return nil
}

// parseCharge parses charges like "2+", "3", "+2" or "2+ and 3+", keeping the first.
func parseCharge(value string) (int, error) {
	first, _, _ := strings.Cut(value, " ")
	first, _, _ = strings.Cut(first, ",")
	s := strings.Trim(first, "+")
	if strings.HasSuffix(s, "-") || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative charge %q is not supported", value)
	}
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CHARGE %q: %w", value, err)
	}
	return z, nil
}

// parsePeak parses a single peak line (format: "mz intensity [charge]")
func (r *Reader) parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return core.Peak{}, fmt.Errorf("invalid peak format")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	// Intensity is optional in MGF
	intensity := 1.0
	if len(fields) >= 2 {
		intensity, err = strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
		}
	}

	peak := core.Peak{Mass: mz, Intensity: intensity}
	if len(fields) >= 3 {
		z, err := parseCharge(fields[2])
		if err != nil {
			return core.Peak{}, err
		}
		peak.Charge = z
	}
	return peak, nil
}
