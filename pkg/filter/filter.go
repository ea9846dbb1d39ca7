// Package filter provides peak filtering and preprocessing applied to spectra before searching
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN             int            // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff  float64        // Keep only peaks above this % of base peak (0 = no cutoff)
	MinMZ            float64        // Drop peaks below this m/z (0 = no limit)
	MaxMZ            float64        // Drop peaks above this m/z (0 = no limit)
	RemovePrecursor  bool           // Drop peaks near the precursor m/z
	IonTypes         []string       // Keep only peaks annotated with these ion types (nil = all)
	AnnotatedCharges bool           // Take fragment charges from library annotations
	FragmentTol      core.Tolerance // Assigned to every peak when Value > 0
}

// Apply applies all configured filters to a spectrum
func (c *Config) Apply(spec *core.Spectrum) error {
	RemoveZeroIntensityPeaks(spec)

	// Filter by ion type first
	if len(c.IonTypes) > 0 {
		c.filterByIonType(spec)
	}

	if c.MinMZ > 0 || c.MaxMZ > 0 {
		c.filterByRange(spec)
	}

	if c.RemovePrecursor {
		c.removePrecursor(spec)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	if c.AnnotatedCharges {
		if err := c.assignCharges(spec); err != nil {
			return err
		}
	}

	if c.FragmentTol.Value > 0 {
		for i := range spec.Peaks {
			spec.Peaks[i].Tolerance = c.FragmentTol.Abs(spec.Peaks[i].Mass)
		}
	}

	// Ensure peaks are sorted after all filtering
	spec.SortPeaks()

	return nil
}

// filterByIonType keeps only peaks matching specified ion types
func (c *Config) filterByIonType(spec *core.Spectrum) {
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if matchesIonType(peak.Annotation, c.IonTypes) {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}

// matchesIonType checks if an annotation matches any of the allowed ion types
func matchesIonType(annotation string, ionTypes []string) bool {
	if annotation == "" {
		return false
	}

	for _, ionType := range ionTypes {
		// Match ion type at start of annotation (e.g., "y3", "b2^2")
		if strings.HasPrefix(annotation, ionType) {
			return true
		}
	}
	return false
}

func (c *Config) filterByRange(spec *core.Spectrum) {
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if c.MinMZ > 0 && peak.Mass < c.MinMZ {
			continue
		}
		if c.MaxMZ > 0 && peak.Mass > c.MaxMZ {
			continue
		}
		filtered = append(filtered, peak)
	}
	spec.Peaks = filtered
}

// removePrecursor drops the unfragmented precursor and its neutral water and ammonia losses.
func (c *Config) removePrecursor(spec *core.Spectrum) {
	if spec.PrecursorMZ <= 0 {
		return
	}
	z := spec.Charge
	if z <= 0 {
		z = 1
	}
	targets := []float64{
		spec.PrecursorMZ,
		spec.PrecursorMZ - core.MassH2O/float64(z),
		spec.PrecursorMZ - core.MassNH3/float64(z),
	}
	tol := c.FragmentTol.Abs(spec.PrecursorMZ)
	if tol == 0 {
		tol = 0.5
	}

	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		near := false
		for _, t := range targets {
			if peak.Mass >= t-tol && peak.Mass <= t+tol {
				near = true
				break
			}
		}
		if !near {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec *core.Spectrum) {
	if len(spec.Peaks) == 0 {
		return
	}

	// Find maximum intensity
	maxIntensity := 0.0
	for _, peak := range spec.Peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	// Calculate threshold
	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	// Filter peaks
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	spec.Peaks = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(spec *core.Spectrum) {
	if len(spec.Peaks) <= c.TopN {
		return
	}

	// Create a copy and sort by intensity descending
	peaks := make([]core.Peak, len(spec.Peaks))
	copy(peaks, spec.Peaks)

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	// Keep only top N
	spec.Peaks = peaks[:c.TopN]
}

// assignCharges sets each peak's charge from its annotation, e.g. "b2^2" is doubly charged.
func (c *Config) assignCharges(spec *core.Spectrum) error {
	for i := range spec.Peaks {
		peak := &spec.Peaks[i]
		if peak.Annotation == "" || peak.Annotation == "?" {
			continue
		}
		info, err := parseIonAnnotation(peak.Annotation)
		if err != nil {
			// Skip peaks with unparseable annotations
			continue
		}
		peak.Charge = info.charge
	}
	return nil
}

// ionAnnotationInfo stores parsed ion annotation
type ionAnnotationInfo struct {
	ionType  string
	position int
	charge   int
}

var annotationRe = regexp.MustCompile(`^([a-zA-Z])(\d+)(?:-[A-Za-z0-9]+)?(?:\^(\d+))?`)

// parseIonAnnotation parses annotations like "y3", "b2^2", "y10-H2O^3"
func parseIonAnnotation(annotation string) (*ionAnnotationInfo, error) {
	matches := annotationRe.FindStringSubmatch(annotation)
	if matches == nil {
		return nil, fmt.Errorf("invalid ion annotation format: %s", annotation)
	}

	info := &ionAnnotationInfo{
		ionType: matches[1],
		charge:  1, // default charge
	}

	pos, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid position in annotation %s: %w", annotation, err)
	}
	info.position = pos

	// Parse charge if present
	if matches[3] != "" {
		z, err := strconv.Atoi(matches[3])
		if err != nil {
			return nil, fmt.Errorf("invalid charge in annotation %s: %w", annotation, err)
		}
		info.charge = z
	}

	return info, nil
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	var filtered []core.Peak
	for _, peak := range spec.Peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	spec.Peaks = filtered
}
