package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Spectrum represents a single MS/MS spectrum to be searched.
type Spectrum struct {
	// Required fields
	Title       string  // Spectrum identifier
	Charge      int     // Precursor charge state
	PrecursorMZ float64 // Precursor m/z
	Peaks       []Peak  // Fragment peaks

	// Optional metadata
	PrecursorIntensity float64
	RetentionTime      *float64
	Instrument         string
	Sequence           string // Library annotation, if the source carries one

	// Internal tracking
	SourceFile   string
	SourceFormat string // msp, mgf
}

// Peak represents a single fragment peak.
type Peak struct {
	Mass       float64 // Observed m/z
	Intensity  float64
	Tolerance  float64 // Absolute tolerance in Da at the observed charge
	Charge     int     // Fragment charge if known; 0 or 1 means singly charged
	Annotation string  // Ion annotation from libraries (e.g., "y3", "b2^2")
}

// ParentPeak holds the precursor mass window of a spectrum.
type ParentPeak struct {
	MZ        float64
	Charge    int
	Intensity float64
	Mass      float64 // Neutral measured mass
	Tolerance float64 // Absolute tolerance in Da
	// MinMass is the measured mass minus the positive tolerance
	MinMass float64
	// MaxMass is the measured mass plus the negative tolerance
	MaxMass float64
}

// NewParentPeak derives the neutral precursor mass and its window. adduct is the mass of the
// charge carrier (ProtonMass for protonated precursors).
func NewParentPeak(mz float64, charge int, intensity, adduct float64, tol Tolerance) ParentPeak {
	if charge <= 0 {
		charge = 1
	}
	mass := float64(charge) * (mz - adduct)
	t := tol.Abs(mass)
	return ParentPeak{
		MZ:        mz,
		Charge:    charge,
		Intensity: intensity,
		Mass:      mass,
		Tolerance: t,
		MinMass:   mass - t,
		MaxMass:   mass + t,
	}
}

// Contains reports whether a neutral mass falls inside the precursor window.
func (p *ParentPeak) Contains(mass float64) bool {
	return mass >= p.MinMass && mass <= p.MaxMass
}

// Parent returns the protonated parent peak of the spectrum.
func (s *Spectrum) Parent(tol Tolerance) ParentPeak {
	return NewParentPeak(s.PrecursorMZ, s.Charge, s.PrecursorIntensity, ProtonMass, tol)
}

// Validate checks that a spectrum meets all requirements for searching.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	if s.PrecursorMZ <= 0 || math.IsNaN(s.PrecursorMZ) || math.IsInf(s.PrecursorMZ, 0) {
		errs = append(errs, "precursor m/z must be positive")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.Mass) || math.IsInf(peak.Mass, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.Mass <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
		if peak.Tolerance < 0 {
			errs = append(errs, fmt.Sprintf("peak %d tolerance must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].Mass < s.Peaks[i-1].Mass {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order.
func (s *Spectrum) SortPeaks() {
	sort.SliceStable(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].Mass < s.Peaks[j].Mass
	})
}

// Name returns the spectrum title, or "mz/charge" when it has none.
func (s *Spectrum) Name() string {
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("%.4f/%d", s.PrecursorMZ, s.Charge)
}
