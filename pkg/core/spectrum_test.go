package core

import (
	"errors"
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{Mass: 100.0, Intensity: 1000.0, Tolerance: 0.5},
					{Mass: 200.0, Intensity: 2000.0, Tolerance: 0.5},
				},
			},
			wantErr: false,
		},
		{
			name: "no peaks is valid",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
			},
			wantErr: false,
		},
		{
			name: "zero charge",
			spec: &Spectrum{
				Charge:      0,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{Mass: 100.0, Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks: []Peak{
					{Mass: 200.0, Intensity: 2000.0},
					{Mass: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{Mass: math.NaN(), Intensity: 1000.0}},
			},
			wantErr: true,
		},
		{
			name: "negative tolerance",
			spec: &Spectrum{
				Charge:      2,
				PrecursorMZ: 400.5,
				Peaks:       []Peak{{Mass: 100.0, Intensity: 1000.0, Tolerance: -1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("Validate() error is %T, want *ValidationError", err)
			}
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{Mass: 300.0, Intensity: 100.0},
			{Mass: 100.0, Intensity: 200.0},
			{Mass: 200.0, Intensity: 150.0},
		},
	}

	spec.SortPeaks()

	expected := []float64{100.0, 200.0, 300.0}
	for i, peak := range spec.Peaks {
		if peak.Mass != expected[i] {
			t.Errorf("Peak %d: expected m/z %.1f, got %.1f", i, expected[i], peak.Mass)
		}
	}
}

func TestParentPeak(t *testing.T) {
	spec := &Spectrum{PrecursorMZ: 500.0, Charge: 2}
	parent := spec.Parent(Tolerance{Value: 1.0, Unit: Dalton})

	wantMass := 2 * (500.0 - ProtonMass)
	if math.Abs(parent.Mass-wantMass) > 1e-9 {
		t.Errorf("Mass = %v, want %v", parent.Mass, wantMass)
	}
	if parent.MinMass != parent.Mass-1.0 || parent.MaxMass != parent.Mass+1.0 {
		t.Errorf("window = [%v, %v]", parent.MinMass, parent.MaxMass)
	}
	if !parent.Contains(wantMass + 0.5) {
		t.Error("expected mass inside window")
	}
	if parent.Contains(wantMass + 1.5) {
		t.Error("expected mass outside window")
	}
}

func TestSpectrumName(t *testing.T) {
	spec := &Spectrum{Title: "scan=42", Charge: 2}
	if got := spec.Name(); got != "scan=42" {
		t.Errorf("Name() = %s", got)
	}
	spec = &Spectrum{PrecursorMZ: 400.25, Charge: 2}
	if got := spec.Name(); got != "400.2500/2" {
		t.Errorf("Name() = %s", got)
	}
}
