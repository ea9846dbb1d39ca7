package msp

import (
	"strings"
	"testing"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

const library = `Name: PEPMIDEK/2
MW: 962.4208
Comment: Parent=482.2177 Mods=1/3,M,Oxidation iRT=31.5
Num peaks: 3
98.0600	1000	"b1/0.2ppm"
343.1000	250	"y3,b3^2/1.1ppm"
227.1026	400	"b2"

Name: ACK/1
Comment: Parent=364.1649 Mods=2/-1,A,Acetyl/1,C,Carbamidomethyl
Num Peaks: 0

Name: LLSGK/2_0
MW: 502.31
Num peaks: 1
147.1128	10	"?"
`

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)

	if !r.Next() {
		t.Fatalf("Next() = false, err = %v", r.Err())
	}
	spec := r.Spectrum()
	if spec.Title != "PEPMIDEK/2" || spec.Charge != 2 {
		t.Errorf("title/charge = %q/%d", spec.Title, spec.Charge)
	}
	if spec.Sequence != "PEPmIDEK" {
		t.Errorf("Sequence = %q, want PEPmIDEK", spec.Sequence)
	}
	if spec.PrecursorMZ != 482.2177 {
		t.Errorf("PrecursorMZ = %v", spec.PrecursorMZ)
	}
	if spec.RetentionTime == nil || *spec.RetentionTime != 31.5 {
		t.Errorf("RetentionTime = %v", spec.RetentionTime)
	}
	if len(spec.Peaks) != 3 || !spec.ArePeaksSorted() {
		t.Fatalf("peaks = %+v", spec.Peaks)
	}
	wantAnn := []string{"b1", "b2", "y3"}
	for i, p := range spec.Peaks {
		if p.Annotation != wantAnn[i] {
			t.Errorf("peak %d annotation = %q, want %q", i, p.Annotation, wantAnn[i])
		}
	}

	if !r.Next() {
		t.Fatalf("Next() = false, err = %v", r.Err())
	}
	spec = r.Spectrum()
	if spec.Sequence != "AC[+57.0215]K" {
		t.Errorf("Sequence = %q, want AC[+57.0215]K", spec.Sequence)
	}
	if len(spec.Peaks) != 0 {
		t.Errorf("peaks = %d, want 0", len(spec.Peaks))
	}

	if !r.Next() {
		t.Fatalf("Next() = false, err = %v", r.Err())
	}
	spec = r.Spectrum()
	if spec.Charge != 2 || spec.Sequence != "LLSGK" {
		t.Errorf("charge/sequence = %d/%q", spec.Charge, spec.Sequence)
	}
	if diff := spec.PrecursorMZ - core.MZ(502.31, 2); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("PrecursorMZ from MW = %v", spec.PrecursorMZ)
	}

	if r.Next() {
		t.Error("Next() = true after last entry")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v", r.Err())
	}
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad name", "Name: PEPTIDE\nNum peaks: 0\n"},
		{"bad charge", "Name: PEPTIDE/x\nNum peaks: 0\n"},
		{"bad peak count", "Name: PEPTIDE/2\nNum peaks: many\n"},
		{"bad peak", "Name: PEPTIDE/2\nNum peaks: 1\n100.0\n"},
		{"truncated", "Name: PEPTIDE/2\nNum peaks: 2\n100.0\t1\n"},
		{"no peaks", "Name: PEPTIDE/2\nComment: Parent=400\n"},
		{"unknown mod", "Name: PEPTIDE/2\nComment: Mods=1/1,E,Bogus\nNum peaks: 0\n"},
		{"mod residue mismatch", "Name: PEPTIDE/2\nComment: Mods=1/0,M,Oxidation\nNum peaks: 0\n"},
		{"mod count", "Name: PEPTIDE/2\nComment: Mods=2/0,P,Oxidation\nNum peaks: 0\n"},
		{"invalid residue", "Name: PEPTIDEZ/2\nNum peaks: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), nil)
			if r.Next() {
				t.Fatalf("Next() = true, spectrum %+v", r.Spectrum())
			}
			if r.Err() == nil {
				t.Error("Err() = nil, want error")
			}
		})
	}
}

func TestReader_Empty(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"), nil)
	if r.Next() {
		t.Error("Next() = true on empty input")
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v", r.Err())
	}
}
