package composition

import (
	"math"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// Immonium is the soft composition scorer built from the low mass region of one spectrum.
// Each kept peak carries the mask of the residues whose immonium ion it can explain.
type Immonium struct {
	peaks []int
	masks []Mask
}

// NewImmonium keeps the singly charged peaks that match at least one residue immonium ion.
func NewImmonium(peaks []core.Peak) *Immonium {
	im := &Immonium{}
	for i, pk := range peaks {
		if pk.Charge > 1 {
			continue
		}
		if pk.Mass > core.MaxImmoniumMass+pk.Tolerance {
			break
		}
		var m Mask
		for r := 0; r < core.NumResidues; r++ {
			if math.Abs(core.Residue(r).ImmoniumMass()-pk.Mass) <= pk.Tolerance {
				m |= ResidueBit(core.Residue(r))
			}
		}
		if m != 0 {
			im.peaks = append(im.peaks, i)
			im.masks = append(im.masks, m)
		}
	}
	return im
}

// Len returns the number of immonium region peaks.
func (im *Immonium) Len() int {
	if im == nil {
		return 0
	}
	return len(im.peaks)
}

// Peaks returns the spectrum indices of the immonium region peaks.
func (im *Immonium) Peaks() []int { return im.peaks }

// Search returns how many immonium region peaks are not explained by the candidate mask and
// raises matched to score for every peak that is.
func (im *Immonium) Search(m Mask, matched []float64, score float64) int {
	if im == nil {
		return 0
	}
	unmatched := 0
	for j, p := range im.peaks {
		if im.masks[j]&m == 0 {
			unmatched++
			continue
		}
		if score > matched[p] {
			matched[p] = score
		}
	}
	return unmatched
}
