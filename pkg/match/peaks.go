package match

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/PepTag/pkg/core"
)

// peakIndex looks up peaks by m/z. Peaks must be sorted by mass.
type peakIndex struct {
	peaks  []core.Peak
	maxTol float64
}

func newPeakIndex(peaks []core.Peak) peakIndex {
	idx := peakIndex{peaks: peaks}
	for _, pk := range peaks {
		idx.maxTol = math.Max(idx.maxTol, pk.Tolerance)
	}
	return idx
}

// each calls fn for every peak compatible with charge z whose own tolerance window
// contains mz.
func (x peakIndex) each(mz float64, z int, fn func(p int)) {
	lo := sort.Search(len(x.peaks), func(i int) bool {
		return x.peaks[i].Mass >= mz-x.maxTol
	})
	for i := lo; i < len(x.peaks) && x.peaks[i].Mass <= mz+x.maxTol; i++ {
		pk := &x.peaks[i]
		if pk.Charge > 1 && pk.Charge != z {
			continue
		}
		if math.Abs(pk.Mass-mz) <= pk.Tolerance {
			fn(i)
		}
	}
}
