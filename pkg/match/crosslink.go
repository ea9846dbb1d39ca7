package match

import (
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

// CrosslinkScorer scores the ions released when the bridge of a crosslinked pair breaks.
// The candidate is the light half; the heavy half is the partner peptide, the rest of the
// precursor once the candidate and the bridge are taken away.
type CrosslinkScorer struct {
	Parent *core.ParentPeak
	// BridgeMass is the neutral mass the linker adds to the pair
	BridgeMass float64
	// MaxContribution caps the total score crosslink ions may add
	MaxContribution float64

	index peakIndex
}

// NewCrosslinkScorer returns a crosslink scorer for one spectrum.
func NewCrosslinkScorer(peaks []core.Peak, parent *core.ParentPeak, bridgeMass, maxContribution float64) *CrosslinkScorer {
	return &CrosslinkScorer{
		Parent:          parent,
		BridgeMass:      bridgeMass,
		MaxContribution: maxContribution,
		index:           newPeakIndex(peaks),
	}
}

func (x *CrosslinkScorer) Name() string { return "crosslink" }

// PartnerMass is the neutral mass of the peptide crosslinked to c. It is not positive when
// c alone fills the precursor.
func (x *CrosslinkScorer) PartnerMass(c Candidate) float64 {
	return x.Parent.Mass - c.NeutralMass() - x.BridgeMass
}

// Score matches the light and heavy halves, plain and after water or ammonia loss, at every
// charge below the precursor's. Only peaks the main scan left unmatched are eligible.
func (x *CrosslinkScorer) Score(st *State, t *scoretable.Table, c Candidate) {
	if t.Crosslink <= 0 || x.Parent == nil {
		return
	}
	light := c.NeutralMass()
	heavy := x.PartnerMass(c)
	maxZ := x.Parent.Charge - 1
	if maxZ < 1 {
		maxZ = 1
	}

	total := 0.0
	full := false
	for _, half := range [2]float64{light, heavy} {
		if half <= 0 {
			continue
		}
		for _, neutral := range [3]float64{half, half - core.MassH2O, half - core.MassNH3} {
			for z := 1; z <= maxZ && !full; z++ {
				x.index.each(core.MZ(neutral, z), z, func(p int) {
					if full || st.matched[p] != 0 {
						return
					}
					if total+t.Crosslink > x.MaxContribution {
						full = true
						return
					}
					st.Combine(p, t.Crosslink)
					total += t.Crosslink
				})
			}
		}
	}
}
