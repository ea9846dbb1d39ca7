package core

// TagMatch is a scored candidate handed to the ranking and reporting layer.
type TagMatch struct {
	Parent       *ParentPeak
	Unmatched    int
	Score        float64
	Sequence     string // Sequence including residue-level modifications
	Modification string // Human-readable modification description, empty when unmodified
	NTermWt      float64
	CTermWt      float64
	MassError    float64 // Measured minus calculated neutral mass
	Protein      string
}
