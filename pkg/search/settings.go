package search

import (
	"github.com/ChrisMcGann/PepTag/pkg/core"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

// DSSBridgeMass is the mass disuccinimidyl suberate adds between two crosslinked lysines.
const DSSBridgeMass = 138.0681

// Settings are the parameters of one search run.
type Settings struct {
	Instrument scoretable.Instrument
	// Biemann lists the ion types searched when the instrument has no ion profile
	Biemann string

	ParentTol   core.Tolerance
	FragmentTol core.Tolerance // applied to peaks that carry no tolerance of their own
	Adduct      float64        // charge carrier mass of the precursor

	TopN                 int // 0 keeps every match
	MaxUnmatched         int // -1 disables the filter
	MaxImmoniumUnmatched int // -1 disables the filter
	FirstMatchWins       bool

	Crosslink      bool
	CrosslinkMax   float64
	BridgeMass     float64 // neutral mass of the crosslinker, DSS by default
	InternalMinLen int
	InternalMaxLen int
	Workers        int // 0 uses one worker per CPU
}

// DefaultSettings returns settings for a low resolution ion trap search.
func DefaultSettings() Settings {
	return Settings{
		Instrument:           scoretable.Generic,
		Biemann:              "a,b,y",
		ParentTol:            core.Tolerance{Value: 20, Unit: core.PPM},
		FragmentTol:          core.Tolerance{Value: 0.5, Unit: core.Dalton},
		Adduct:               core.ProtonMass,
		TopN:                 5,
		MaxUnmatched:         -1,
		MaxImmoniumUnmatched: -1,
		CrosslinkMax:         6,
		BridgeMass:           DSSBridgeMass,
		InternalMinLen:       2,
	}
}

// Validate checks the settings for values the engine cannot search with.
func (s *Settings) Validate() error {
	switch {
	case s.ParentTol.Value < 0:
		return &SettingsError{Field: "ParentTol", Reason: "must be non-negative"}
	case s.FragmentTol.Value < 0:
		return &SettingsError{Field: "FragmentTol", Reason: "must be non-negative"}
	case s.TopN < 0:
		return &SettingsError{Field: "TopN", Reason: "must be non-negative"}
	case s.BridgeMass < 0:
		return &SettingsError{Field: "BridgeMass", Reason: "must be non-negative"}
	case s.Workers < 0:
		return &SettingsError{Field: "Workers", Reason: "must be non-negative"}
	case s.InternalMaxLen != 0 && s.InternalMaxLen < s.InternalMinLen:
		return &SettingsError{Field: "InternalMaxLen", Reason: "must not be below InternalMinLen"}
	}
	return nil
}
