package search

import (
	"errors"
	"fmt"
)

// Sentinel errors for search setup
var (
	// ErrInvalidSettings is returned when search settings fail validation
	ErrInvalidSettings = errors.New("invalid search settings")

	// ErrNoCandidates is returned when a search is started without candidate peptides
	ErrNoCandidates = errors.New("no candidate peptides")
)

// SettingsError reports the setting that failed validation
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid setting '%s': %s", e.Field, e.Reason)
}

func (e *SettingsError) Is(target error) bool {
	return target == ErrInvalidSettings
}
