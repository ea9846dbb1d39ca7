package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for input problems at the core boundary
var (
	// ErrInvalidResidue is returned when a sequence contains a code outside the residue alphabet
	ErrInvalidResidue = errors.New("invalid residue")

	// ErrEmptySequence is returned when a peptide sequence has no residues
	ErrEmptySequence = errors.New("empty sequence")

	// ErrInvalidTolerance is returned when a tolerance string cannot be parsed
	ErrInvalidTolerance = errors.New("invalid tolerance")
)

// InvalidResidueError reports the offending code and its position
type InvalidResidueError struct {
	Sequence string
	Position int
	Code     byte
}

func (e *InvalidResidueError) Error() string {
	return fmt.Sprintf("invalid residue '%c' at position %d in '%s'", e.Code, e.Position+1, e.Sequence)
}

func (e *InvalidResidueError) Is(target error) bool {
	return target == ErrInvalidResidue
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}
