// Package search runs candidate peptides against spectra: one session per spectrum, scored
// by the ion matcher and rescored through modification variants when the mass misses.
package search

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/PepTag/pkg/composition"
	"github.com/ChrisMcGann/PepTag/pkg/iontype"
	"github.com/ChrisMcGann/PepTag/pkg/modsearch"
	"github.com/ChrisMcGann/PepTag/pkg/scoretable"
)

// RangedProvider is a modification provider that knows the span of mass shifts it offers.
type RangedProvider interface {
	modsearch.Provider
	Range() (lo, hi float64)
}

// Engine holds the read-only state shared by all sessions of a search.
type Engine struct {
	settings Settings
	ions     *iontype.Config
	resolver *scoretable.Resolver
	gate     *composition.Gate
	provider modsearch.Provider
	shiftLo  float64
	shiftHi  float64
	logger   *zap.Logger
}

// NewEngine resolves the ion types and score tables for the settings.
func NewEngine(s Settings, profiles *scoretable.Profiles) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ions, err := profiles.IonConfig(s.Instrument, s.Biemann)
	if err != nil {
		return nil, fmt.Errorf("ion types: %w", err)
	}
	return &Engine{
		settings: s,
		ions:     ions,
		resolver: scoretable.NewResolver(profiles, ions),
		logger:   zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for progress and warning messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
	for _, inst := range e.resolver.Fallbacks() {
		if inst == e.settings.Instrument {
			l.Debug("instrument has no score profile, using Generic", zap.Stringer("instrument", inst))
		}
	}
}

// SetGate sets the composition gate applied to every candidate.
func (e *Engine) SetGate(g *composition.Gate) { e.gate = g }

// SetProvider sets the modification provider. When it reports its range, candidates whose
// mass cannot reach the precursor through any shift are skipped.
func (e *Engine) SetProvider(p modsearch.Provider) {
	e.provider = p
	e.shiftLo, e.shiftHi = 0, 0
	if r, ok := p.(RangedProvider); ok {
		e.shiftLo, e.shiftHi = r.Range()
	}
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings { return e.settings }

// Ions returns the enabled ion types.
func (e *Engine) Ions() *iontype.Config { return e.ions }

// Resolver returns the score table resolver.
func (e *Engine) Resolver() *scoretable.Resolver { return e.resolver }
