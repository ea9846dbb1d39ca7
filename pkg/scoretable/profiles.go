package scoretable

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ChrisMcGann/PepTag/pkg/iontype"
)

//go:embed profiles.toml
var defaultProfilesTOML string

// Profile holds the score constants of one instrument class.
type Profile struct {
	Ions      []string           `toml:"ions"`
	Unmatched float64            `toml:"unmatched"`
	Immonium  float64            `toml:"immonium"`
	Internal  float64            `toml:"internal"`
	Crosslink float64            `toml:"crosslink"`
	Scores    map[string]float64 `toml:"scores"`
	Rules     []Rule             `toml:"rule"`
}

// Rule overrides ion scores for a subset of charge buckets and basicities.
type Rule struct {
	Charges []string           `toml:"charges"`
	Basic   []string           `toml:"basic"`
	Scores  map[string]float64 `toml:"scores"`
}

type profileDoc struct {
	Profile map[string]*Profile `toml:"profile"`
}

// Profiles maps instrument classes to their score profiles.
type Profiles struct {
	byClass [NumInstruments]*Profile
}

// DefaultProfiles returns the built-in instrument profiles.
func DefaultProfiles() *Profiles {
	p, err := LoadProfiles(strings.NewReader(defaultProfilesTOML))
	if err != nil {
		panic(fmt.Sprintf("built-in score profiles: %v", err))
	}
	return p
}

// LoadProfiles parses a TOML profile document.
func LoadProfiles(r io.Reader) (*Profiles, error) {
	var doc profileDoc
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode score profiles: %w", err)
	}

	p := &Profiles{}
	for name, prof := range doc.Profile {
		inst, ok := LookupInstrument(name)
		if !ok {
			return nil, fmt.Errorf("unknown instrument class '%s'", name)
		}
		if err := prof.validate(); err != nil {
			return nil, fmt.Errorf("profile '%s': %w", name, err)
		}
		p.byClass[inst] = prof
	}
	return p, nil
}

func (p *Profile) validate() error {
	for _, name := range p.Ions {
		switch name {
		case iontype.Immonium, iontype.InternalA, iontype.InternalB:
			continue
		}
		if _, ok := iontype.ByName(name); !ok {
			return fmt.Errorf("unknown ion type '%s'", name)
		}
	}
	if err := validateScores(p.Scores); err != nil {
		return err
	}
	for i, rule := range p.Rules {
		if err := validateScores(rule.Scores); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
		for _, c := range rule.Charges {
			if _, ok := parseBucket(c); !ok {
				return fmt.Errorf("rule %d: invalid charge bucket '%s'", i+1, c)
			}
		}
		for _, b := range rule.Basic {
			if _, _, ok := parseBasic(b); !ok {
				return fmt.Errorf("rule %d: invalid basicity '%s'", i+1, b)
			}
		}
	}
	return nil
}

func validateScores(scores map[string]float64) error {
	for name := range scores {
		if _, ok := iontype.ByName(name); !ok {
			return fmt.Errorf("unknown ion type '%s'", name)
		}
	}
	return nil
}

// Override returns a copy of p in which every profile defined in o replaces p's.
func (p *Profiles) Override(o *Profiles) *Profiles {
	out := &Profiles{byClass: p.byClass}
	for i, prof := range o.byClass {
		if prof != nil {
			out.byClass[i] = prof
		}
	}
	return out
}

// Profile returns the profile of an instrument class and whether it was defined.
// Undefined classes fall back to the Generic profile.
func (p *Profiles) Profile(inst Instrument) (*Profile, bool) {
	if inst >= 0 && int(inst) < NumInstruments && p.byClass[inst] != nil {
		return p.byClass[inst], true
	}
	if g := p.byClass[Generic]; g != nil {
		return g, false
	}
	return &Profile{Unmatched: -1}, false
}

// IonConfig returns the ion types searched for an instrument. The Generic class and classes
// without an ion list use the Biemann flags.
func (p *Profiles) IonConfig(inst Instrument, biemann string) (*iontype.Config, error) {
	prof, ok := p.Profile(inst)
	if inst == Generic || !ok || len(prof.Ions) == 0 {
		return iontype.ParseBiemann(biemann)
	}
	return iontype.ParseBiemann(strings.Join(prof.Ions, ","))
}

// score returns the score of an ion for a key, applying matching rules in order.
func (p *Profile) score(name string, b ChargeBucket, basicN, basicC bool) (float64, bool) {
	s, ok := p.Scores[name]
	for _, rule := range p.Rules {
		if !rule.matches(b, basicN, basicC) {
			continue
		}
		if v, has := rule.Scores[name]; has {
			s, ok = v, true
		}
	}
	return s, ok
}

func (r *Rule) matches(b ChargeBucket, basicN, basicC bool) bool {
	if len(r.Charges) > 0 {
		found := false
		for _, c := range r.Charges {
			if cb, _ := parseBucket(c); cb == b {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(r.Basic) > 0 {
		found := false
		for _, s := range r.Basic {
			n, c, _ := parseBasic(s)
			if n == basicN && c == basicC {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func parseBasic(s string) (basicN, basicC, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NC", "CN":
		return true, true, true
	case "N":
		return true, false, true
	case "C":
		return false, true, true
	case "NONE", "":
		return false, false, true
	}
	return false, false, false
}
