package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ToleranceUnit selects how a tolerance value scales with mass.
type ToleranceUnit int

const (
	Dalton ToleranceUnit = iota
	PPM
	Percent
)

// Tolerance is a mass error window.
type Tolerance struct {
	Value float64
	Unit  ToleranceUnit
}

// Abs returns the absolute tolerance in Da at the given mass.
func (t Tolerance) Abs(mass float64) float64 {
	switch t.Unit {
	case PPM:
		return mass * t.Value * 1e-6
	case Percent:
		return mass * t.Value * 1e-2
	default:
		return t.Value
	}
}

func (t Tolerance) String() string {
	v := strconv.FormatFloat(t.Value, 'g', -1, 64)
	switch t.Unit {
	case PPM:
		return v + "ppm"
	case Percent:
		return v + "%"
	default:
		return v + "Da"
	}
}

// ParseTolerance parses strings like "0.5Da", "0.5", "10ppm" or "0.01%".
func ParseTolerance(s string) (Tolerance, error) {
	str := strings.TrimSpace(s)
	unit := Dalton
	lower := strings.ToLower(str)
	switch {
	case strings.HasSuffix(lower, "ppm"):
		unit = PPM
		str = str[:len(str)-3]
	case strings.HasSuffix(lower, "da"):
		str = str[:len(str)-2]
	case strings.HasSuffix(lower, "%"):
		unit = Percent
		str = str[:len(str)-1]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || v < 0 {
		return Tolerance{}, fmt.Errorf("%w: '%s'", ErrInvalidTolerance, s)
	}
	return Tolerance{Value: v, Unit: unit}, nil
}
