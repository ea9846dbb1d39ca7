// Package core provides chemistry calculations, residue definitions and the spectrum
// and peptide models shared by the tag scoring engine.
package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH  = 1.0078250321
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassS  = 31.9720706900
	MassP  = 30.9737615100
	MassSe = 79.9165218000

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688

	// ElectronMass is the difference between a hydrogen atom and a proton
	ElectronMass = MassH - ProtonMass
)

// Small neutral fragments used by ion offsets and neutral losses
var (
	MassH2O   = Composition{H: 2, O: 1}.Mass()
	MassNH3   = Composition{N: 1, H: 3}.Mass()
	MassCO    = Composition{C: 1, O: 1}.Mass()
	MassOH    = Composition{O: 1, H: 1}.Mass()
	MassH3PO4 = Composition{H: 3, P: 1, O: 4}.Mass()
	MassHPO3  = Composition{H: 1, P: 1, O: 3}.Mass()
	MassCH4SO = Composition{C: 1, H: 4, S: 1, O: 1}.Mass()
)

// Default terminal groups of an unmodified peptide
var (
	DefaultNTermWt = MassH
	DefaultCTermWt = MassOH
)

// Composition stores elemental composition
type Composition struct {
	C, H, N, O, S, P, Se int
}

// Add returns the element-wise sum of two compositions.
func (c Composition) Add(o Composition) Composition {
	return Composition{
		C:  c.C + o.C,
		H:  c.H + o.H,
		N:  c.N + o.N,
		O:  c.O + o.O,
		S:  c.S + o.S,
		P:  c.P + o.P,
		Se: c.Se + o.Se,
	}
}

// Mass returns the monoisotopic mass of the composition.
func (c Composition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS +
		float64(c.P)*MassP +
		float64(c.Se)*MassSe
}

// ChargedPeakMass converts an m/z observed at charge z to its singly protonated (MH+) mass.
func ChargedPeakMass(mz float64, z int) float64 {
	if z <= 1 {
		return mz
	}
	return float64(z)*mz - float64(z-1)*ProtonMass
}

// MZ returns the m/z of a neutral mass carrying z protons.
func MZ(neutral float64, z int) float64 {
	if z <= 0 {
		z = 1
	}
	return (neutral + float64(z)*ProtonMass) / float64(z)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
