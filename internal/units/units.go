// Package units holds every physical unit constant used by the calculators.
//
// Calculators report results in the atomistic-simulation convention:
//
//	energy  eV
//	forces  eV/Å
//	stress  eV/Å³
//	lengths Å
//
// Models may be trained in other unit systems. The conversion factors below
// are the CODATA 2014 values exactly as derived by ASE (ase.units), which is
// the reference the published models were validated against.
package units

import (
	"fmt"
	"strings"
)

// Base units of the engine side. Everything is expressed relative to them.
const (
	EV       = 1.0
	Angstrom = 1.0
)

// Derived constants, in eV and Å.
const (
	// Bohr is the Bohr radius in Å.
	Bohr = 0.5291772105638411
	// Hartree is the Hartree energy in eV.
	Hartree = 27.211386024367243
	// Rydberg is half a Hartree, in eV.
	Rydberg = Hartree / 2
	// KcalPerMol is one kcal/mol in eV.
	KcalPerMol = 0.04336410390059322
	// KJPerMol is one kJ/mol in eV.
	KJPerMol = 0.010364269656262175
	// MilliEV is one meV in eV.
	MilliEV = 1e-3 * EV
	// Nanometer is one nm in Å.
	Nanometer = 10 * Angstrom
	// GPa is one GPa in eV/Å³.
	GPa = 0.006241509125883258
)

// Canonical unit names, as stored in artifact headers.
const (
	NameEV         = "eV"
	NameMilliEV    = "meV"
	NameHartree    = "Hartree"
	NameRydberg    = "Rydberg"
	NameKcalPerMol = "kcal/mol"
	NameKJPerMol   = "kJ/mol"

	NameAngstrom  = "Angstrom"
	NameBohr      = "Bohr"
	NameNanometer = "nm"
)

var energyUnits = map[string]float64{
	"ev":       EV,
	"mev":      MilliEV,
	"hartree":  Hartree,
	"ha":       Hartree,
	"rydberg":  Rydberg,
	"ry":       Rydberg,
	"kcal/mol": KcalPerMol,
	"kj/mol":   KJPerMol,
}

var lengthUnits = map[string]float64{
	"angstrom": Angstrom,
	"ang":      Angstrom,
	"a":        Angstrom,
	"å":        Angstrom,
	"bohr":     Bohr,
	"au":       Bohr,
	"nm":       Nanometer,
}

// EnergyFactor returns how many eV one unit of the named energy unit is.
// Names are case-insensitive.
func EnergyFactor(name string) (float64, error) {
	f, ok := energyUnits[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown energy unit %q", name)
	}
	return f, nil
}

// LengthFactor returns how many Å one unit of the named length unit is.
// Names are case-insensitive.
func LengthFactor(name string) (float64, error) {
	f, ok := lengthUnits[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown length unit %q", name)
	}
	return f, nil
}

// System is the unit system a model was trained in.
type System struct {
	Energy string
	Length string
}

// Conversion is the set of factors that take model-internal values to
// engine units. Multiply a model quantity by the matching factor.
type Conversion struct {
	Energy float64 // model energy → eV
	Length float64 // model length → Å
}

// Force returns the factor for energy/length quantities (forces, gradients).
func (c Conversion) Force() float64 {
	return c.Energy / c.Length
}

// Conversion resolves the factors of s.
func (s System) Conversion() (Conversion, error) {
	e, err := EnergyFactor(s.Energy)
	if err != nil {
		return Conversion{}, err
	}
	l, err := LengthFactor(s.Length)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Energy: e, Length: l}, nil
}

// String returns "energy/length".
func (s System) String() string {
	return s.Energy + "/" + s.Length
}
