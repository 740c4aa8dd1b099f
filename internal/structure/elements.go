package structure

import (
	"fmt"
	"strings"
)

// MaxAtomicNumber is the largest known atomic number.
const MaxAtomicNumber = 118

// symbols[z-1] is the chemical symbol of atomic number z.
var symbols = [MaxAtomicNumber]string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var numbersBySymbol = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for i, s := range symbols {
		m[strings.ToLower(s)] = i + 1
	}
	return m
}()

// AtomicNumber returns the atomic number of a chemical symbol.
// Symbols are case-insensitive.
func AtomicNumber(symbol string) (int, error) {
	z, ok := numbersBySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return 0, fmt.Errorf("unknown chemical symbol %q", symbol)
	}
	return z, nil
}

// Symbol returns the chemical symbol of atomic number z, or "X" if z is out
// of range.
func Symbol(z int) string {
	if z < 1 || z > MaxAtomicNumber {
		return "X"
	}
	return symbols[z-1]
}
