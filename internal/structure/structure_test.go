package structure

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func water() *Structure {
	return New(
		[]int{8, 1, 1},
		[][3]float64{{0, 0, 0.1173}, {0, 0.7572, -0.4692}, {0, -0.7572, -0.4692}},
	)
}

func TestValidate(t *testing.T) {
	cubic := [3][3]float64{{4, 0, 0}, {0, 4, 0}, {0, 0, 4}}

	tests := []struct {
		name    string
		s       *Structure
		wantErr error
	}{
		{"molecule", water(), nil},
		{"periodic", NewPeriodic([]int{14}, [][3]float64{{0, 0, 0}}, cubic, [3]bool{true, true, true}), nil},
		{"empty", &Structure{}, ErrEmpty},
		{"length mismatch", New([]int{1, 1}, [][3]float64{{0, 0, 0}}), ErrLengthMismatch},
		{"nan", New([]int{1}, [][3]float64{{math.NaN(), 0, 0}}), ErrNonFinite},
		{"pbc without cell", &Structure{Numbers: []int{1}, Positions: [][3]float64{{0, 0, 0}}, PBC: [3]bool{true, false, false}}, ErrPeriodicWithoutCell},
		{"pbc on zero vector", NewPeriodic([]int{1}, [][3]float64{{0, 0, 0}}, [3][3]float64{{4, 0, 0}, {0, 4, 0}}, [3]bool{true, true, true}), ErrPeriodicWithoutCell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestCellGeometry(t *testing.T) {
	s := NewPeriodic([]int{1}, [][3]float64{{0, 0, 0}},
		[3][3]float64{{2, 0, 0}, {1, 3, 0}, {0, 0, 5}}, [3]bool{true, true, true})

	assert.Equal(t, 3, s.CellRank())
	assert.InDelta(t, 30.0, s.Volume(), 1e-12)

	inv, err := s.InverseCell()
	require.NoError(t, err)
	// cell · inv = I
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += s.Cell[i][k] * inv.At(k, j)
			}
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, sum, 1e-12)
		}
	}

	slab := NewPeriodic([]int{1}, [][3]float64{{0, 0, 0}},
		[3][3]float64{{2, 0, 0}, {0, 2, 0}, {}}, [3]bool{true, true, false})
	assert.Equal(t, 2, slab.CellRank())
	assert.Zero(t, slab.Volume())
	_, err = slab.InverseCell()
	assert.ErrorIs(t, err, ErrSingularCell)

	assert.Zero(t, water().CellRank())

	// Three non-zero vectors in one plane.
	flat := NewPeriodic([]int{1}, [][3]float64{{0, 0, 0}},
		[3][3]float64{{4, 0, 0}, {0, 4, 0}, {4, 4, 0}}, [3]bool{true, true, true})
	assert.Equal(t, 3, flat.CellRank())
	assert.Zero(t, flat.Volume())
	_, err = flat.InverseCell()
	assert.ErrorIs(t, err, ErrSingularCell)
}

func TestCloneAndEqual(t *testing.T) {
	s := NewPeriodic([]int{1, 1}, [][3]float64{{0, 0, 0}, {0, 0, 0.74}},
		[3][3]float64{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}}, [3]bool{true, true, true})
	c := s.Clone()
	require.True(t, s.Equal(c))

	c.Positions[1][2] = 0.75
	assert.False(t, s.Equal(c))
	assert.Equal(t, 0.74, s.Positions[1][2], "clone must not alias positions")

	c = s.Clone()
	c.Cell[0][0] = 6
	assert.False(t, s.Equal(c))
	assert.Equal(t, 5.0, s.Cell[0][0], "clone must not alias cell")

	c = s.Clone()
	c.Cell = nil
	assert.False(t, s.Equal(c))

	var nilS *Structure
	assert.True(t, nilS.Equal(nil))
	assert.False(t, nilS.Equal(s))
}

func TestAtomicNumber(t *testing.T) {
	z, err := AtomicNumber("Fe")
	require.NoError(t, err)
	assert.Equal(t, 26, z)

	z, err = AtomicNumber("og")
	require.NoError(t, err)
	assert.Equal(t, 118, z)

	_, err = AtomicNumber("Xx")
	assert.Error(t, err)

	assert.Equal(t, "H", Symbol(1))
	assert.Equal(t, "X", Symbol(0))
	assert.Equal(t, "X", Symbol(119))
}

func TestReadXYZ(t *testing.T) {
	src := `3
water energy=-14.2
O 0.0 0.0 0.1173
H 0.0 0.7572 -0.4692
1 0.0 -0.7572 -0.4692
`
	s, err := ReadXYZ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []int{8, 1, 1}, s.Numbers)
	assert.Equal(t, water().Positions, s.Positions)
	assert.Nil(t, s.Cell)
	assert.Equal(t, [3]bool{}, s.PBC)
}

func TestReadExtendedXYZ(t *testing.T) {
	src := `2
Lattice="5.43 0 0 0 5.43 0 0 0 5.43" Properties=species:S:1:pos:R:3 pbc="T T F"
Si 0 0 0
Si 1.3575 1.3575 1.3575
`
	s, err := ReadXYZ(strings.NewReader(src))
	require.NoError(t, err)
	require.NotNil(t, s.Cell)
	assert.Equal(t, 5.43, s.Cell[2][2])
	assert.Equal(t, [3]bool{true, true, false}, s.PBC)

	// Lattice without pbc is fully periodic.
	s, err = ReadXYZ(strings.NewReader("1\nLattice=\"3 0 0 0 3 0 0 0 3\"\nCu 0 0 0\n"))
	require.NoError(t, err)
	assert.Equal(t, [3]bool{true, true, true}, s.PBC)
}

func TestReadXYZErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"bad count":      "two\n\nH 0 0 0\n",
		"truncated":      "2\n\nH 0 0 0\n",
		"short line":     "1\n\nH 0 0\n",
		"bad symbol":     "1\n\nQq 0 0 0\n",
		"bad lattice":    "1\nLattice=\"1 2 3\"\nH 0 0 0\n",
		"bad pbc":        "1\nLattice=\"3 0 0 0 3 0 0 0 3\" pbc=\"T T maybe\"\nH 0 0 0\n",
		"bad coordinate": "1\n\nH 0 zero 0\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadXYZ(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "h2.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"numbers":[1,1],"positions":[[0,0,0],[0,0,0.74]],"cell":[[4,0,0],[0,4,0],[0,0,4]],"pbc":[true,true,true]}`), 0o600))
	s, err := ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.InDelta(t, 64.0, s.Volume(), 1e-12)

	xyzPath := filepath.Join(dir, "h.xyz")
	require.NoError(t, os.WriteFile(xyzPath, []byte("1\n\nH 0 0 0\n"), 0o600))
	s, err = ReadFile(xyzPath)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.Numbers)

	_, err = ReadFile(filepath.Join(dir, "h.pdb"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"numbers":[1],"positions":[]}`), 0o600))
	_, err = ReadFile(badPath)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
