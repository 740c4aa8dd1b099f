package structure

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFile reads a structure, choosing the format from the file extension:
// .xyz and .extxyz are (extended) XYZ, .json is the JSON encoding of
// Structure.
func ReadFile(path string) (*Structure, error) {
	//nolint:gosec // G304: structure paths are user input
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open structure: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xyz", ".extxyz":
		return ReadXYZ(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported structure format %q", ext)
	}
}

// ReadJSON decodes a structure from JSON and validates it.
func ReadJSON(r io.Reader) (*Structure, error) {
	var s Structure
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode structure: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadXYZ reads the first frame of an XYZ or extended XYZ stream.
//
// The comment line may carry Lattice="ax ay az bx by bz cx cy cz" and
// pbc="T T T". A lattice without pbc means fully periodic. The first column
// of each atom line is a chemical symbol or an atomic number; columns after
// the three coordinates are ignored.
func ReadXYZ(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("xyz: missing atom count: %w", scanErr(sc))
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("xyz: invalid atom count %q", sc.Text())
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("xyz: missing comment line: %w", scanErr(sc))
	}

	s := &Structure{
		Numbers:   make([]int, 0, n),
		Positions: make([][3]float64, 0, n),
	}
	if err := s.parseComment(sc.Text()); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("xyz: expected %d atoms, got %d: %w", n, i, scanErr(sc))
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("xyz: atom line %d: want species and 3 coordinates, got %q", i+1, sc.Text())
		}
		z, err := parseSpecies(fields[0])
		if err != nil {
			return nil, fmt.Errorf("xyz: atom line %d: %w", i+1, err)
		}
		var p [3]float64
		for k := range p {
			if p[k], err = strconv.ParseFloat(fields[k+1], 64); err != nil {
				return nil, fmt.Errorf("xyz: atom line %d: %w", i+1, err)
			}
		}
		s.Numbers = append(s.Numbers, z)
		s.Positions = append(s.Positions, p)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Structure) parseComment(line string) error {
	kv := parseKeyValues(line)

	if lattice, ok := kv["lattice"]; ok {
		fields := strings.Fields(lattice)
		if len(fields) != 9 {
			return fmt.Errorf("xyz: Lattice needs 9 numbers, got %d", len(fields))
		}
		var cell [3][3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("xyz: Lattice: %w", err)
			}
			cell[i/3][i%3] = v
		}
		s.Cell = &cell
		s.PBC = [3]bool{true, true, true}
	}

	if pbc, ok := kv["pbc"]; ok {
		fields := strings.Fields(pbc)
		if len(fields) != 3 {
			return fmt.Errorf("xyz: pbc needs 3 flags, got %q", pbc)
		}
		for i, f := range fields {
			switch strings.ToUpper(f) {
			case "T", "TRUE", "1":
				s.PBC[i] = true
			case "F", "FALSE", "0":
				s.PBC[i] = false
			default:
				return fmt.Errorf("xyz: invalid pbc flag %q", f)
			}
		}
	}
	return nil
}

// parseKeyValues splits an extended XYZ comment line into lower-cased keys
// and unquoted values. Tokens without '=' are ignored.
func parseKeyValues(line string) map[string]string {
	out := make(map[string]string)
	for len(line) > 0 {
		line = strings.TrimLeft(line, " \t")
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		if sp := strings.LastIndexAny(key, " \t"); sp >= 0 {
			key = key[sp+1:]
		}
		rest := line[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value, rest = rest[1:], ""
			} else {
				value, rest = rest[1:end+1], rest[end+2:]
			}
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				value, rest = rest, ""
			} else {
				value, rest = rest[:end], rest[end:]
			}
		}
		out[key] = value
		line = rest
	}
	return out
}

func parseSpecies(field string) (int, error) {
	if z, err := strconv.Atoi(field); err == nil {
		return z, nil
	}
	return AtomicNumber(field)
}

func scanErr(sc *bufio.Scanner) error {
	if err := sc.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
