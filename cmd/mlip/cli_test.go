package main

import (
	"bytes"
	"encoding/json"
	"os"
	"math"
	"path/filepath"
	"testing"

	"github.com/born-ml/mlip/internal/graph/graphtest"
)

// run executes the CLI with args and returns what it wrote.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCLIApp(&out).Run(append([]string{"mlip"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestPackAndInfo(t *testing.T) {
	dir := t.TempDir()
	graphPath := writeFile(t, dir, "model.onnx", "placeholder graph")
	out := filepath.Join(dir, "model.mlip")

	if _, err := run(t, "pack", "--no-verify", "-o", out, "-t", "md",
		"--species", "H,O", "--cutoff", "4.5", "--energy-unit", "eV", graphPath); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	stdout, err := run(t, "info", out)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	var info infoOutput
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("info output is not JSON: %v\n%s", err, stdout)
	}
	if info.Header.ModelType != "md" {
		t.Errorf("model_type = %q, want md", info.Header.ModelType)
	}
	if info.Header.Cutoff != 4.5 {
		t.Errorf("cutoff = %v, want 4.5", info.Header.Cutoff)
	}
	if len(info.Header.Species) != 2 || info.Header.Species[0] != 1 || info.Header.Species[1] != 8 {
		t.Errorf("species = %v, want [1 8]", info.Header.Species)
	}
	if info.GraphSize != len("placeholder graph") {
		t.Errorf("graph_size = %d", info.GraphSize)
	}
}

func TestPackRejectsUnverifiableGraph(t *testing.T) {
	dir := t.TempDir()
	graphPath := writeFile(t, dir, "model.onnx", "not onnx")
	if _, err := run(t, "pack", "-o", filepath.Join(dir, "m.mlip"), "-t", "md", graphPath); err == nil {
		t.Fatal("expected pack to fail on an invalid graph")
	}
}

func TestPackRejectsBadModelType(t *testing.T) {
	dir := t.TempDir()
	graphPath := writeFile(t, dir, "model.onnx", "graph")
	if _, err := run(t, "pack", "--no-verify", "-o", filepath.Join(dir, "m.mlip"), "-t", "dft", graphPath); err == nil {
		t.Fatal("expected pack to reject model type dft")
	}
}

func TestNeighbors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "water.xyz", `3
water
O 0.0 0.0 0.1173
H 0.0 0.7572 -0.4692
H 0.0 -0.7572 -0.4692
`)

	stdout, err := run(t, "neighbors", "--cutoff", "5", path)
	if err != nil {
		t.Fatalf("neighbors failed: %v", err)
	}
	var got neighborsOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Atoms != 3 || got.Pairs != 6 {
		t.Errorf("got %d atoms, %d pairs; want 3, 6", got.Atoms, got.Pairs)
	}

	stdout, err = run(t, "neighbors", "--cutoff", "1.0", path)
	if err != nil {
		t.Fatalf("neighbors failed: %v", err)
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Pairs != 4 {
		t.Errorf("pairs at 1.0 Å = %d, want 4", got.Pairs)
	}
}

func TestEvalMissingModel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "h.xyz", "1\n\nH 0 0 0\n")
	if _, err := run(t, "eval", "-t", "md", "-m", filepath.Join(dir, "absent.mlip"), path); err == nil {
		t.Fatal("expected eval to fail without a model")
	}
	if _, err := run(t, "eval", "-t", "md", path); err == nil {
		t.Fatal("expected eval to fail without an artifact path")
	}
}

func TestPackAndEval(t *testing.T) {
	dir := t.TempDir()
	graphPath := graphtest.Potential("md", 2.5).WriteFile(t, dir, "model.onnx")
	model := filepath.Join(dir, "model.mlip")

	if _, err := run(t, "pack", "-o", model, "-t", "md", "--species", "O,H", "--cutoff", "4", graphPath); err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	path := writeFile(t, dir, "water.xyz", `3
water
O 0.0 0.0 0.125
H 0.0 0.75 -0.5
H 0.0 -0.75 -0.5
`)

	stdout, err := run(t, "eval", "-t", "md", "-m", model, "-d", "cpu", path)
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	var got []evalOutput
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("eval output is not JSON: %v\n%s", err, stdout)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	res := got[0]
	if res.Path != path {
		t.Errorf("path = %q, want %q", res.Path, path)
	}
	if math.Abs(res.Energy-2.5) > 1e-12 {
		t.Errorf("energy = %v, want 2.5", res.Energy)
	}
	want := [][3]float64{{0, 0, 0.125}, {0, 0.75, -0.5}, {0, -0.75, -0.5}}
	if len(res.Forces) != len(want) {
		t.Fatalf("forces = %v, want %v", res.Forces, want)
	}
	for i := range want {
		if res.Forces[i] != want[i] {
			t.Errorf("forces[%d] = %v, want %v", i, res.Forces[i], want[i])
		}
	}
	if res.Stress != nil {
		t.Errorf("stress = %v, want none for a molecule", *res.Stress)
	}
	if res.Info.ModelType != "md" || res.Info.Device != "cpu" || res.Info.Precision != "float32" {
		t.Errorf("model info = %+v", res.Info)
	}
}

func TestParseSpeciesList(t *testing.T) {
	tests := []struct {
		input   string
		sorted  bool
		want    []int
		wantErr bool
	}{
		{"", true, nil, false},
		{"H,C,O", true, []int{1, 6, 8}, false},
		{"1, 6 ,8", true, []int{1, 6, 8}, false},
		{"O,H", true, []int{1, 8}, false},
		{"O,H", false, []int{8, 1}, false},
		{"H,Xx", true, nil, true},
	}
	for _, tt := range tests {
		got, err := parseSpeciesList(tt.input, tt.sorted)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSpeciesList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseSpeciesList(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseSpeciesList(%q) = %v, want %v", tt.input, got, tt.want)
				break
			}
		}
	}
}
