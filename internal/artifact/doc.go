// Package artifact implements the .mlip container for compiled potentials.
//
// A container wraps a serialized computation graph (currently ONNX) together
// with the facts a calculator needs but a bare graph cannot state: which
// model variant it was compiled as, its unit system, its neighbor cutoff and
// the species it was trained on.
//
//	Format Structure:
//	  [0x00-0x03: Magic "MLIP"]
//	  [0x04-0x07: Version (uint32 LE)]
//	  [0x08-0x0B: Flags (uint32 LE)]
//	  [0x0C-0x0F: Reserved]
//	  [0x10-0x17: Header size (uint64 LE)]
//	  [0x18-0x1F: Graph size (uint64 LE)]
//	  [0x20-0x3F: SHA-256 of the graph bytes]
//	  [Header: JSON]
//	  [Padding to a 64-byte boundary]
//	  [Graph bytes]
//
// Example usage:
//
//	onnxBytes, _ := os.ReadFile("model.onnx")
//	h := artifact.Header{ModelType: "md", Cutoff: 5.0, Species: []int{1, 6, 8}}
//	if err := artifact.WriteFile("model.mlip", h, onnxBytes); err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err := artifact.ReadFile("model.mlip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(a.Header.ModelType, len(a.Graph))
package artifact
