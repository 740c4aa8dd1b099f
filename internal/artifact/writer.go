package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Write encodes a container holding graphBytes to w.
//
// FormatVersion, GraphFormat (when empty) and CreatedAt (when zero) are
// filled in. The header is validated before anything is written.
func Write(w io.Writer, header Header, graphBytes []byte) error {
	header.FormatVersion = FormatVersion
	if header.GraphFormat == "" {
		header.GraphFormat = GraphFormatONNX
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if err := ValidateHeader(&header); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if len(graphBytes) == 0 {
		return fmt.Errorf("graph is empty")
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	checksum := ComputeChecksum(graphBytes)

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flagsFor(&header))
	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(graphBytes)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(len(headerJSON)); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(graphBytes); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}

// WriteFile writes a container to path.
func WriteFile(path string, header Header, graphBytes []byte) (err error) {
	//nolint:gosec // G304: output path is user input
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()
	return Write(f, header, graphBytes)
}

func flagsFor(h *Header) uint32 {
	var flags uint32
	if len(h.Species) > 0 {
		flags |= FlagHasSpecies
	}
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	return flags
}

// padding returns the zero bytes needed after the JSON header so the graph
// starts on a HeaderAlignment boundary.
func padding(headerSize int) int {
	pos := FixedHeaderSize + headerSize
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
