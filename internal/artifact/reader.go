package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReaderOptions configures decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// IsContainer reports whether prefix starts with the .mlip magic bytes.
func IsContainer(prefix []byte) bool {
	return len(prefix) >= len(MagicBytes) && string(prefix[:len(MagicBytes)]) == MagicBytes
}

// ReadFile decodes the container at path.
func ReadFile(path string, opts ...ReaderOptions) (*Artifact, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ReadBytes(data, opts...)
}

// Read decodes a container from r.
func Read(r io.Reader, opts ...ReaderOptions) (*Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	return ReadBytes(data, opts...)
}

// ReadBytes decodes a container held in memory. The returned Graph slice
// aliases data.
func ReadBytes(data []byte, opts ...ReaderOptions) (*Artifact, error) {
	var opt ReaderOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	if !IsContainer(data) {
		return nil, ErrInvalidMagic
	}
	if len(data) < FixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, fixed header needs %d", ErrTruncated, len(data), FixedHeaderSize)
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	a := &Artifact{Flags: binary.LittleEndian.Uint32(data[8:12])}
	headerSize := binary.LittleEndian.Uint64(data[16:24])
	graphSize := binary.LittleEndian.Uint64(data[24:32])
	copy(a.Checksum[:], data[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	headerEnd := FixedHeaderSize + int(headerSize)
	if headerEnd > len(data) {
		return nil, fmt.Errorf("%w: header ends at %d, file has %d bytes", ErrTruncated, headerEnd, len(data))
	}
	if err := json.Unmarshal(data[FixedHeaderSize:headerEnd], &a.Header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	graphStart := headerEnd + padding(int(headerSize))
	remaining := uint64(0)
	if graphStart <= len(data) {
		remaining = uint64(len(data) - graphStart)
	}
	if graphSize == 0 || graphSize > remaining {
		return nil, fmt.Errorf("%w: graph needs %d bytes, %d available", ErrTruncated, graphSize, remaining)
	}
	a.Graph = data[graphStart : graphStart+int(graphSize)]

	if !opt.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(a.Graph), a.Checksum); err != nil {
			return nil, err
		}
	}

	if err := ValidateHeader(&a.Header); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return a, nil
}
