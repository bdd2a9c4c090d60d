package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// FileFormat represents the candidate list file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatText               // One candidate per line
	FormatPacked             // msgpack array of strings
)

// maxEntries bounds the header of a packed list.
const maxEntries = 1000000

// FormatInfo contains metadata about a candidate list file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Candidate List",
		Extensions:  []string{".txt", ".list"},
		MinSize:     1,
	},
	FormatPacked: {
		Format:      FormatPacked,
		Description: "Packed Candidate List",
		Extensions:  []string{".mpk", ".msgpack"},
		MinSize:     1, // An empty array header
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(formatInfo.Extensions, ext) {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatPacked:
		return validatePackedFormat(filename)
	case FormatText:
		return validateTextFormat(filename)
	}
	return nil
}

// validatePackedFormat checks that the file starts with a sane array header
func validatePackedFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	n, err := msgpack.NewDecoder(file).DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if n < 0 {
		return fmt.Errorf("invalid entry count in %s: %d", filename, n)
	}
	if n > maxEntries {
		return fmt.Errorf("suspicious entry count in %s: %d (too large)", filename, n)
	}

	log.Debugf("Packed file %s validated: %d entries", filename, n)
	return nil
}

// validateTextFormat validates text candidate files
func validateTextFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buffer := make([]byte, 1024)
	if _, err := file.Read(buffer); err != nil {
		return fmt.Errorf("failed to read from text file %s: %w", filename, err)
	}

	log.Debugf("Text file %s validated", filename)
	return nil
}

// DetectFileFormat picks the format of a file from its extension and
// validates it.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range []FileFormat{FormatText, FormatPacked} {
		if !slices.Contains(supportedFormats[f].Extensions, ext) {
			continue
		}
		if err := ValidateFileFormat(filename, f); err != nil {
			return FormatUnknown, err
		}
		return f, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
