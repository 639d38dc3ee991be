// Package corpus discovers workshop transcripts on disk, parses them into
// chunks, and indexes them concurrently.
package corpus

import (
	"path/filepath"
	"strings"
)

// DocumentFormat enumerates supported transcript payload formats.
type DocumentFormat string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown DocumentFormat = ""
	// FormatVTT represents WebVTT caption transcripts.
	FormatVTT DocumentFormat = "vtt"
	// FormatPDF represents PDF transcript exports.
	FormatPDF DocumentFormat = "pdf"
)

// DetectFormat infers a transcript format from the provided path's extension.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return FormatVTT
	case ".pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}
