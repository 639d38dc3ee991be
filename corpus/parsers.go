package corpus

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/transcript"
)

// Parser turns one transcript payload into embeddable chunks.
type Parser interface {
	Parse(doc Document, data []byte) ([]chunking.Chunk, error)
}

// ParserFor selects the parser for a document format.
func ParserFor(format DocumentFormat, chunker *chunking.Chunker) (Parser, error) {
	switch format {
	case FormatVTT:
		return &vttParser{chunker: chunker}, nil
	case FormatPDF:
		return &pdfParser{chunker: chunker}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// vttParser segments a WebVTT transcript and chunks along speaker turns, so
// chunks carry timestamps and speakers.
type vttParser struct {
	chunker *chunking.Chunker
}

func (p *vttParser) Parse(doc Document, data []byte) ([]chunking.Chunk, error) {
	parsed, err := transcript.Parse(doc.ID, string(data))
	if err != nil {
		return nil, err
	}

	var segments []transcript.Segment
	for segment := range parsed.Segments() {
		segments = append(segments, segment)
	}
	return p.chunker.ChunkSegments(doc.ID, segments), nil
}

// pdfParser extracts plain text from a PDF export and chunks it by paragraph.
// Timing information is lost in this format, so chunks have no timestamps.
type pdfParser struct {
	chunker *chunking.Chunker
}

func (p *pdfParser) Parse(doc Document, data []byte) ([]chunking.Chunk, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", doc.Path, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text from %s: %w", doc.Path, err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return nil, fmt.Errorf("read pdf text from %s: %w", doc.Path, err)
	}

	text := normalizePlainText(buf.String())
	if text == "" {
		return nil, fmt.Errorf("pdf %s contains no extractable text", doc.Path)
	}
	return p.chunker.ChunkText(doc.ID, text), nil
}

func normalizePlainText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
