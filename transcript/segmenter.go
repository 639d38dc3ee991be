// Package transcript parses WebVTT workshop transcripts into labeled,
// time-stamped segments.
package transcript

import (
	"bufio"
	"fmt"
	"iter"
	"regexp"
	"strings"
)

var (
	// 00:00:00.290 --> 00:00:01.350
	cuePattern = regexp.MustCompile(`^(\d+:\d{2}:\d{2}\.\d{3})\s+-->\s+(\d+:\d{2}:\d{2}\.\d{3})`)
	// All-caps directive blocks such as NOTE or STYLE, optionally "KEY: value".
	directivePattern = regexp.MustCompile(`^[A-Z]+(\s*:.*)?$`)
	// Numeric cue identifiers that some exporters emit before the timing line.
	cueIDPattern = regexp.MustCompile(`^\d+$`)
	// Leading "Speaker Name:" on a cue's first line.
	speakerPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z \-]*):`)
)

// Segment is one cue of a transcript: its time span, the speaker when one can
// be resolved from the text, and the spoken text (speaker prefix included).
type Segment struct {
	StartTime string
	EndTime   string
	Speaker   string
	Text      string
}

// ParseError marks a single malformed transcript document. Corpus ingestion
// skips the offending document and continues.
type ParseError struct {
	Document string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse transcript %s: %s", e.Document, e.Reason)
}

// Transcript is a parsed source document. Segments are decoded lazily from
// the retained content, so iteration is restartable.
type Transcript struct {
	document string
	content  string
}

// Parse validates that content is a usable VTT transcript for the named
// document. The check is shallow: the content must contain at least one cue
// timing line. Full decoding happens during iteration.
func Parse(document, content string) (*Transcript, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ParseError{Document: document, Reason: "empty document"}
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if cuePattern.MatchString(strings.TrimSpace(scanner.Text())) {
			return &Transcript{document: document, content: content}, nil
		}
	}

	return nil, &ParseError{Document: document, Reason: "no cue timings found"}
}

// Document returns the document identifier this transcript was parsed from.
func (t *Transcript) Document() string {
	return t.document
}

// Segments iterates the transcript's cues in document order. A cue opens at a
// timing line and collects text until the next timing line or end of input.
// Empty lines, the WEBVTT header, all-caps directive lines, and numeric cue
// identifiers are dropped and never open a segment.
func (t *Transcript) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		scanner := bufio.NewScanner(strings.NewReader(t.content))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var (
			open  bool
			cur   Segment
			lines []string
		)

		flush := func() bool {
			if !open {
				return true
			}
			open = false
			cur.Text = strings.TrimSpace(strings.Join(lines, " "))
			lines = lines[:0]
			if cur.Text == "" {
				return true
			}
			cur.Speaker = extractSpeaker(cur.Text)
			return yield(cur)
		}

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if match := cuePattern.FindStringSubmatch(line); match != nil {
				if !flush() {
					return
				}
				open = true
				cur = Segment{StartTime: match[1], EndTime: match[2]}
				continue
			}

			if line == "" || line == "WEBVTT" || cueIDPattern.MatchString(line) || directivePattern.MatchString(line) {
				continue
			}

			if open {
				lines = append(lines, line)
			}
		}

		flush()
	}
}

// PlainText returns the transcript content with all timing markers, headers,
// and directives stripped, cue texts joined by single spaces.
func (t *Transcript) PlainText() string {
	var sb strings.Builder
	for segment := range t.Segments() {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(segment.Text)
	}
	return sb.String()
}

func extractSpeaker(text string) string {
	if match := speakerPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return "Unknown"
}
