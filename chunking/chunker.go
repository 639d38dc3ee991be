// Package chunking turns transcript content into token-bounded chunks ready
// for embedding. Chunk boundaries are a pure function of the input content and
// the chunker parameters, which is what makes re-ingestion checks reliable.
package chunking

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/llmsdlc/workshop-qa/tokens"
	"github.com/llmsdlc/workshop-qa/transcript"
)

const (
	DefaultTargetTokens = 500
	DefaultMinTokens    = 15

	unitJoiner = "\n\n"
)

var (
	sentencePattern  = regexp.MustCompile(`[^.!?]+[.!?]*\s*`)
	paragraphPattern = regexp.MustCompile(`\n\s*\n`)
)

// Chunk is a token-bounded, independently embeddable unit of transcript text.
type Chunk struct {
	// ID is unique within the corpus; the index prefixes it with the
	// document id on upsert.
	ID         string
	DocumentID string
	// Position is the chunk's sequence index within its document,
	// contiguous from 0.
	Position   int
	Text       string
	TokenCount int
	// Timestamp and Speaker come from the segment covering the chunk's
	// start; both are "Unknown" when no segment timing is available.
	Timestamp string
	Speaker   string
}

// Params controls chunk sizing.
type Params struct {
	// TargetTokens is the soft per-chunk size T. No produced chunk's units
	// sum above it; oversized units are split recursively first.
	TargetTokens int
	// OverlapUnits seeds each new chunk with the trailing N units of the
	// previous chunk.
	OverlapUnits int
	// MinTokens discards near-empty chunks below this floor.
	MinTokens int
}

func (p Params) withDefaults() Params {
	if p.TargetTokens <= 0 {
		p.TargetTokens = DefaultTargetTokens
	}
	if p.MinTokens < 0 {
		p.MinTokens = DefaultMinTokens
	}
	if p.OverlapUnits < 0 {
		p.OverlapUnits = 0
	}
	return p
}

type Chunker struct {
	counter tokens.Counter
	params  Params
}

func New(counter tokens.Counter, params Params) *Chunker {
	return &Chunker{counter: counter, params: params.withDefaults()}
}

// unit is an atomic piece of content: a speaker turn, paragraph, sentence, or
// word group. Units are included in a chunk whole or not at all.
type unit struct {
	text       string
	tokenCount int
	timestamp  string
	speaker    string
}

// ChunkSegments chunks a segmented transcript. Each cue is an atomic unit, so
// chunk boundaries fall on speaker turns and every chunk inherits the
// timestamp and speaker of the segment at its start.
func (c *Chunker) ChunkSegments(documentID string, segments []transcript.Segment) []Chunk {
	units := make([]unit, 0, len(segments))
	for _, segment := range segments {
		for _, u := range c.splitToTarget(segment.Text) {
			u.timestamp = segment.StartTime
			u.speaker = segment.Speaker
			units = append(units, u)
		}
	}
	return c.assemble(documentID, units)
}

// ChunkText chunks flattened plain text with no timing information.
// Paragraph boundaries are preferred; a text without them falls back to
// sentence units.
func (c *Chunker) ChunkText(documentID, text string) []Chunk {
	paragraphs := splitParagraphs(text)
	units := make([]unit, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		units = append(units, c.splitToTarget(paragraph)...)
	}
	return c.assemble(documentID, units)
}

// assemble greedily accumulates units into chunks of at most TargetTokens,
// seeds overlap, drops sub-floor chunks, and assigns contiguous positions.
func (c *Chunker) assemble(documentID string, units []unit) []Chunk {
	var (
		chunks   []Chunk
		buffer   []unit
		buffered int
	)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		texts := make([]string, len(buffer))
		for i, u := range buffer {
			texts[i] = u.text
		}
		text := strings.Join(texts, unitJoiner)
		chunks = append(chunks, Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Text:       text,
			TokenCount: c.counter.Count(text),
			Timestamp:  firstNonEmpty(buffer, func(u unit) string { return u.timestamp }),
			Speaker:    firstNonEmpty(buffer, func(u unit) string { return u.speaker }),
		})
	}

	for _, u := range units {
		if u.text == "" || u.tokenCount == 0 {
			continue
		}
		if buffered+u.tokenCount > c.params.TargetTokens && len(buffer) > 0 {
			flush()
			overlap := c.params.OverlapUnits
			if overlap > len(buffer) {
				overlap = len(buffer)
			}
			seed := buffer[len(buffer)-overlap:]
			buffer = append([]unit(nil), seed...)
			buffered = 0
			for _, s := range seed {
				buffered += s.tokenCount
			}
		}
		buffer = append(buffer, u)
		buffered += u.tokenCount
	}
	flush()

	kept := chunks[:0]
	for _, chunk := range chunks {
		if chunk.TokenCount < c.params.MinTokens {
			continue
		}
		chunk.Position = len(kept)
		kept = append(kept, chunk)
	}
	return kept
}

// splitToTarget breaks a unit that exceeds TargetTokens, first by sentence,
// then by whitespace-delimited word groups, so that every returned unit fits.
func (c *Chunker) splitToTarget(text string) []unit {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	count := c.counter.Count(text)
	if count <= c.params.TargetTokens {
		return []unit{{text: text, tokenCount: count}}
	}

	sentences := splitSentences(text)
	if len(sentences) > 1 {
		var units []unit
		for _, sentence := range sentences {
			units = append(units, c.splitToTarget(sentence)...)
		}
		return units
	}

	var units []unit
	for _, group := range splitWordGroups(text, c.params.TargetTokens, c.counter) {
		units = append(units, unit{text: group, tokenCount: c.counter.Count(group)})
	}
	return units
}

// SplitToFit splits text into pieces whose token count does not exceed
// maxTokens, by sentence and then by word group. The index adapter uses it to
// respect the embedding service's input cap, averaging the piece embeddings.
func SplitToFit(text string, maxTokens int, counter tokens.Counter) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if counter.Count(text) <= maxTokens {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) > 1 {
		var parts []string
		for _, sentence := range sentences {
			parts = append(parts, SplitToFit(sentence, maxTokens, counter)...)
		}
		return parts
	}
	return splitWordGroups(text, maxTokens, counter)
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := paragraphPattern.Split(text, -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func splitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			sentences = append(sentences, m)
		}
	}
	if len(sentences) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return sentences
}

// splitWordGroups greedily packs whitespace-delimited words into groups that
// stay under maxTokens. A single word never splits further.
func splitWordGroups(text string, maxTokens int, counter tokens.Counter) []string {
	words := strings.Fields(text)
	var (
		groups  []string
		current []string
		count   int
	)
	for _, word := range words {
		wordTokens := counter.Count(word)
		if count+wordTokens > maxTokens && len(current) > 0 {
			groups = append(groups, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
		current = append(current, word)
		count += wordTokens
	}
	if len(current) > 0 {
		groups = append(groups, strings.Join(current, " "))
	}
	return groups
}

func firstNonEmpty(units []unit, get func(unit) string) string {
	for _, u := range units {
		if v := get(u); v != "" {
			return v
		}
	}
	return "Unknown"
}
