package corpus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/transcript"
)

const defaultPoolSize = 4

// Indexer is the slice of the index adapter the ingestion service needs.
type Indexer interface {
	AddDocument(ctx context.Context, documentID string, chunks []chunking.Chunk) (int, error)
}

// DocumentStatus reports the outcome of ingesting one document. Indexed is 0
// when the document was already present or failed.
type DocumentStatus struct {
	ID      string
	Path    string
	Indexed int
	Skipped bool
	Err     error
}

// Report summarizes one ingestion run.
type Report struct {
	Documents []DocumentStatus
}

// Indexed is the total number of newly indexed chunks.
func (r Report) Indexed() int {
	var total int
	for _, doc := range r.Documents {
		total += doc.Indexed
	}
	return total
}

// Failed lists the documents that could not be ingested.
func (r Report) Failed() []DocumentStatus {
	var failed []DocumentStatus
	for _, doc := range r.Documents {
		if doc.Err != nil {
			failed = append(failed, doc)
		}
	}
	return failed
}

// Service ingests a transcript corpus: list documents, parse each into
// chunks, index them. Documents are processed concurrently on a worker pool;
// a malformed document is reported and skipped, never fatal to the run.
type Service struct {
	source   DocumentSource
	chunker  *chunking.Chunker
	indexer  Indexer
	poolSize int
	logger   *log.Logger
}

func NewService(source DocumentSource, chunker *chunking.Chunker, indexer Indexer, poolSize int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if poolSize < 1 {
		poolSize = defaultPoolSize
	}
	return &Service{
		source:   source,
		chunker:  chunker,
		indexer:  indexer,
		poolSize: poolSize,
		logger:   logger,
	}
}

// IngestAll discovers and ingests every document the source lists. The
// returned report has one entry per document in listing order.
func (s *Service) IngestAll(ctx context.Context) (Report, error) {
	documents, err := s.source.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list documents: %w", err)
	}
	if len(documents) == 0 {
		s.logger.Printf("no transcripts found")
		return Report{}, nil
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		statuses = make([]DocumentStatus, len(documents))
	)
	for i, doc := range documents {
		i, doc := i, doc
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			statuses[i] = s.ingestDocument(ctx, doc)
		})
		if submitErr != nil {
			wg.Done()
			statuses[i] = DocumentStatus{ID: doc.ID, Path: doc.Path, Err: submitErr}
		}
	}
	wg.Wait()

	report := Report{Documents: statuses}
	s.logger.Printf("ingestion complete: %d documents, %d new chunks, %d failures",
		len(documents), report.Indexed(), len(report.Failed()))
	return report, nil
}

func (s *Service) ingestDocument(ctx context.Context, doc Document) DocumentStatus {
	status := DocumentStatus{ID: doc.ID, Path: doc.Path}

	data, err := s.source.Read(ctx, doc)
	if err != nil {
		status.Err = err
		return status
	}

	parser, err := ParserFor(doc.Format, s.chunker)
	if err != nil {
		status.Err = err
		return status
	}

	chunks, err := parser.Parse(doc, data)
	if err != nil {
		var parseErr *transcript.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Printf("skipping malformed transcript %s: %v", doc.Path, err)
		} else {
			s.logger.Printf("parse failed for %s: %v", doc.Path, err)
		}
		status.Err = err
		return status
	}
	if len(chunks) == 0 {
		s.logger.Printf("skip empty document %s", doc.Path)
		status.Skipped = true
		return status
	}

	indexed, err := s.indexer.AddDocument(ctx, doc.ID, chunks)
	if err != nil {
		status.Err = err
		return status
	}
	if indexed == 0 {
		status.Skipped = true
		s.logger.Printf("document %s unchanged, nothing indexed", doc.ID)
		return status
	}

	status.Indexed = indexed
	s.logger.Printf("indexed %d chunks for %s", indexed, doc.ID)
	return status
}
