package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/llmsdlc/workshop-qa/catalog"
	"github.com/llmsdlc/workshop-qa/chunking"
	"github.com/llmsdlc/workshop-qa/config"
	"github.com/llmsdlc/workshop-qa/corpus"
	"github.com/llmsdlc/workshop-qa/database"
	"github.com/llmsdlc/workshop-qa/embeddings"
	"github.com/llmsdlc/workshop-qa/index"
	"github.com/llmsdlc/workshop-qa/llm"
	"github.com/llmsdlc/workshop-qa/qa"
	"github.com/llmsdlc/workshop-qa/routing"
	"github.com/llmsdlc/workshop-qa/tokens"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "route":
		routeCmd(cfg, logger, os.Args[2:])
	case "status":
		statusCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: workshop-qa <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ingest   parse and index workshop transcripts")
	fmt.Println("  ask      answer a question about the workshops")
	fmt.Println("  route    show which workshops a question routes to")
	fmt.Println("  status   show indexed chunk counts per workshop")
	fmt.Println("  clear    delete all indexed chunks")
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing workshop transcripts")
	workers := flags.Int("workers", 4, "number of documents to ingest concurrently")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPostgres(ctx, cfg, logger)
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		logger.Fatalf("ensure schema: %v", err)
	}

	adapter := mustAdapter(cfg, pool, logger)
	chunker := chunking.New(tokens.NewCounter(), chunking.Params{
		TargetTokens: cfg.Chunking.TargetTokens,
		OverlapUnits: cfg.Chunking.OverlapUnits,
		MinTokens:    cfg.Chunking.MinTokens,
	})
	svc := corpus.NewService(corpus.NewFSSource(*dataDir), chunker, adapter, *workers, logger)

	logger.Printf("ingesting transcripts from %s using %s/%s embeddings", *dataDir,
		strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	report, err := svc.IngestAll(ctx)
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}

	for _, doc := range report.Documents {
		switch {
		case doc.Err != nil:
			fmt.Printf("%-6s FAILED  %s: %v\n", doc.ID, doc.Path, doc.Err)
		case doc.Skipped:
			fmt.Printf("%-6s skipped %s\n", doc.ID, doc.Path)
		default:
			fmt.Printf("%-6s indexed %d chunks from %s\n", doc.ID, doc.Indexed, doc.Path)
		}
	}
	if failed := report.Failed(); len(failed) > 0 {
		os.Exit(1)
	}
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to answer")
	contextOnly := flags.Bool("context-only", false, "print the assembled context instead of generating an answer")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPostgres(ctx, cfg, logger)
	defer pool.Close()

	adapter := mustAdapter(cfg, pool, logger)
	cat := catalog.Default()
	counter := tokens.NewCounter()

	routerClient, err := llm.NewRouterClient(cfg)
	if err != nil {
		logger.Printf("fallback router unavailable: %v", err)
		routerClient = nil
	}
	router := routing.New(cat, routerClient, cfg.Retrieval.MaxDocuments, logger)

	svc := qa.NewService(
		qa.NewMetaClassifier(),
		qa.NewMetaAnswerer(cat),
		routerBridge{router: router},
		qa.NewAssembler(adapter, counter, logger),
		qa.BudgetForModel(cfg.LLM.Model, cfg.Retrieval.ReservedTokens),
		cfg.Retrieval.ChunksPerDocument,
		logger,
	)

	result, err := svc.Answer(ctx, *question)
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}

	if !result.Success {
		switch result.Reason {
		case qa.ReasonNoRelevantDocument:
			fmt.Println("No workshop seems to cover that question. Try rephrasing, or ask about the course itself.")
		case qa.ReasonNoChunks:
			fmt.Printf("No transcript content found for %s. Has the corpus been ingested?\n", strings.Join(result.Documents, ", "))
		default:
			fmt.Println("Could not answer the question.")
		}
		return
	}

	if result.Origin == qa.OriginMetadata {
		fmt.Println(result.Answer)
		return
	}

	if *contextOnly {
		fmt.Println(result.Context)
		printSources(result.Sources)
		return
	}

	client, err := llm.New(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	answer, err := client.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: generationSystemPrompt(cat)},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Workshop Content:\n%s\n\nQuestion: %s", result.Context, *question)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		logger.Fatalf("generate answer: %v", err)
	}

	fmt.Println(answer)
	printSources(result.Sources)
}

func generationSystemPrompt(cat *catalog.Catalog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a helpful assistant for the course %q. ", cat.CourseTitle)
	sb.WriteString("Answer the user's question using only the provided workshop transcript content. ")
	sb.WriteString("If the content does not cover the question, say so. The workshops are:\n")
	for _, workshop := range cat.Workshops {
		fmt.Fprintf(&sb, "%s: %s\n", workshop.ID, workshop.Title)
	}
	return sb.String()
}

func printSources(sources []qa.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for idx, source := range sources {
		fmt.Printf("%d. %s chunk %d", idx+1, source.DocumentID, source.Position)
		if source.Timestamp != "" && source.Timestamp != "Unknown" {
			fmt.Printf(" at %s", source.Timestamp)
		}
		if source.Speaker != "" && source.Speaker != "Unknown" {
			fmt.Printf(" (%s)", source.Speaker)
		}
		fmt.Println()
	}
}

func routeCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("route", flag.ExitOnError)
	question := flags.String("question", "", "question to route")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse route flags: %v", err)
	}
	if strings.TrimSpace(*question) == "" {
		logger.Fatal("route requires -question")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	routerClient, err := llm.NewRouterClient(cfg)
	if err != nil {
		logger.Printf("fallback router unavailable: %v", err)
		routerClient = nil
	}
	router := routing.New(catalog.Default(), routerClient, cfg.Retrieval.MaxDocuments, logger)

	decision, err := router.Route(ctx, *question)
	if err != nil {
		logger.Fatalf("route failed: %v", err)
	}

	if len(decision.DocumentIDs) == 0 {
		fmt.Printf("no relevant workshops (method: %s)\n", decision.Method)
		return
	}
	fmt.Printf("%s (method: %s)\n", strings.Join(decision.DocumentIDs, ", "), decision.Method)
}

func statusCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse status flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPostgres(ctx, cfg, logger)
	defer pool.Close()

	store := index.NewPostgresStore(pool)
	total, err := store.Count(ctx)
	if err != nil {
		logger.Fatalf("count chunks: %v", err)
	}

	for _, workshop := range catalog.Default().Workshops {
		count, err := store.CountWhere(ctx, workshop.ID)
		if err != nil {
			logger.Fatalf("count chunks for %s: %v", workshop.ID, err)
		}
		fmt.Printf("%-6s %4d chunks  %s\n", workshop.ID, count, workshop.Title)
	}
	fmt.Printf("total  %4d chunks\n", total)
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all indexed transcript chunks. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool := mustPostgres(ctx, cfg, logger)
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE transcript_chunks"); err != nil {
		logger.Fatalf("clear chunks: %v", err)
	}
	logger.Println("cleared all indexed chunks")
}

func mustPostgres(ctx context.Context, cfg config.Config, logger *log.Logger) *pgxpool.Pool {
	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	return pool
}

func mustAdapter(cfg config.Config, pool *pgxpool.Pool, logger *log.Logger) *index.Adapter {
	embedder, err := embeddings.New(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}
	return index.NewAdapter(embedder, index.NewPostgresStore(pool), tokens.NewCounter(), cfg.Embeddings.TokenCap, logger)
}

// routerBridge adapts the routing package's decision type to the qa
// orchestrator's.
type routerBridge struct {
	router *routing.Router
}

func (b routerBridge) Route(ctx context.Context, question string) (qa.RoutingDecision, error) {
	decision, err := b.router.Route(ctx, question)
	if err != nil {
		return qa.RoutingDecision{}, err
	}
	return qa.RoutingDecision{DocumentIDs: decision.DocumentIDs, Method: decision.Method}, nil
}
