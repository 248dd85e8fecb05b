// faqloader ingests the FAQ corpus into the search index.
// Reads a JSON document file, embeds question+answer pairs, and writes
// the documents with their vectors in batches.
//
// Usage:
//
//	faqloader -file data/documents.json -batch-size 50
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/claimsdesk/claimsdesk/internal/config"
	dbRedis "github.com/claimsdesk/claimsdesk/internal/db/redis"
	"github.com/claimsdesk/claimsdesk/internal/domain"
	logpkg "github.com/claimsdesk/claimsdesk/internal/logger"
	faqrepo "github.com/claimsdesk/claimsdesk/internal/repository/faq"
	openaiTransport "github.com/claimsdesk/claimsdesk/internal/transport/openai"
)

type flags struct {
	file      string
	batchSize int
}

func parseFlags() flags {
	f := flags{}
	flag.StringVar(&f.file, "file", "data/documents.json", "JSON file with FAQ documents")
	flag.IntVar(&f.batchSize, "batch-size", 50, "documents per write batch")
	flag.Parse()
	return f
}

func main() {
	_ = godotenv.Load()
	f := parseFlags()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, f); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	docs, err := readDocuments(f.file)
	if err != nil {
		return err
	}
	logger.Info("Loaded FAQ corpus", zap.String("file", f.file), zap.Int("documents", len(docs)))

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Search.Addrs,
		Password: cfg.Search.Password,
	})
	if err != nil {
		return fmt.Errorf("create search store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("search index not ready: %w", err)
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	repo := faqrepo.New(store, cfg.Search.IndexName, cfg.Search.KeyPrefix)
	if err := repo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	start := time.Now()
	loaded := 0
	for batchStart := 0; batchStart < len(docs); batchStart += f.batchSize {
		end := batchStart + f.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[batchStart:end]

		vectors := make([][]float32, len(batch))
		for i, doc := range batch {
			emb, err := embedder.Embed(ctx, doc.Question+" "+doc.Answer)
			if err != nil {
				return fmt.Errorf("embed document %s: %w", doc.ID, err)
			}
			vectors[i] = emb.Embedding
		}

		if err := repo.UpsertBatch(ctx, batch, vectors); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", batchStart, err)
		}
		loaded += len(batch)
		logger.Info("Batch loaded", zap.Int("loaded", loaded), zap.Int("total", len(docs)))
	}

	logger.Info("Ingest complete",
		zap.Int("documents", loaded),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

type documentJSON struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Section  string `json:"section"`
}

func readDocuments(path string) ([]domain.FAQDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var raw []documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	docs := make([]domain.FAQDocument, 0, len(raw))
	for i, d := range raw {
		if d.ID == "" {
			return nil, fmt.Errorf("document %d: missing id", i)
		}
		if d.Question == "" || d.Answer == "" {
			return nil, fmt.Errorf("document %s: question and answer are required", d.ID)
		}
		docs = append(docs, domain.FAQDocument{
			ID:       d.ID,
			Category: d.Category,
			Question: d.Question,
			Answer:   d.Answer,
			Section:  d.Section,
		})
	}
	return docs, nil
}
