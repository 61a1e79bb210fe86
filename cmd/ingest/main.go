// Command ingest loads documents from a directory into the knowledge base.
// It shares the store and embedder configuration with the server via the
// environment, so chunks indexed here are immediately searchable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/neilh44/cryptobot/config"
	"github.com/neilh44/cryptobot/knowledge"
	"github.com/neilh44/cryptobot/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	dir := flag.String("dir", cfg.KBDataDir, "directory of documents to ingest")
	dbPath := flag.String("db", cfg.DBPath, "knowledge database path")
	chunkSize := flag.Int("chunk-size", cfg.ChunkSize, "characters per chunk")
	chunkOverlap := flag.Int("chunk-overlap", cfg.ChunkOverlap, "characters carried between chunks")
	reset := flag.Bool("reset", false, "clear the index before ingesting")
	flag.Parse()

	store, err := knowledge.OpenStore(*dbPath)
	if err != nil {
		return fmt.Errorf("open knowledge store: %w", err)
	}
	defer store.Close()

	var embedder knowledge.Embedder
	if cfg.Embedder == "openai" {
		embedder = knowledge.NewOpenAIEmbedder(func(o *knowledge.OpenAIEmbedderOptions) {
			o.APIKey = cfg.OpenAIAPIKey
		})
	} else {
		embedder = knowledge.NewHashEmbedder(0)
	}
	index := knowledge.NewIndex(store, embedder)

	count, err := knowledge.Ingest(context.Background(), index, *dir, knowledge.IngestOptions{
		ChunkSize:    *chunkSize,
		ChunkOverlap: *chunkOverlap,
		Reset:        *reset,
	})
	if err != nil {
		return err
	}

	total, err := index.Count(context.Background())
	if err != nil {
		return err
	}
	logger.Info("ingest.done", "directory", *dir, "chunks_added", count, "chunks_total", total)
	return nil
}
