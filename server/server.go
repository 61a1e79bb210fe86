// Package server exposes the HTTP surface: chat, health and knowledge-base
// ingestion endpoints on a chi router.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neilh44/cryptobot/memory"
	"github.com/neilh44/cryptobot/session"
)

// Version reported by /health.
const Version = "1.0.0"

// Agent is the slice of the conversation loop the HTTP layer needs.
type Agent interface {
	Process(ctx context.Context, mem *memory.Window, userText string) (string, error)
}

// IngestFunc runs a knowledge-base ingestion and returns the chunk count.
type IngestFunc func(ctx context.Context, dir string, chunkSize, chunkOverlap int, reset bool) (int, error)

// Options configure the HTTP server.
type Options struct {
	KBDataDir    string // default ingestion directory
	ChunkSize    int
	ChunkOverlap int
	Logger       *slog.Logger
}

// Server wires the handlers to their collaborators.
type Server struct {
	agent    Agent
	sessions *session.Store
	ingest   IngestFunc

	kbDataDir    string
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// New creates a Server. ingest may be nil, in which case the ingestion
// endpoint reports the knowledge base as unavailable.
func New(agent Agent, sessions *session.Store, ingest IngestFunc, optFns ...func(o *Options)) *Server {
	opts := Options{
		KBDataDir:    "./data/knowledge_base",
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Logger:       slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		agent:        agent,
		sessions:     sessions,
		ingest:       ingest,
		kbDataDir:    opts.KBDataDir,
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		logger:       opts.Logger,
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/knowledge-base/ingest", s.handleIngest)

	return r
}
