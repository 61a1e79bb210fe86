package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Status    string `json:"status"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ingestRequest struct {
	Directory    string `json:"directory,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	Reset        bool   `json:"reset,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: Version})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	sess, created := s.sessions.GetOrCreate(req.SessionID)
	if created {
		s.logger.Info("session.created", "session_id", sess.ID)
	}

	var answer string
	err := sess.Exchange(func() error {
		var procErr error
		answer, procErr = s.agent.Process(r.Context(), sess.Memory, req.Message)
		return procErr
	})
	if err != nil {
		// The agent already produced a user-facing apology; surface it with a
		// degraded status instead of an opaque 500.
		s.logger.Error("chat.failed", "session_id", sess.ID, "error", err)
		writeJSON(w, http.StatusOK, chatResponse{
			SessionID: sess.ID,
			Response:  answer,
			Status:    "degraded",
		})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sess.ID,
		Response:  answer,
		Status:    "success",
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge base is not configured")
		return
	}

	var req ingestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object")
			return
		}
	}
	dir := req.Directory
	if dir == "" {
		dir = s.kbDataDir
	}
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}
	chunkOverlap := req.ChunkOverlap
	if chunkOverlap <= 0 {
		chunkOverlap = s.chunkOverlap
	}

	// Ingestion can take minutes on large corpora, so it runs detached from
	// the request context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		count, err := s.ingest(ctx, dir, chunkSize, chunkOverlap, req.Reset)
		if err != nil {
			s.logger.Error("ingest.failed", "directory", dir, "error", err)
			return
		}
		s.logger.Info("ingest.done", "directory", dir, "chunks", count)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ingestion_started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
