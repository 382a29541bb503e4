package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/siftd/sift/internal/cache"
	"github.com/siftd/sift/internal/jobs"
	"github.com/siftd/sift/internal/models"
	"github.com/siftd/sift/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("k_final", query.KFinal))

	key := cache.Fingerprint(&query)
	if s.results != nil && !query.NoCache {
		if cached, ok := s.results.Get(r.Context(), key); ok {
			cached.Cached = true
			s.respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.optimizer != nil {
		response.Hits = s.optimizer.Optimize(response.Hits, query.MaxTokens, query.PreserveTopN)
		response.Total = len(response.Hits)
		tokens := 0
		for _, hit := range response.Hits {
			tokens += hit.Chunk.Tokens
		}
		response.Tokens = tokens
	}
	if s.results != nil && !query.NoCache {
		s.results.Set(r.Context(), key, response)
	}
	s.respondJSON(w, http.StatusOK, response)
}

type submitJobRequest struct {
	Type   models.JobType       `json:"type"`
	Events []models.ChangeEvent `json:"events"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = models.JobIncremental
	}
	if req.Type != models.JobIncremental && req.Type != models.JobFull {
		s.respondError(w, http.StatusBadRequest, "unknown job type")
		return
	}
	if len(req.Events) == 0 {
		s.respondError(w, http.StatusBadRequest, "events are required")
		return
	}
	// The job outlives this request; detach it from the request context.
	jobID := s.queue.Submit(context.Background(), req.Events, req.Type)
	s.logger.Debug("job submitted", zap.String("job_id", jobID), zap.Int("events", len(req.Events)))
	s.respondJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": string(models.JobPending)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.queue.GetStatus(id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cancelled, err := s.queue.Cancel(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if !cancelled {
		s.respondError(w, http.StatusConflict, "job already started")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": string(models.JobCancelled)})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	recent := s.queue.ListRecent(0)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": recent, "total": len(recent)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileCount, err := s.storage.CountFiles(ctx)
	if err != nil {
		s.logger.Error("status: count files failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"files":             fileCount,
		"chunks":            chunkCount,
		"vector_index_size": s.engine.VectorIndexSize(),
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"code_tokens":          s.config.Chunk.CodeTokens,
			"text_tokens":          s.config.Chunk.TextTokens,
			"overlap_tokens":       s.config.Chunk.OverlapTokens,
			"database_path":        s.config.Storage.DatabasePath,
			"bleve_index_path":     s.config.Storage.BleveIndexPath,
			"vector_index_path":    s.config.Storage.VectorIndexPath,
			"cache_backend":        s.config.Cache.Backend,
			"jobs_executor":        s.config.Jobs.Executor,
		}
		diskBytes, err := storage.DiskUsageBytes(
			s.config.Storage.DatabasePath,
			s.config.Storage.BleveIndexPath,
			s.config.Storage.VectorIndexPath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
