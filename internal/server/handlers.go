package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/models"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	var conv *models.Conversation
	if len(req.Messages) > 0 {
		for _, m := range req.Messages {
			if m.Role != models.RoleUser && m.Role != models.RoleAI {
				s.respondError(w, http.StatusBadRequest, "message role must be User or AI")
				return
			}
		}
		conv = models.NewConversation(id, req.Messages)
	} else {
		conv = models.ConversationFromText(id, req.Text)
	}
	if strings.TrimSpace(conv.FullText) == "" {
		s.respondError(w, http.StatusBadRequest, "text or messages is required")
		return
	}

	s.logger.Debug("analyze request", zap.String("id", id), zap.Int("messages", conv.MessageCount))
	record := s.analyzer.Analyze(r.Context(), conv)
	s.respondJSON(w, http.StatusOK, record)
}

type retrieveResponse struct {
	Query   string                  `json:"query"`
	Results []models.RetrievedChunk `json:"results"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req models.RetrieveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("retrieve request", zap.String("query", req.Query), zap.Int("k", req.K))
	results, err := s.guidelines.Retrieve(r.Context(), req.Query, req.K)
	if err != nil {
		s.logger.Error("retrieve failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, retrieveResponse{Query: req.Query, Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.guidelines.Status()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"guidelines": st,
		"llm": map[string]interface{}{
			"configured": s.llmProvider != "",
			"provider":   s.llmProvider,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
