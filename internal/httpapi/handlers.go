package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"NewsDesk/internal/domain"
)

type ingestResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Imported   int                 `json:"imported"`
	Skipped    int                 `json:"skipped"`
	Errors     int                 `json:"errors"`
	AIEnhanced int                 `json:"aiEnhanced"`
	Details    []domain.ItemStatus `json:"details"`
}

type failureResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type placementView struct {
	ArticleID string `json:"articleId"`
	Position  int    `json:"position"`
	Pinned    bool   `json:"pinned"`
}

type zoneView struct {
	Zone       string          `json:"zone"`
	Capacity   int             `json:"capacity"`
	Generation int64           `json:"generation"`
	Placements []placementView `json:"placements"`
}

type breakingView struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Link     string `json:"link"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.ingest(w, r, domain.Scope{})
}

func (s *Server) handleIngestCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	valid := s.runner.Categories()
	if category == "" || !slices.Contains(valid, category) {
		writeError(w, http.StatusBadRequest, "Invalid category. Valid categories: "+strings.Join(valid, ", "))
		return
	}
	s.ingest(w, r, domain.Scope{Category: category})
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, scope domain.Scope) {
	result, err := s.runner.Run(r.Context(), scope)
	if errors.Is(err, domain.ErrInvalidCategory) {
		writeError(w, http.StatusBadRequest, "Invalid category. Valid categories: "+strings.Join(s.runner.Categories(), ", "))
		return
	}
	if err != nil {
		id := uuid.NewString()
		s.logger.Error("ingestion run failed",
			zap.String("correlation_id", id),
			zap.String("category", scope.Category),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, failureResponse{Error: "ingestion run failed", CorrelationID: id})
		return
	}

	message := fmt.Sprintf("Imported %d articles", result.Imported)
	if scope.Category != "" {
		message = fmt.Sprintf("Imported %d articles into %s", result.Imported, scope.Category)
	}
	details := result.Details
	if details == nil {
		details = []domain.ItemStatus{}
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		Success:    true,
		Message:    message,
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
		AIEnhanced: result.AIEnhanced,
		Details:    details,
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	if s.zones == nil {
		writeError(w, http.StatusServiceUnavailable, "zone storage unavailable")
		return
	}
	page := r.PathValue("page")
	zones, err := s.zones.ListZones(r.Context(), page)
	if err != nil {
		s.internalError(w, "list zones failed", err)
		return
	}

	views := make([]zoneView, 0, len(zones))
	for _, z := range zones {
		placements, err := s.zones.ActivePlacements(r.Context(), z.ID)
		if err != nil {
			s.internalError(w, "load placements failed", err)
			return
		}
		view := zoneView{Zone: z.ZoneSlug, Capacity: z.Capacity, Generation: z.ActiveGeneration, Placements: make([]placementView, 0, len(placements))}
		for _, p := range placements {
			view.Placements = append(view.Placements, placementView{ArticleID: p.ArticleID, Position: p.Position, Pinned: p.IsPinned})
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page, "zones": views})
}

func (s *Server) handleBreaking(w http.ResponseWriter, r *http.Request) {
	if s.breaking == nil {
		writeError(w, http.StatusServiceUnavailable, "breaking news storage unavailable")
		return
	}
	news, err := s.breaking.ActiveBreakingNews(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No active breaking news")
		return
	}
	if err != nil {
		s.internalError(w, "load breaking news failed", err)
		return
	}
	writeJSON(w, http.StatusOK, breakingView{ID: news.ID, Headline: news.Headline, Link: news.Link})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	id := uuid.NewString()
	s.logger.Error(msg, zap.String("correlation_id", id), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, failureResponse{Error: msg, CorrelationID: id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
