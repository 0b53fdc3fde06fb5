package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/models"
	"property-matching-engine/internal/utils"
)

const maxUploadBytes = 10 << 20

type agentHandlerFunc func(w http.ResponseWriter, r *http.Request, agentID uuid.UUID)

type clientMatchRequest struct {
	ClientID uuid.UUID            `json:"client_id"`
	Options  *models.MatchOptions `json:"options,omitempty"`
}

type propertyMatchRequest struct {
	PropertyID uuid.UUID            `json:"property_id"`
	Options    *models.MatchOptions `json:"options,omitempty"`
}

type criteriaMatchRequest struct {
	Criteria *models.SearchCriteria `json:"criteria"`
	Options  *models.MatchOptions   `json:"options,omitempty"`
}

type uploadURLRequest struct {
	ExpiresInMinutes int `json:"expires_in_minutes"`
}

type availabilityRequest struct {
	AvailabilityStatus string `json:"availability_status"`
}

// ReportResponse points at a stored match report.
type ReportResponse struct {
	ReportURL    string    `json:"report_url"`
	Key          string    `json:"key"`
	ExpiresAt    time.Time `json:"expires_at"`
	TotalMatches int       `json:"total_matches"`
}

// withAgent resolves the calling agent before running next.
func (s *Server) withAgent(next agentHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := handlers.AgentIDFromHeaders(map[string]string{
			handlers.AgentIDHeader: r.Header.Get(handlers.AgentIDHeader),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, agentID)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Property Matching Engine API is running",
		Data:    s.health.Check(r.Context()),
	})
}

func (s *Server) propertiesForClientHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.matcher != nil, "matching") {
		return
	}

	var req clientMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ClientID == uuid.Nil {
		writeError(w, fmt.Errorf("%w: client_id is required", models.ErrInvalidRequest))
		return
	}

	s.runMatch(w, r, agentID, models.MatchRequest{ClientID: &req.ClientID, Options: req.Options}, s.config.MatchDefaults())
}

func (s *Server) clientsForPropertyHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.matcher != nil, "matching") {
		return
	}

	var req propertyMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PropertyID == uuid.Nil {
		writeError(w, fmt.Errorf("%w: property_id is required", models.ErrInvalidRequest))
		return
	}

	s.runMatch(w, r, agentID, models.MatchRequest{PropertyID: &req.PropertyID, Options: req.Options}, s.config.MatchDefaults())
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.matcher != nil, "matching") {
		return
	}

	var req criteriaMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.runMatch(w, r, agentID, models.MatchRequest{Criteria: req.Criteria, Options: req.Options}, s.config.MatchDefaults())
}

func (s *Server) quickMatchHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.matcher != nil, "matching") {
		return
	}

	var req models.MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.runMatch(w, r, agentID, req, s.config.QuickMatchDefaults())
}

func (s *Server) runMatch(w http.ResponseWriter, r *http.Request, agentID uuid.UUID, req models.MatchRequest, base models.MatchConfig) {
	resp, err := s.matcher.Match(r.Context(), agentID, req, base)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Found %d matches", resp.TotalMatches),
		Data:    resp,
	})
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) ||
		!s.available(w, s.matcher != nil, "matching") ||
		!s.available(w, s.reports != nil, "report storage") {
		return
	}

	var req models.MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	base := s.config.MatchDefaults()
	resp, err := s.matcher.Match(r.Context(), agentID, req, base)
	if err != nil {
		writeError(w, err)
		return
	}

	stored, err := s.reports.StoreMatchReport(r.Context(), &models.MatchReport{
		AgentID:     agentID,
		GeneratedAt: time.Now().UTC(),
		Request:     req,
		Config:      req.Options.Apply(base),
		Response:    resp,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Match report stored",
		Data: ReportResponse{
			ReportURL:    stored.URL,
			Key:          stored.Key,
			ExpiresAt:    stored.ExpiresAt,
			TotalMatches: resp.TotalMatches,
		},
	})
}

func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.notifier != nil, "digest") {
		return
	}

	var req propertyMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PropertyID == uuid.Nil {
		writeError(w, fmt.Errorf("%w: property_id is required", models.ErrInvalidRequest))
		return
	}

	result, err := s.notifier.NotifyAgent(r.Context(), agentID, req.PropertyID, req.Options.Apply(s.config.MatchDefaults()))
	if err != nil {
		writeError(w, err)
		return
	}

	message := "No matching clients, nothing sent"
	if result.Notified {
		message = fmt.Sprintf("Digest with %d matching clients sent", result.Listed)
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    result,
	})
}

func (s *Server) uploadURLHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.uploads != nil, "upload storage") {
		return
	}

	var req uploadURLRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ExpiresInMinutes < 0 {
		writeError(w, fmt.Errorf("%w: expires_in_minutes cannot be negative", models.ErrInvalidRequest))
		return
	}

	result, err := s.uploads.PresignListingUpload(r.Context(), agentID, req.ExpiresInMinutes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !allowMethod(w, r, http.MethodPost) || !s.available(w, s.importer != nil, "listing import") {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: failed to parse form: %v", models.ErrInvalidRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: no file provided", models.ErrInvalidRequest))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, fmt.Errorf("%w: only CSV files are allowed", models.ErrInvalidRequest))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read file: %w", err))
		return
	}

	result, err := s.importer.Import(r.Context(), agentID, content)
	if err != nil {
		writeJSON(w, handlers.StatusForError(err), Response{
			Success: false,
			Error:   err.Error(),
			Data:    result,
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: result.Message,
		Data:    result,
	})
}

func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !s.available(w, s.properties != nil, "properties") {
		return
	}

	propertyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid property id", models.ErrInvalidRequest))
		return
	}

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status := models.NormalizeAvailability(req.AvailabilityStatus)
	if err := s.properties.UpdateAvailability(r.Context(), agentID, propertyID, status); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Property marked %s", status),
	})
}

func (s *Server) saveCriteriaHandler(w http.ResponseWriter, r *http.Request, agentID uuid.UUID) {
	if !s.available(w, s.clients != nil, "clients") {
		return
	}

	clientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid client id", models.ErrInvalidRequest))
		return
	}

	var criteria models.SearchCriteria
	if err := decodeJSON(r, &criteria); err != nil {
		writeError(w, err)
		return
	}
	for i, t := range criteria.PropertyTypes {
		criteria.PropertyTypes[i] = models.NormalizePropertyType(string(t))
		if !criteria.PropertyTypes[i].IsValid() {
			writeError(w, fmt.Errorf("%w: unknown property type %q", models.ErrInvalidRequest, t))
			return
		}
	}

	client, err := s.clients.GetByID(r.Context(), agentID, clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	if client == nil {
		writeError(w, fmt.Errorf("%w: %s", models.ErrClientNotFound, clientID))
		return
	}

	if err := s.clients.SaveCriteria(r.Context(), clientID, &criteria); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Search criteria saved for %s", client.FullName()),
		Data:    criteria,
	})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) available(w http.ResponseWriter, ok bool, what string) bool {
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   what + " is not configured",
		})
	}
	return ok
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", models.ErrInvalidRequest, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := handlers.StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		utils.GetLogger().Error("Request failed", utils.Error(err))
		message = "Internal error"
	}

	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
