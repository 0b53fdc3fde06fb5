package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/digest"
	s3service "property-matching-engine/internal/services/s3"
)

var testAgentID = uuid.MustParse("0b9d6a4e-7c21-4f3e-8d55-2a6f1c9e4b70")

type fakeMatcher struct {
	req  models.MatchRequest
	base models.MatchConfig
	resp *models.MatchResponse
	err  error
}

func (f *fakeMatcher) Match(ctx context.Context, agentID uuid.UUID, req models.MatchRequest, base models.MatchConfig) (*models.MatchResponse, error) {
	f.req = req
	f.base = base
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &models.MatchResponse{Matches: []models.MatchResult{}, MatchThreshold: base.MatchThreshold}, nil
}

type fakeReports struct {
	report *models.MatchReport
}

func (f *fakeReports) StoreMatchReport(ctx context.Context, report *models.MatchReport) (*s3service.PresignedURLResult, error) {
	f.report = report
	return &s3service.PresignedURLResult{URL: "https://bucket/report", Key: "reports/x.json", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type fakePresigner struct {
	expiry int
}

func (f *fakePresigner) PresignListingUpload(ctx context.Context, agentID uuid.UUID, expiryMinutes int) (*s3service.PresignedURLResult, error) {
	f.expiry = expiryMinutes
	return &s3service.PresignedURLResult{URL: "https://bucket/upload", Key: s3service.ListingUploadKey(agentID)}, nil
}

type fakeImporter struct {
	content []byte
}

func (f *fakeImporter) Import(ctx context.Context, agentID uuid.UUID, content []byte) (*handlers.ListingImportResult, error) {
	f.content = content
	return &handlers.ListingImportResult{AgentID: agentID, Message: "Imported 1 listings", Inserted: 1}, nil
}

type fakeNotifier struct {
	cfg models.MatchConfig
}

func (f *fakeNotifier) NotifyAgent(ctx context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*digest.Result, error) {
	f.cfg = cfg
	return &digest.Result{PropertyID: propertyID, TotalMatches: 4, Listed: 2, Notified: true}, nil
}

type fakeClients struct {
	clients map[uuid.UUID]*models.Client
	saved   *models.SearchCriteria
}

func (f *fakeClients) GetByID(ctx context.Context, agentID, clientID uuid.UUID) (*models.Client, error) {
	return f.clients[clientID], nil
}

func (f *fakeClients) SaveCriteria(ctx context.Context, clientID uuid.UUID, c *models.SearchCriteria) error {
	f.saved = c
	return nil
}

type fakeProperties struct {
	status models.AvailabilityStatus
	err    error
}

func (f *fakeProperties) UpdateAvailability(ctx context.Context, agentID, propertyID uuid.UUID, status models.AvailabilityStatus) error {
	f.status = status
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		MatchThreshold:       models.DefaultMatchThreshold,
		MatchMaxResults:      models.DefaultMaxResults,
		QuickMatchMaxResults: models.QuickMatchMaxResults,
		PriceWeight:          models.DefaultPriceWeight,
		LocationWeight:       models.DefaultLocationWeight,
		AreaWeight:           models.DefaultAreaWeight,
		RoomWeight:           models.DefaultRoomWeight,
		FeatureWeight:        models.DefaultFeatureWeight,
		BudgetFlexibility:    true,
	}
}

func newTestServer() *Server {
	return &Server{
		health: handlers.NewHealthHandler(nil),
		config: testConfig(),
	}
}

func do(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(handlers.AgentIDHeader, testAgentID.String())

	return serve(t, s, req)
}

func serve(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	rec, resp := serve(t, newTestServer(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data.(map[string]interface{})["status"])
}

func TestMissingAgentHeader(t *testing.T) {
	s := newTestServer()
	s.matcher = &fakeMatcher{}

	req := httptest.NewRequest(http.MethodPost, "/api/matching/search", bytes.NewBufferString(`{}`))
	rec, resp := serve(t, s, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
}

func TestPropertiesForClient(t *testing.T) {
	s := newTestServer()
	matcher := &fakeMatcher{resp: &models.MatchResponse{TotalMatches: 3, Matches: []models.MatchResult{}}}
	s.matcher = matcher
	clientID := uuid.New()
	threshold := 80

	rec, resp := do(t, s, http.MethodPost, "/api/matching/properties-for-client", map[string]interface{}{
		"client_id": clientID,
		"options":   map[string]interface{}{"match_threshold": threshold},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Found 3 matches", resp.Message)
	require.NotNil(t, matcher.req.ClientID)
	assert.Equal(t, clientID, *matcher.req.ClientID)
	require.NotNil(t, matcher.req.Options)
	assert.Equal(t, threshold, *matcher.req.Options.MatchThreshold)
	assert.Equal(t, models.DefaultMaxResults, matcher.base.MaxResults)
}

func TestPropertiesForClient_MissingClientID(t *testing.T) {
	s := newTestServer()
	s.matcher = &fakeMatcher{}

	rec, resp := do(t, s, http.MethodPost, "/api/matching/properties-for-client", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "client_id is required")
}

func TestClientsForProperty(t *testing.T) {
	s := newTestServer()
	matcher := &fakeMatcher{}
	s.matcher = matcher
	propertyID := uuid.New()

	rec, _ := do(t, s, http.MethodPost, "/api/matching/clients-for-property", map[string]interface{}{"property_id": propertyID})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, matcher.req.PropertyID)
	assert.Equal(t, propertyID, *matcher.req.PropertyID)
}

func TestQuickMatchUsesQuickDefaults(t *testing.T) {
	s := newTestServer()
	matcher := &fakeMatcher{}
	s.matcher = matcher

	rec, _ := do(t, s, http.MethodPost, "/api/matching/quick", map[string]interface{}{
		"criteria": map[string]interface{}{"preferred_locations": []string{"Köln"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.QuickMatchMaxResults, matcher.base.MaxResults)
	require.NotNil(t, matcher.req.Criteria)
	assert.Equal(t, []string{"Köln"}, matcher.req.Criteria.PreferredLocations)
}

func TestMatchErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", fmt.Errorf("%w: %s", models.ErrClientNotFound, "x"), http.StatusNotFound, "client not found"},
		{"no criteria", models.ErrMissingCriteria, http.StatusUnprocessableEntity, "client has no search criteria"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.matcher = &fakeMatcher{err: tt.err}

			rec, resp := do(t, s, http.MethodPost, "/api/matching/search", map[string]interface{}{})

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, resp.Error, tt.message)
		})
	}
}

func TestMatchingMethodAndAvailability(t *testing.T) {
	s := newTestServer()

	rec, resp := do(t, s, http.MethodPost, "/api/matching/search", map[string]interface{}{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "matching is not configured", resp.Error)

	s.matcher = &fakeMatcher{}
	rec, _ = do(t, s, http.MethodGet, "/api/matching/search", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInvalidJSON(t *testing.T) {
	s := newTestServer()
	s.matcher = &fakeMatcher{}

	req := httptest.NewRequest(http.MethodPost, "/api/matching/search", bytes.NewBufferString("{"))
	req.Header.Set(handlers.AgentIDHeader, testAgentID.String())
	rec, resp := serve(t, s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "invalid JSON")
}

func TestReport(t *testing.T) {
	s := newTestServer()
	s.matcher = &fakeMatcher{resp: &models.MatchResponse{TotalMatches: 7}}
	reports := &fakeReports{}
	s.reports = reports
	maxResults := 5

	rec, resp := do(t, s, http.MethodPost, "/api/matching/report", map[string]interface{}{
		"criteria": map[string]interface{}{"min_area_sqm": 60},
		"options":  map[string]interface{}{"max_results": maxResults},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, reports.report)
	assert.Equal(t, testAgentID, reports.report.AgentID)
	assert.Equal(t, maxResults, reports.report.Config.MaxResults)
	assert.Equal(t, 7, reports.report.Response.TotalMatches)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://bucket/report", data["report_url"])
	assert.Equal(t, float64(7), data["total_matches"])
}

func TestNotify(t *testing.T) {
	s := newTestServer()
	notifier := &fakeNotifier{}
	s.notifier = notifier

	rec, resp := do(t, s, http.MethodPost, "/api/matching/notify", map[string]interface{}{"property_id": uuid.New()})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Digest with 2 matching clients sent", resp.Message)
	assert.Equal(t, models.DefaultMatchThreshold, notifier.cfg.MatchThreshold)

	rec, _ = do(t, s, http.MethodPost, "/api/matching/notify", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadURL(t *testing.T) {
	s := newTestServer()
	presigner := &fakePresigner{}
	s.uploads = presigner

	rec, resp := do(t, s, http.MethodPost, "/api/properties/upload-url", map[string]interface{}{"expires_in_minutes": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, presigner.expiry)
	assert.Equal(t, "https://bucket/upload", resp.Data.(map[string]interface{})["url"])

	rec, _ = do(t, s, http.MethodPost, "/api/properties/upload-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, presigner.expiry)

	rec, _ = do(t, s, http.MethodPost, "/api/properties/upload-url", map[string]interface{}{"expires_in_minutes": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/properties/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(handlers.AgentIDHeader, testAgentID.String())
	return req
}

func TestImport(t *testing.T) {
	s := newTestServer()
	importer := &fakeImporter{}
	s.importer = importer
	csv := "external_ref;title;city\nW-1;Altbau;Köln\n"

	rec, resp := serve(t, s, multipartRequest(t, "export.CSV", csv))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Imported 1 listings", resp.Message)
	assert.Equal(t, csv, string(importer.content))
}

func TestImport_RejectsNonCSV(t *testing.T) {
	s := newTestServer()
	s.importer = &fakeImporter{}

	rec, resp := serve(t, s, multipartRequest(t, "export.xlsx", "data"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "only CSV files are allowed")
}

func TestAvailability(t *testing.T) {
	s := newTestServer()
	properties := &fakeProperties{}
	s.properties = properties
	path := fmt.Sprintf("/api/properties/%s/availability", uuid.New())

	rec, resp := do(t, s, http.MethodPatch, path, map[string]string{"availability_status": "verkauft"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AvailabilitySold, properties.status)
	assert.Equal(t, "Property marked SOLD", resp.Message)

	properties.err = models.ErrInvalidAvailability
	rec, _ = do(t, s, http.MethodPatch, path, map[string]string{"availability_status": "demolished"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, http.MethodPatch, "/api/properties/not-a-uuid/availability", map[string]string{"availability_status": "sold"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveCriteria(t *testing.T) {
	clientID := uuid.New()
	clients := &fakeClients{clients: map[uuid.UUID]*models.Client{
		clientID: {ID: clientID, FirstName: "Lena", LastName: "Vogt"},
	}}
	s := newTestServer()
	s.clients = clients

	rec, resp := do(t, s, http.MethodPut, fmt.Sprintf("/api/clients/%s/criteria", clientID), map[string]interface{}{
		"max_budget":          "450000",
		"property_types":      []string{"wohnung"},
		"preferred_locations": []string{"Bonn"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Search criteria saved for Lena Vogt", resp.Message)
	require.NotNil(t, clients.saved)
	assert.Equal(t, []models.PropertyType{models.PropertyTypeApartment}, clients.saved.PropertyTypes)
	assert.Equal(t, "450000", clients.saved.MaxBudget.String())
}

func TestSaveCriteria_Errors(t *testing.T) {
	clientID := uuid.New()
	s := newTestServer()
	s.clients = &fakeClients{clients: map[uuid.UUID]*models.Client{clientID: {ID: clientID}}}

	rec, _ := do(t, s, http.MethodPut, fmt.Sprintf("/api/clients/%s/criteria", uuid.New()), map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp := do(t, s, http.MethodPut, fmt.Sprintf("/api/clients/%s/criteria", clientID), map[string]interface{}{
		"property_types": []string{"castle"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "unknown property type")
}
