package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/digest"
	s3service "property-matching-engine/internal/services/s3"
	"property-matching-engine/internal/utils"
)

var testAgentID = uuid.MustParse("6f1c2f9e-1d3a-4c55-9a4e-0b7d2f1e3a10")

func agentHeaders() map[string]string {
	return map[string]string{"x-agent-id": testAgentID.String()}
}

func decodeBody(t *testing.T, resp events.APIGatewayProxyResponse, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(resp.Body), v))
}

func TestAgentIDFromHeaders(t *testing.T) {
	id, err := AgentIDFromHeaders(map[string]string{"X-Agent-ID": testAgentID.String()})
	require.NoError(t, err)
	assert.Equal(t, testAgentID, id)

	id, err = AgentIDFromHeaders(agentHeaders())
	require.NoError(t, err)
	assert.Equal(t, testAgentID, id)

	for _, headers := range []map[string]string{
		nil,
		{"X-Agent-ID": "agent-7"},
		{"X-Agent-ID": uuid.Nil.String()},
	} {
		_, err := AgentIDFromHeaders(headers)
		assert.ErrorIs(t, err, ErrMissingAgentID)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrMissingAgentID, http.StatusUnauthorized},
		{fmt.Errorf("%w: criteria are required", models.ErrInvalidRequest), http.StatusBadRequest},
		{utils.ErrMissingColumns, http.StatusBadRequest},
		{models.ErrMissingCriteria, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: x", models.ErrClientNotFound), http.StatusNotFound},
		{models.ErrPropertyNotFound, http.StatusNotFound},
		{models.ErrAgentNotFound, http.StatusNotFound},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

type fakePinger struct{ err error }

func (f fakePinger) HealthCheck(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no database", nil, http.StatusOK, "not configured"},
		{"connected", fakePinger{}, http.StatusOK, "connected"},
		{"disconnected", fakePinger{err: errors.New("down")}, http.StatusServiceUnavailable, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewHealthHandler(tt.db).Handle(context.Background(), events.APIGatewayProxyRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body HealthResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, tt.wantDB, body.Database)
			assert.Equal(t, "property-matching-engine", body.Service)
		})
	}
}

type fakeNotifier struct {
	result   *digest.Result
	err      error
	gotAgent uuid.UUID
	gotCfg   models.MatchConfig
}

func (f *fakeNotifier) NotifyAgent(_ context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*digest.Result, error) {
	f.gotAgent = agentID
	f.gotCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	f.result.PropertyID = propertyID
	return f.result, nil
}

func TestMatchNotifyHandler(t *testing.T) {
	propertyID := uuid.New()
	validBody := fmt.Sprintf(`{"property_id":%q,"options":{"match_threshold":80}}`, propertyID)

	t.Run("sends digest with options applied", func(t *testing.T) {
		notifier := &fakeNotifier{result: &digest.Result{Notified: true, Listed: 3, TotalMatches: 4}}
		h := NewMatchNotifyHandler(notifier, models.DefaultMatchConfig())

		resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Headers:    agentHeaders(),
			Body:       validBody,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, testAgentID, notifier.gotAgent)
		assert.Equal(t, 80, notifier.gotCfg.MatchThreshold)
		assert.Equal(t, models.DefaultMaxResults, notifier.gotCfg.MaxResults)

		var body NotifyResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Digest with 3 matching clients sent", body.Message)
		assert.Equal(t, propertyID, body.Result.PropertyID)
	})

	t.Run("nothing to send", func(t *testing.T) {
		h := NewMatchNotifyHandler(&fakeNotifier{result: &digest.Result{}}, models.DefaultMatchConfig())

		resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Headers:    agentHeaders(),
			Body:       validBody,
		})
		require.NoError(t, err)

		var body NotifyResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "No matching clients, nothing sent", body.Message)
	})

	tests := []struct {
		name       string
		request    events.APIGatewayProxyRequest
		err        error
		wantStatus int
	}{
		{"preflight", events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions}, nil, http.StatusOK},
		{"missing agent", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: validBody}, nil, http.StatusUnauthorized},
		{"invalid json", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Headers: agentHeaders(), Body: "{"}, nil, http.StatusBadRequest},
		{"missing property", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Headers: agentHeaders(), Body: `{}`}, nil, http.StatusBadRequest},
		{"unknown property", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Headers: agentHeaders(), Body: validBody}, models.ErrPropertyNotFound, http.StatusNotFound},
		{"mail failure", events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Headers: agentHeaders(), Body: validBody}, errors.New("throttled"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMatchNotifyHandler(&fakeNotifier{result: &digest.Result{}, err: tt.err}, models.DefaultMatchConfig())
			resp, err := h.Handle(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

type fakeObjectStore struct {
	objects  map[string][]byte
	archived []string
}

func (f *fakeObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeObjectStore) Archive(_ context.Context, key string) error {
	f.archived = append(f.archived, key)
	return nil
}

type fakeListingWriter struct {
	stored []*models.PropertyCreate
}

func (f *fakeListingWriter) BulkUpsert(_ context.Context, properties []*models.PropertyCreate) (*models.BulkInsertResult, error) {
	f.stored = append(f.stored, properties...)
	return &models.BulkInsertResult{InsertedCount: len(properties), Errors: []string{}}, nil
}

func s3Event(keys ...string) events.S3Event {
	var event events.S3Event
	for _, key := range keys {
		var record events.S3EventRecord
		record.S3.Bucket.Name = "property-matching-dev"
		record.S3.Object.Key = key
		event.Records = append(event.Records, record)
	}
	return event
}

func TestListingImportHandler_Handle(t *testing.T) {
	goodKey := s3service.IncomingListingsPrefix + testAgentID.String() + "/good.csv"
	badKey := s3service.IncomingListingsPrefix + testAgentID.String() + "/bad.csv"

	store := &fakeObjectStore{objects: map[string][]byte{
		goodKey: []byte("Objektnummer;Titel;Ort;Preis\nW-1;Wohnung;Köln;350.000\nW-2;;Bonn;1\n"),
		badKey:  []byte("city,price\nBerlin,1\n"),
	}}
	writer := &fakeListingWriter{}
	h := NewListingImportHandler(store, writer)

	summary, err := h.Handle(context.Background(), s3Event(goodKey, badKey, "reports/other.json"))
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	good := summary.Files[0]
	assert.Equal(t, goodKey, good.Key)
	assert.Equal(t, testAgentID, good.AgentID)
	assert.Equal(t, 1, good.Inserted)
	assert.Equal(t, 1, good.Failed)
	require.Len(t, good.Errors, 1)
	assert.Contains(t, good.Errors[0], "line 3")

	bad := summary.Files[1]
	assert.Equal(t, "No valid listings found in CSV", bad.Message)
	assert.Zero(t, bad.Inserted)

	require.Len(t, writer.stored, 1)
	assert.Equal(t, "W-1", writer.stored[0].ExternalRef)
	assert.Equal(t, testAgentID, writer.stored[0].AgentID)
	assert.Equal(t, []string{goodKey}, store.archived)
}

func TestListingImportHandler_HandleEmptyEvent(t *testing.T) {
	h := NewListingImportHandler(&fakeObjectStore{}, &fakeListingWriter{})

	summary, err := h.Handle(context.Background(), events.S3Event{})
	require.NoError(t, err)
	assert.Equal(t, "No records to process", summary.Message)
}

func TestListingImportHandler_DownloadError(t *testing.T) {
	h := NewListingImportHandler(&fakeObjectStore{}, &fakeListingWriter{})
	key := s3service.IncomingListingsPrefix + testAgentID.String() + "/missing.csv"

	_, err := h.Handle(context.Background(), s3Event(key))
	assert.ErrorContains(t, err, "failed to download listing file")
}

func TestListingImportHandler_Import(t *testing.T) {
	h := NewListingImportHandler(nil, &fakeListingWriter{})

	result, err := h.Import(context.Background(), testAgentID, []byte("city\nBerlin\n"))
	assert.ErrorIs(t, err, utils.ErrMissingColumns)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Failed)

	result, err = h.Import(context.Background(), testAgentID, []byte("id,title,plz\nA-1,Loft,10115\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Failed)
}

func TestLimitErrors(t *testing.T) {
	errs := make([]string, 25)
	assert.Len(t, limitErrors(errs), maxReportedErrors)
	assert.Len(t, limitErrors(errs[:3]), 3)
}

type fakePresigner struct {
	gotExpiry int
}

func (f *fakePresigner) PresignListingUpload(_ context.Context, agentID uuid.UUID, expiryMinutes int) (*s3service.PresignedURLResult, error) {
	f.gotExpiry = expiryMinutes
	return &s3service.PresignedURLResult{
		URL:       "https://bucket.example.com/upload",
		Key:       s3service.ListingUploadKey(agentID),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func TestPresignedURLHandler(t *testing.T) {
	presigner := &fakePresigner{}
	h := NewPresignedURLHandler(presigner)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Headers:               agentHeaders(),
		QueryStringParameters: map[string]string{"expires_in": "30"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 30, presigner.gotExpiry)

	var body s3service.PresignedURLResult
	decodeBody(t, resp, &body)
	agentID, err := s3service.AgentFromListingKey(body.Key)
	require.NoError(t, err)
	assert.Equal(t, testAgentID, agentID)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Headers:               agentHeaders(),
		QueryStringParameters: map[string]string{"expires_in": "soon"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
