package ses

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-matching-engine/internal/models"
)

func digestFixture() MatchDigestParams {
	return MatchDigestParams{
		AgentName:     "Petra Lang",
		AgentEmail:    "petra@example.com",
		PropertyTitle: "3-Zimmer-Wohnung am Park",
		PropertyPlace: "80331 München",
		MatchCount:    2,
		TopClients: []ClientMatchInfo{
			{Name: "Anna Huber", Email: "anna@example.com", Score: 96, Reasons: []string{"In München"}},
			{Name: "Jonas <Weber>", Phone: "+49 89 1234", Score: 81},
		},
		DashboardURL: "https://crm.example.com/properties",
	}
}

func TestRenderMatchDigestHTML(t *testing.T) {
	html, err := RenderMatchDigestHTML(digestFixture())
	require.NoError(t, err)

	assert.Contains(t, html, "3-Zimmer-Wohnung am Park")
	assert.Contains(t, html, "Anna Huber")
	assert.Contains(t, html, "96%")
	assert.Contains(t, html, "<li>In München</li>")
	assert.Contains(t, html, "Jonas &lt;Weber&gt;")
	assert.Contains(t, html, `href="https://crm.example.com/properties"`)
}

func TestRenderMatchDigestText(t *testing.T) {
	text := RenderMatchDigestText(digestFixture())

	assert.Contains(t, text, "2 of your clients match 3-Zimmer-Wohnung am Park (80331 München).")
	assert.Contains(t, text, "1. Anna Huber - 96%")
	assert.Contains(t, text, "   Email: anna@example.com")
	assert.Contains(t, text, "2. Jonas <Weber> - 81%")
	assert.Contains(t, text, "   Phone: +49 89 1234")
	assert.True(t, strings.HasSuffix(text, "Open dashboard: https://crm.example.com/properties\n\n"))
}

func TestMatchDigestSubject(t *testing.T) {
	params := digestFixture()
	assert.Equal(t, "2 clients match 3-Zimmer-Wohnung am Park", MatchDigestSubject(params))

	params.MatchCount = 1
	assert.Equal(t, "1 client matches 3-Zimmer-Wohnung am Park", MatchDigestSubject(params))
}

func TestBuildMatchDigestParams(t *testing.T) {
	anna, jonas, mia := uuid.New(), uuid.New(), uuid.New()
	resp := &models.MatchResponse{
		TotalMatches: 3,
		Matches: []models.MatchResult{
			{CandidateID: anna, CandidateName: "Anna Huber", OverallScore: 96, MatchReasons: []string{"In München"}},
			{CandidateID: jonas, CandidateName: "Jonas Weber", OverallScore: 81},
			{CandidateID: mia, CandidateName: "Mia Koch", OverallScore: 74},
		},
	}
	clients := map[uuid.UUID]*models.Client{
		anna: {ID: anna, Email: "anna@example.com", Phone: "0171"},
	}
	agent := &models.Agent{Name: "Petra Lang", Email: "petra@example.com"}
	property := &models.Property{Title: "Wohnung", City: "München", PostalCode: "80331"}

	params := BuildMatchDigestParams(agent, property, resp, clients, 2, "")

	assert.Equal(t, "petra@example.com", params.AgentEmail)
	assert.Equal(t, "80331 München", params.PropertyPlace)
	assert.Equal(t, 3, params.MatchCount)
	require.Len(t, params.TopClients, 2)
	assert.Equal(t, "anna@example.com", params.TopClients[0].Email)
	assert.Equal(t, "0171", params.TopClients[0].Phone)
	assert.Empty(t, params.TopClients[1].Email)

	all := BuildMatchDigestParams(agent, &models.Property{Title: "Haus"}, resp, nil, 0, "")
	assert.Len(t, all.TopClients, 3)
	assert.Empty(t, all.PropertyPlace)
}
