package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/digest"
	"property-matching-engine/internal/utils"
)

// DigestNotifier sends clients-for-property digests.
type DigestNotifier interface {
	NotifyAgent(ctx context.Context, agentID, propertyID uuid.UUID, cfg models.MatchConfig) (*digest.Result, error)
}

// MatchNotifyHandler handles requests to email an agent the clients matching
// one of their properties.
type MatchNotifyHandler struct {
	notifier DigestNotifier
	defaults models.MatchConfig
}

// NewMatchNotifyHandler creates a new match notify handler.
func NewMatchNotifyHandler(notifier DigestNotifier, defaults models.MatchConfig) *MatchNotifyHandler {
	return &MatchNotifyHandler{
		notifier: notifier,
		defaults: defaults,
	}
}

// NotifyRequest is the request body for a match digest.
type NotifyRequest struct {
	PropertyID uuid.UUID            `json:"property_id"`
	Options    *models.MatchOptions `json:"options,omitempty"`
}

// NotifyResponse is the response for a match digest request.
type NotifyResponse struct {
	Message string         `json:"message"`
	Result  *digest.Result `json:"result"`
}

// Handle processes API Gateway requests for match digests.
func (h *MatchNotifyHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := corsHeaders("POST,OPTIONS")

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	agentID, err := AgentIDFromHeaders(request.Headers)
	if err != nil {
		return serviceErrorResponse(headers, err)
	}

	var req NotifyRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}

	if req.PropertyID == uuid.Nil {
		return errorResponse(headers, http.StatusBadRequest, "Missing required field: property_id")
	}

	result, err := h.notifier.NotifyAgent(ctx, agentID, req.PropertyID, req.Options.Apply(h.defaults))
	if err != nil {
		logger.Warn("Match digest failed",
			utils.String("agentID", agentID.String()),
			utils.String("propertyID", req.PropertyID.String()),
			utils.Error(err))
		return serviceErrorResponse(headers, err)
	}

	message := "No matching clients, nothing sent"
	if result.Notified {
		message = fmt.Sprintf("Digest with %d matching clients sent", result.Listed)
	}

	return jsonResponse(headers, http.StatusOK, NotifyResponse{
		Message: message,
		Result:  result,
	})
}
