package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	s3service "property-matching-engine/internal/services/s3"
	"property-matching-engine/internal/utils"
)

// ListingUploadPresigner issues upload URLs for listing files.
type ListingUploadPresigner interface {
	PresignListingUpload(ctx context.Context, agentID uuid.UUID, expiryMinutes int) (*s3service.PresignedURLResult, error)
}

// PresignedURLHandler handles requests for listing upload URLs.
type PresignedURLHandler struct {
	presigner ListingUploadPresigner
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(presigner ListingUploadPresigner) *PresignedURLHandler {
	return &PresignedURLHandler{presigner: presigner}
}

// Handle processes the API Gateway request for generating presigned URLs.
// The optional expires_in query parameter is in minutes.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := corsHeaders("GET,POST,OPTIONS")

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

	expiry := 0
	if v := request.QueryStringParameters["expires_in"]; v != "" {
		expiry, err = strconv.Atoi(v)
		if err != nil || expiry < 0 {
			return errorResponse(headers, http.StatusBadRequest, "expires_in must be a positive number of minutes")
		}
	}

	result, err := h.presigner.PresignListingUpload(ctx, agentID, expiry)
	if err != nil {
		logger.Error("Failed to generate presigned URL", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	return jsonResponse(headers, http.StatusOK, result)
}
