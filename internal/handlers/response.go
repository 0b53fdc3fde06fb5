// Package handlers provides the Lambda handlers of the property matching engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/utils"
)

// AgentIDHeader carries the authenticated agent. It is set by the gateway
// in front of the service.
const AgentIDHeader = "X-Agent-ID"

// ErrMissingAgentID is returned when a request carries no usable agent ID.
var ErrMissingAgentID = errors.New("missing or invalid " + AgentIDHeader + " header")

// AgentIDFromHeaders reads the agent ID from request headers, ignoring case.
func AgentIDFromHeaders(headers map[string]string) (uuid.UUID, error) {
	for k, v := range headers {
		if strings.EqualFold(k, AgentIDHeader) {
			id, err := uuid.Parse(strings.TrimSpace(v))
			if err != nil || id == uuid.Nil {
				return uuid.Nil, ErrMissingAgentID
			}
			return id, nil
		}
	}
	return uuid.Nil, ErrMissingAgentID
}

// StatusForError maps service errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrMissingAgentID):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, models.ErrInvalidAvailability),
		errors.Is(err, utils.ErrEmptyCSV),
		errors.Is(err, utils.ErrMissingColumns),
		errors.Is(err, utils.ErrNoDataRows):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrMissingCriteria):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrClientNotFound),
		errors.Is(err, models.ErrPropertyNotFound),
		errors.Is(err, models.ErrAgentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// corsHeaders returns the headers sent with every API Gateway response.
func corsHeaders(methods string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization," + AgentIDHeader,
		"Access-Control-Allow-Methods": methods,
		"Content-Type":                 "application/json",
	}
}

// jsonResponse creates a response with v as JSON body.
func jsonResponse(headers map[string]string, statusCode int, v interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(headers, http.StatusInternalServerError, "Failed to encode response")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// serviceErrorResponse maps err to its status. Internal errors are logged
// and not echoed to the caller.
func serviceErrorResponse(headers map[string]string, err error) (events.APIGatewayProxyResponse, error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		utils.GetLogger().Error("Request failed", utils.Error(err))
		return errorResponse(headers, status, "Internal error")
	}
	return errorResponse(headers, status, err.Error())
}
