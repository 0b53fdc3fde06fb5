package handlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"property-matching-engine/internal/models"
	s3service "property-matching-engine/internal/services/s3"
	"property-matching-engine/internal/utils"
)

const maxReportedErrors = 10

// ListingObjectStore reads uploaded listing files.
type ListingObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Archive(ctx context.Context, key string) error
}

// ListingWriter persists parsed listings.
type ListingWriter interface {
	BulkUpsert(ctx context.Context, properties []*models.PropertyCreate) (*models.BulkInsertResult, error)
}

// ListingImportHandler imports listing CSV files for agents.
type ListingImportHandler struct {
	store  ListingObjectStore
	writer ListingWriter
}

// NewListingImportHandler creates a new listing import handler. store may be
// nil when files are only imported directly through Import.
func NewListingImportHandler(store ListingObjectStore, writer ListingWriter) *ListingImportHandler {
	return &ListingImportHandler{
		store:  store,
		writer: writer,
	}
}

// ListingImportResult is the result of importing one listing file.
type ListingImportResult struct {
	Key      string    `json:"key,omitempty"`
	AgentID  uuid.UUID `json:"agent_id"`
	Message  string    `json:"message"`
	Inserted int       `json:"inserted"`
	Failed   int       `json:"failed"`
	Errors   []string  `json:"errors,omitempty"`
}

// ListingImportSummary is the result of one S3 event.
type ListingImportSummary struct {
	Message string                `json:"message"`
	Files   []ListingImportResult `json:"files"`
}

// Handle processes S3 events for uploaded listing files. Files that cannot be
// imported are reported and left in place; imported files are archived.
func (h *ListingImportHandler) Handle(ctx context.Context, s3Event events.S3Event) (ListingImportSummary, error) {
	logger := utils.GetLogger()
	summary := ListingImportSummary{Files: []ListingImportResult{}}

	if len(s3Event.Records) == 0 {
		summary.Message = "No records to process"
		return summary, nil
	}

	for _, record := range s3Event.Records {
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return summary, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		agentID, err := s3service.AgentFromListingKey(key)
		if err != nil {
			logger.Warn("Skipping object outside the listing upload prefix",
				utils.String("key", key),
				utils.Error(err))
			continue
		}

		logger.Info("Processing listing file",
			utils.String("bucket", record.S3.Bucket.Name),
			utils.String("key", key))

		content, err := h.store.Download(ctx, key)
		if err != nil {
			return summary, fmt.Errorf("failed to download listing file: %w", err)
		}

		result, err := h.Import(ctx, agentID, content)
		if result != nil {
			result.Key = key
			summary.Files = append(summary.Files, *result)
		}
		if err != nil {
			logger.Warn("Listing file rejected",
				utils.String("key", key),
				utils.Error(err))
			continue
		}

		if err := h.store.Archive(ctx, key); err != nil {
			logger.Warn("Failed to archive file", utils.Error(err))
		}
	}

	summary.Message = fmt.Sprintf("Processed %d listing files", len(summary.Files))
	return summary, nil
}

// Import parses content and upserts its listings for the agent. When the file
// holds no usable rows the result describes why and the error is one of the
// utils CSV errors.
func (h *ListingImportHandler) Import(ctx context.Context, agentID uuid.UUID, content []byte) (*ListingImportResult, error) {
	logger := utils.GetLogger()

	parser := utils.NewListingCSVParser()
	listings, parseErrors := parser.ParseListings(string(content), agentID)

	allErrors := make([]string, 0, len(parseErrors))
	for _, e := range parseErrors {
		allErrors = append(allErrors, e.Error())
	}

	if len(listings) == 0 {
		return &ListingImportResult{
			AgentID: agentID,
			Message: "No valid listings found in CSV",
			Failed:  len(parseErrors),
			Errors:  limitErrors(allErrors),
		}, parseErrors[0]
	}

	logger.Info("Parsed listing CSV",
		utils.String("agentID", agentID.String()),
		utils.Int("validListings", len(listings)),
		utils.Int("parseErrors", len(parseErrors)))

	result, err := h.writer.BulkUpsert(ctx, listings)
	if err != nil {
		logger.Error("Failed to store listings", utils.Error(err))
		return nil, fmt.Errorf("failed to store listings: %w", err)
	}

	logger.Info("Stored listings",
		utils.String("agentID", agentID.String()),
		utils.Int("inserted", result.InsertedCount),
		utils.Int("failed", result.FailedCount))

	allErrors = append(allErrors, result.Errors...)

	return &ListingImportResult{
		AgentID:  agentID,
		Message:  "CSV processed successfully",
		Inserted: result.InsertedCount,
		Failed:   result.FailedCount + len(parseErrors),
		Errors:   limitErrors(allErrors),
	}, nil
}

func limitErrors(errs []string) []string {
	if len(errs) > maxReportedErrors {
		return errs[:maxReportedErrors]
	}
	return errs
}
