// Package s3service stores listing uploads and match reports in S3.
package s3service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/utils"
)

// Key prefixes
const (
	IncomingListingsPrefix  = "listings/incoming/"
	ProcessedListingsPrefix = "listings/processed/"
	ReportsPrefix           = "reports/"

	defaultExpiryMinutes = 15
)

// Service handles S3 operations
type Service struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

// PresignedURLResult contains the presigned URL details
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a new S3 service for bucket.
func NewService(ctx context.Context, region, bucket string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &Service{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: bucket,
	}, nil
}

// ListingUploadKey returns a fresh key under the agent's incoming listings.
func ListingUploadKey(agentID uuid.UUID) string {
	return fmt.Sprintf("%s%s/%s.csv", IncomingListingsPrefix, agentID, uuid.New())
}

// AgentFromListingKey extracts the agent ID from an incoming listing key.
func AgentFromListingKey(key string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(key, IncomingListingsPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("key %q is not an incoming listing upload", key)
	}
	agent, _, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, fmt.Errorf("key %q has no agent segment", key)
	}
	id, err := uuid.Parse(agent)
	if err != nil {
		return uuid.Nil, fmt.Errorf("key %q has invalid agent id: %w", key, err)
	}
	return id, nil
}

// ProcessedKey maps an incoming listing key to its archive location.
func ProcessedKey(key string) string {
	return ProcessedListingsPrefix + strings.TrimPrefix(key, IncomingListingsPrefix)
}

// ReportKey returns a fresh key for a match report of the agent.
func ReportKey(agentID uuid.UUID, at time.Time) string {
	return path.Join(strings.TrimSuffix(ReportsPrefix, "/"), agentID.String(), at.UTC().Format("2006/01/02"), uuid.New().String()+".json")
}

// PresignListingUpload creates a presigned PUT URL for a listing CSV.
func (s *Service) PresignListingUpload(ctx context.Context, agentID uuid.UUID, expiryMinutes int) (*PresignedURLResult, error) {
	if expiryMinutes <= 0 {
		expiryMinutes = defaultExpiryMinutes
	}
	expiry := time.Duration(expiryMinutes) * time.Minute
	key := ListingUploadKey(agentID)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String("text/csv"),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		utils.GetLogger().Error("Failed to generate presigned upload URL",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	utils.GetLogger().Info("Generated presigned listing upload URL",
		zap.String("agent_id", agentID.String()),
		zap.String("key", key),
		zap.Int("expiry_minutes", expiryMinutes),
	)

	return &PresignedURLResult{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// StoreMatchReport uploads the report as JSON and returns a presigned URL
// for downloading it.
func (s *Service) StoreMatchReport(ctx context.Context, report *models.MatchReport) (*PresignedURLResult, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode match report: %w", err)
	}

	key := ReportKey(report.AgentID, report.GeneratedAt)
	if err := s.upload(ctx, key, data, "application/json"); err != nil {
		return nil, err
	}

	expiry := time.Duration(defaultExpiryMinutes) * time.Minute
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// Download reads an object from the bucket.
func (s *Service) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to download file from S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return data, nil
}

// Archive moves an imported listing file to the processed prefix.
func (s *Service) Archive(ctx context.Context, key string) error {
	dest := ProcessedKey(key)

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		CopySource: aws.String(s.bucketName + "/" + key),
		Key:        aws.String(dest),
	})
	if err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	utils.GetLogger().Info("Archived listing upload",
		zap.String("source", key),
		zap.String("destination", dest),
	)
	return nil
}

func (s *Service) upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		utils.GetLogger().Error("Failed to upload file to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	utils.GetLogger().Info("Uploaded file to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return nil
}
