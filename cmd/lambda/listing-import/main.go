// Listing import Lambda entry point, triggered by S3 uploads
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/handlers"
	"property-matching-engine/internal/services/database"
	s3service "property-matching-engine/internal/services/s3"
	"property-matching-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	db, err := database.New(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	defer db.Close()

	store, err := s3service.NewService(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		panic("Failed to create S3 service: " + err.Error())
	}

	handler := handlers.NewListingImportHandler(store, database.NewPropertyRepository(db))

	lambda.Start(handler.Handle)
}
