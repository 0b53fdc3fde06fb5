//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/services/database"
	s3service "property-matching-engine/internal/services/s3"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using environment variables")
	}

	fmt.Println("🔍 Testing Connections...")
	fmt.Println()

	// Test 1: Check environment variables
	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("AWS_REGION")
	checkEnvVar("S3_BUCKET")
	checkEnvVar("DATABASE_URL")
	checkEnvVar("SES_SENDER_EMAIL")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Test 2: Database connection
	fmt.Println("2️⃣  Testing Database Connection:")
	testDatabaseConnection(cfg)
	fmt.Println()

	// Test 3: S3 presigning
	fmt.Println("3️⃣  Testing S3 Configuration:")
	testS3(cfg)
	fmt.Println()

	fmt.Println("✅ Connection tests complete!")
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
		return
	}

	// Mask sensitive values
	masked := value
	if len(value) > 12 && name == "DATABASE_URL" {
		masked = value[:8] + "..." + value[len(value)-4:]
	}
	fmt.Printf("   ✅ %s: %s\n", name, masked)
}

func testDatabaseConnection(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(cfg)
	if err != nil {
		fmt.Printf("   ❌ Database connection failed: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.HealthCheck(ctx); err != nil {
		fmt.Printf("   ❌ Database ping failed: %v\n", err)
		return
	}

	fmt.Println("   ✅ Database connection successful!")

	// Check if tables exist
	var tableCount int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN ('agents', 'clients', 'client_search_criteria', 'properties')
	`).Scan(&tableCount)

	if err == nil {
		fmt.Printf("   📊 Tables found: %d/4 (agents, clients, client_search_criteria, properties)\n", tableCount)
	}
}

func testS3(cfg *config.Config) {
	if cfg.S3Bucket == "" {
		fmt.Println("   ❌ S3_BUCKET not set, skipping S3 test")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := s3service.NewService(ctx, cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		fmt.Printf("   ❌ Failed to create S3 client: %v\n", err)
		return
	}

	// Presigning is local, so this only proves credentials and region resolve.
	result, err := store.PresignListingUpload(ctx, uuid.New(), 1)
	if err != nil {
		fmt.Printf("   ❌ Presigning failed: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Presigned upload key: %s\n", result.Key)
}
