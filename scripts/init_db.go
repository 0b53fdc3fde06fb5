//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"property-matching-engine/internal/config"
	"property-matching-engine/internal/services/database"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("📡 Connecting to PostgreSQL...")
	db, err := database.New(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database successfully!")
	fmt.Println()

	fmt.Println("🚀 Applying CRM schema...")
	if err := db.ApplySchema(ctx); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Schema applied successfully!")
	fmt.Println()

	fmt.Println("🔍 Verifying database setup...")
	for _, table := range []string{"agents", "clients", "client_search_criteria", "properties"} {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			fmt.Printf("   ⚠️  Could not count %s: %v\n", table, err)
			continue
		}
		fmt.Printf("   📦 %-24s %d rows\n", table, count)
	}

	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connections: go run scripts/test_connection.go")
	fmt.Println("  2. Try matching on a CSV export: go run scripts/test_local.go listings.csv")
}
