//go:build ignore
// +build ignore

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/services/matcher"
	"property-matching-engine/internal/utils"
)

// Runs a listing export through the CSV parser and the matching engine
// without a database. Usage:
//
//	go run scripts/test_local.go -budget 450000 -rooms 3 -locations Köln,Bonn listings.csv
func main() {
	budget := flag.String("budget", "", "maximum budget")
	minArea := flag.Int("area", 0, "minimum living area in sqm")
	rooms := flag.String("rooms", "", "minimum rooms")
	locations := flag.String("locations", "", "comma-separated cities or postal codes")
	threshold := flag.Int("threshold", models.DefaultMatchThreshold, "match threshold")
	flag.Parse()

	fmt.Println("=== Property Matching Engine - Local Test ===")
	fmt.Println()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	if flag.NArg() != 1 {
		fmt.Println("❌ Usage: go run scripts/test_local.go [flags] listings.csv")
		os.Exit(1)
	}

	content, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Printf("❌ Failed to read CSV: %v\n", err)
		os.Exit(1)
	}

	// Parse CSV
	fmt.Println("📖 Parsing listing CSV...")
	agentID := uuid.New()
	listings, parseErrors := utils.NewListingCSVParser().ParseListings(string(content), agentID)
	for _, e := range parseErrors {
		fmt.Printf("   ⚠️  %v\n", e)
	}
	fmt.Printf("✅ Parsed %d listings\n", len(listings))
	fmt.Println()

	properties := make([]models.Property, 0, len(listings))
	for _, l := range listings {
		status := l.AvailabilityStatus
		if status == "" {
			status = models.AvailabilityAvailable
		}
		properties = append(properties, models.Property{
			ID:                 uuid.New(),
			AgentID:            agentID,
			ExternalRef:        l.ExternalRef,
			Title:              l.Title,
			Address:            l.Address,
			City:               l.City,
			PostalCode:         l.PostalCode,
			Price:              l.Price,
			LivingAreaSqm:      l.LivingAreaSqm,
			Rooms:              l.Rooms,
			PropertyType:       l.PropertyType,
			AvailabilityStatus: status,
		})
	}

	criteria := models.SearchCriteria{}
	if *budget != "" {
		b, err := utils.ParseLocalizedDecimal(*budget)
		if err != nil {
			fmt.Printf("❌ Invalid budget: %v\n", err)
			os.Exit(1)
		}
		criteria.MaxBudget = &b
	}
	if *minArea > 0 {
		criteria.MinAreaSqm = minArea
	}
	if *rooms != "" {
		r, err := decimal.NewFromString(*rooms)
		if err != nil {
			fmt.Printf("❌ Invalid rooms: %v\n", err)
			os.Exit(1)
		}
		criteria.MinRooms = &r
	}
	if *locations != "" {
		criteria.PreferredLocations = strings.Split(*locations, ",")
	}

	cfg := models.DefaultMatchConfig()
	cfg.MatchThreshold = *threshold

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Run matching
	fmt.Println("🔄 Running matching engine...")
	resp, err := matcher.NewEngine(matcher.DefaultWorkers, 0).ScoreCandidatesForCriteria(ctx, properties, criteria, cfg)
	if err != nil {
		fmt.Printf("❌ Matching failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %d of %d listings scored %d or higher (%dms)\n",
		resp.TotalMatches, len(properties), resp.MatchThreshold, resp.ProcessingTimeMs)
	fmt.Println()

	for i, m := range resp.Matches {
		fmt.Printf("   %d. %s - %d%%\n", i+1, m.CandidateName, m.OverallScore)
		fmt.Printf("      price %d | location %d | area %d | rooms %d | features %d\n",
			m.Breakdown.Price, m.Breakdown.Location, m.Breakdown.Area, m.Breakdown.Rooms, m.Breakdown.Features)
		for _, r := range m.MatchReasons {
			fmt.Printf("      + %s\n", r)
		}
		for _, r := range m.MismatchReasons {
			fmt.Printf("      - %s\n", r)
		}
	}

	fmt.Println()
	fmt.Println("🎉 Local test completed!")
}
