package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/internal/media"
	"github.com/rareport/importcenter/internal/pokemontcg"
	"github.com/rareport/importcenter/internal/repository"
	"github.com/rareport/importcenter/internal/repository/postgres"
	"github.com/rareport/importcenter/internal/service"
	"github.com/rareport/importcenter/internal/shopify"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always happens
func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/import-card <card-id> [price-tier]")
		fmt.Fprintln(os.Stderr, "Example: go run ./cmd/import-card base1-4 holofoil")
		return 1
	}
	cardID := strings.TrimSpace(args[0])
	selections := domain.UISelections{}
	if len(args) > 1 {
		selections.SelectedPriceTier = strings.TrimSpace(args[1])
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize logger
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	var history repository.ImportEventRepository
	if cfg.Database.Enabled() {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Warn("Import history unavailable", zap.Error(err))
		} else {
			defer db.Close()
			history = postgres.NewRepositories(db, logger).ImportEvent
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	fmt.Printf("🔍 Looking up card %s...\n", cardID)
	card, err := pokemontcg.NewClient(cfg.PokemonTCG, logger).GetCard(ctx, cardID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch card: %v\n", err)
		return 1
	}
	fmt.Printf("   %s | %s / %s\n", card.Title, card.SetName, card.CardNumber)
	for tier, price := range card.PriceCandidates {
		fmt.Printf("   %s: %.2f\n", tier, price)
	}

	importer := service.NewImporter(
		shopify.NewAdminClient(cfg.Shopify, logger),
		media.NewTransfer(cfg.Media, logger),
		cfg.Import,
		logger,
	)
	imports := service.NewImportService(importer, service.NewStatusTracker(logger), history, logger).
		WithWebhook(cfg.Import.WebhookURL)

	fmt.Println("⏳ Importing...")
	result, err := imports.Import(ctx, *card, selections)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Import rejected: %v\n", err)
		return 1
	}

	fmt.Println("")
	fmt.Printf("Status: %s\n", result.Status)
	fmt.Printf("Run ID: %s\n", result.RunID)
	if result.ProductID != "" {
		fmt.Printf("Product: %s (%s)\n", result.ProductID, result.ProductHandle)
		if numericID, err := shopify.ExtractIDFromGID(result.ProductID); err == nil {
			shop := strings.TrimSuffix(strings.TrimPrefix(cfg.Shopify.ShopDomain, "https://"), "/")
			fmt.Printf("Admin: https://%s/admin/products/%d\n", shop, numericID)
		}
	}
	for _, step := range result.FailedSteps {
		fmt.Printf("⚠️  %s: %s\n", step, result.StepErrors[step])
	}

	switch result.Status {
	case domain.ImportStatusSucceeded:
		fmt.Println("✅ Import completed")
	case domain.ImportStatusPartial:
		fmt.Println("⚠️  Product created, some steps need manual follow-up")
	default:
		fmt.Printf("❌ %s\n", result.ErrorMessage)
		return 1
	}
	return 0
}
