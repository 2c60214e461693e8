package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/shopify"
)

func main() {
	os.Exit(run())
}

func run() int {
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

	admin := shopify.NewAdminClient(cfg.Shopify, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("🔍 Fetching all collections from Shopify...")
	fmt.Println("")

	collections, err := admin.ListCollections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query collections: %v\n", err)
		return 1
	}

	fmt.Printf("✅ Found %d collection(s)\n\n", len(collections))

	if len(collections) > 0 {
		fmt.Println("Collections:")
		fmt.Println(strings.Repeat("─", 80))
		for i, coll := range collections {
			fmt.Printf("%d. Title: %s\n", i+1, coll.Title)
			fmt.Printf("   Handle: %s\n", coll.Handle)
			fmt.Printf("   ID (GID): %s\n", coll.ID)
			if numericID, err := shopify.ExtractIDFromGID(coll.ID); err == nil {
				fmt.Printf("   ID (numeric): %d\n", numericID)
			}
			fmt.Printf("   Products: %d\n", coll.ProductsCount.Count)
			fmt.Println("")
		}
	}

	// Imports fail before creating anything when this lookup fails
	fmt.Printf("Checking import collection %q...\n", cfg.Import.CollectionTitle)
	id, err := admin.ResolveCollectionByTitle(ctx, cfg.Import.CollectionTitle)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		fmt.Println("   Create the collection in Shopify admin or set IMPORT_COLLECTION_TITLE.")
		return 1
	}
	fmt.Printf("✅ Imports will join %s\n", id)
	return 0
}
