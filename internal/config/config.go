package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rareport/importcenter/internal/domain"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Import      ImportConfig
	Media       MediaConfig
	PokemonTCG  PokemonTCGConfig
}

// DatabaseConfig is only needed for the import history; Host empty disables it
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether the import history database is configured
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
}

// ImportConfig controls how a card becomes a Shopify product
type ImportConfig struct {
	CollectionTitle      string               // IMPORT_COLLECTION_TITLE: collection every imported product joins
	TitleSource          string               // IMPORT_TITLE_SOURCE: first segment of "<source> | <name> | <set> / <number>"
	ProductStatus        domain.ProductStatus // IMPORT_PRODUCT_STATUS: DRAFT or ACTIVE
	MetadataMode         domain.MetadataMode  // IMPORT_METADATA_MODE: metafields or metaobject
	MetafieldNamespace   string
	MarketplaceNamespace string
	DefaultVendor        string
	DefaultProductType   string
	WebhookURL           string // IMPORT_WEBHOOK_URL: optional; receives every finished result
}

// MediaConfig bounds the image fetch and the staged upload
type MediaConfig struct {
	FetchTimeout  time.Duration
	UploadTimeout time.Duration
}

// PokemonTCGConfig is used to call the Pokémon TCG API for card search
type PokemonTCGConfig struct {
	BaseURL  string
	APIKey   string // optional; raises the rate limit
	PageSize int
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IMAGE_FETCH_TIMEOUT", "15s")
	viper.SetDefault("IMAGE_UPLOAD_TIMEOUT", "15s")
	viper.SetDefault("POKEMON_TCG_PAGE_SIZE", 100)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	fetchTimeout, err := time.ParseDuration(getEnvOrViper("IMAGE_FETCH_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("IMAGE_FETCH_TIMEOUT: %w", err)
	}
	uploadTimeout, err := time.ParseDuration(getEnvOrViper("IMAGE_UPLOAD_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("IMAGE_UPLOAD_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     strings.TrimSpace(getEnvOrViper("DB_HOST", "")),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "importcenter"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  strings.TrimSpace(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken: strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:  getEnvOrViper("SHOPIFY_API_VERSION", "2025-01"),
		},
		Import: ImportConfig{
			CollectionTitle:      getEnvOrViper("IMPORT_COLLECTION_TITLE", "Collectible Trading Cards"),
			TitleSource:          getEnvOrViper("IMPORT_TITLE_SOURCE", "Pokémon TCG"),
			ProductStatus:        domain.ProductStatus(strings.ToUpper(getEnvOrViper("IMPORT_PRODUCT_STATUS", "DRAFT"))),
			MetadataMode:         domain.MetadataMode(strings.ToLower(getEnvOrViper("IMPORT_METADATA_MODE", "metafields"))),
			MetafieldNamespace:   getEnvOrViper("IMPORT_METAFIELD_NAMESPACE", "pokemon_tcg"),
			MarketplaceNamespace: getEnvOrViper("IMPORT_MARKETPLACE_NAMESPACE", "tcgplayer"),
			DefaultVendor:        getEnvOrViper("IMPORT_DEFAULT_VENDOR", "Pokemon TCG"),
			DefaultProductType:   getEnvOrViper("IMPORT_DEFAULT_PRODUCT_TYPE", "Trading Card"),
			WebhookURL:           strings.TrimSpace(getEnvOrViper("IMPORT_WEBHOOK_URL", "")),
		},
		Media: MediaConfig{
			FetchTimeout:  fetchTimeout,
			UploadTimeout: uploadTimeout,
		},
		PokemonTCG: PokemonTCGConfig{
			BaseURL:  strings.TrimSpace(getEnvOrViper("POKEMON_TCG_BASE_URL", "https://api.pokemontcg.io/v2")),
			APIKey:   strings.TrimSpace(getEnvOrViper("POKEMON_TCG_API_KEY", "")),
			PageSize: viper.GetInt("POKEMON_TCG_PAGE_SIZE"),
		},
	}

	// Validate required fields
	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}
	if !cfg.Import.ProductStatus.IsValid() {
		return nil, fmt.Errorf("IMPORT_PRODUCT_STATUS must be DRAFT or ACTIVE, got %q", cfg.Import.ProductStatus)
	}
	if !cfg.Import.MetadataMode.IsValid() {
		return nil, fmt.Errorf("IMPORT_METADATA_MODE must be metafields or metaobject, got %q", cfg.Import.MetadataMode)
	}
	if cfg.PokemonTCG.PageSize <= 0 || cfg.PokemonTCG.PageSize > 250 {
		cfg.PokemonTCG.PageSize = 100
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
