package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ImportRequestVersion is bumped whenever the sanitized shape changes
const ImportRequestVersion = 1

// CardRecord is one search result from the trading-card API
type CardRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	ProductType string `json:"productType,omitempty"`
	SetName     string `json:"setName"`
	CardNumber  string `json:"cardNumber"`
	Rarity      string `json:"rarity,omitempty"`
	Artist      string `json:"artist,omitempty"`
	HP          string `json:"hp,omitempty"`
	// Types is either a JSON array or a string holding an already serialized array
	Types             json.RawMessage    `json:"types,omitempty"`
	ImageURL          string             `json:"imageUrl,omitempty"`
	PriceCandidates   map[string]float64 `json:"priceCandidates,omitempty"`
	Price             *float64           `json:"price,omitempty"` // legacy base price
	SelectedPriceTier string             `json:"selectedPriceTier,omitempty"`
	MarketplaceURL    string             `json:"marketplaceUrl,omitempty"`    // TCGplayer listing
	MarketplacePrices json.RawMessage    `json:"marketplacePrices,omitempty"` // raw TCGplayer price map
}

// UISelections carries choices the merchant made on the result card before importing
type UISelections struct {
	SelectedPriceTier string `json:"selectedPriceTier,omitempty"`
}

// ImportRequest is the sanitized input of one import workflow
type ImportRequest struct {
	Version           int     `json:"version"`
	SourceID          string  `json:"sourceId"`
	Title             string  `json:"title" validate:"required"`
	Description       string  `json:"description"`
	Vendor            string  `json:"vendor"`
	ProductType       string  `json:"productType"`
	SetName           string  `json:"setName" validate:"required"`
	CardNumber        string  `json:"cardNumber" validate:"required"`
	Rarity            string  `json:"rarity"`
	Artist            string  `json:"artist"`
	HP                string  `json:"hp"`    // integer string
	Types             string  `json:"types"` // JSON array string
	ImageURL          string  `json:"imageUrl"`
	Price             float64 `json:"price"`
	MarketplaceURL    string  `json:"marketplaceUrl"`
	MarketplacePrices string  `json:"marketplacePrices"` // JSON object string
}

// HasPrice reports whether the price step should run
func (r *ImportRequest) HasPrice() bool {
	return r.Price > 0
}

// PriceString formats the price the way productVariantsBulkUpdate expects it
func (r *ImportRequest) PriceString() string {
	return strconv.FormatFloat(r.Price, 'f', 2, 64)
}

// CardRecord rebuilds a card from a sanitized request so it can be sanitized again
func (r *ImportRequest) CardRecord() CardRecord {
	price := r.Price
	return CardRecord{
		ID:                r.SourceID,
		Title:             r.Title,
		Description:       r.Description,
		Vendor:            r.Vendor,
		ProductType:       r.ProductType,
		SetName:           r.SetName,
		CardNumber:        r.CardNumber,
		Rarity:            r.Rarity,
		Artist:            r.Artist,
		HP:                r.HP,
		Types:             json.RawMessage(r.Types),
		ImageURL:          r.ImageURL,
		Price:             &price,
		MarketplaceURL:    r.MarketplaceURL,
		MarketplacePrices: json.RawMessage(r.MarketplacePrices),
	}
}

// ImportResult is the outcome of one import workflow run
type ImportResult struct {
	RunID         uuid.UUID       `json:"runId"`
	CardID        string          `json:"cardId"`
	Status        ImportStatus    `json:"status"`
	ProductID     string          `json:"productId,omitempty"`
	ProductHandle string          `json:"productHandle,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	FailedSteps   []Step          `json:"failedSteps,omitempty"`
	StepErrors    map[Step]string `json:"stepErrors,omitempty"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
}

// Failed reports whether the given step is recorded as failed
func (r *ImportResult) Failed(step Step) bool {
	for _, s := range r.FailedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// TrackerEntry is the UI read model for one card
type TrackerEntry struct {
	CardID string        `json:"cardId"`
	State  TrackerState  `json:"state"`
	RunID  uuid.UUID     `json:"runId,omitempty"`
	Result *ImportResult `json:"result,omitempty"`
}

// ImportEvent is an audit record of a finished import
type ImportEvent struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	CardID    string
	Status    ImportStatus
	ProductID *string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}
