package pokemontcg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rareport/importcenter/internal/domain"
)

type cardsResponse struct {
	Data []card `json:"data"`
}

type cardResponse struct {
	Data card `json:"data"`
}

// card is the subset of the API card object we import
type card struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HP      string   `json:"hp"`
	Types   []string `json:"types"`
	Number  string   `json:"number"`
	Artist  string   `json:"artist"`
	Rarity  string   `json:"rarity"`
	Set     struct {
		Name   string `json:"name"`
		Series string `json:"series"`
	} `json:"set"`
	Images struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	TCGPlayer *struct {
		URL    string                     `json:"url"`
		Prices map[string]json.RawMessage `json:"prices"`
	} `json:"tcgplayer"`
}

// tierAliases maps TCGplayer price keys onto the tiers the importer ranks
var tierAliases = map[string]string{
	"1stEditionHolofoil": "firstEdition",
	"1stEditionNormal":   "firstEdition",
	"1stEdition":         "firstEdition",
}

type tierPrice struct {
	Market *float64 `json:"market"`
	Mid    *float64 `json:"mid"`
}

func (c card) toRecord() domain.CardRecord {
	record := domain.CardRecord{
		ID:          c.ID,
		Title:       c.Name,
		Description: description(c),
		Vendor:      "Pokemon TCG",
		ProductType: "Trading Card",
		SetName:     c.Set.Name,
		CardNumber:  c.Number,
		Rarity:      c.Rarity,
		Artist:      c.Artist,
		HP:          c.HP,
		ImageURL:    c.Images.Large,
	}
	if record.ImageURL == "" {
		record.ImageURL = c.Images.Small
	}
	if len(c.Types) > 0 {
		record.Types, _ = json.Marshal(c.Types)
	}
	if c.TCGPlayer == nil {
		return record
	}

	record.MarketplaceURL = c.TCGPlayer.URL
	if len(c.TCGPlayer.Prices) == 0 {
		return record
	}
	record.MarketplacePrices, _ = json.Marshal(c.TCGPlayer.Prices)
	record.PriceCandidates = make(map[string]float64, len(c.TCGPlayer.Prices))
	for key, raw := range c.TCGPlayer.Prices {
		var p tierPrice
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		value := p.Market
		if value == nil {
			value = p.Mid
		}
		if value == nil {
			continue
		}
		tier := key
		if alias, ok := tierAliases[key]; ok {
			tier = alias
			// keep the first edition holo price if both are present
			if _, seen := record.PriceCandidates[tier]; seen && key != "1stEditionHolofoil" {
				continue
			}
		}
		record.PriceCandidates[tier] = *value
	}
	return record
}

func description(c card) string {
	if c.Name == "" || c.Set.Name == "" {
		return ""
	}
	if c.Rarity == "" {
		return fmt.Sprintf("%s Pokemon Card from %s Set", c.Name, c.Set.Name)
	}
	return fmt.Sprintf("%s - %s Pokemon Card from %s Set", c.Name, strings.TrimSpace(c.Rarity), c.Set.Name)
}
