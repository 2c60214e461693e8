package service

import (
	"encoding/json"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/pkg/errors"
)

func floatPtr(v float64) *float64 {
	return &v
}

func validCard() domain.CardRecord {
	return domain.CardRecord{
		ID:                "base1-4",
		Title:             "  Charizard ",
		Description:       "Charizard - Rare Holo Pokemon Card from Base Set",
		SetName:           " Base",
		CardNumber:        "4 ",
		Rarity:            "Rare Holo",
		Artist:            "Mitsuhiro Arita",
		HP:                " 120 ",
		Types:             json.RawMessage(`["Fire", "Flying"]`),
		ImageURL:          "https://images.pokemontcg.io/base1/4_hires.png",
		PriceCandidates:   map[string]float64{"holofoil": 12.5, "normal": 3.0},
		MarketplaceURL:    "https://prices.pokemontcg.io/tcgplayer/base1-4",
		MarketplacePrices: json.RawMessage(`{ "holofoil": {"market": 12.5} }`),
	}
}

func TestSanitize_TrimsAndNormalizes(t *testing.T) {
	req, err := Sanitize(validCard(), domain.UISelections{})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportRequestVersion, req.Version)
	assert.Equal(t, "base1-4", req.SourceID)
	assert.Equal(t, "Charizard", req.Title)
	assert.Equal(t, "Base", req.SetName)
	assert.Equal(t, "4", req.CardNumber)
	assert.Equal(t, "120", req.HP)
	assert.Equal(t, `["Fire","Flying"]`, req.Types)
	assert.Equal(t, `{"holofoil":{"market":12.5}}`, req.MarketplacePrices)
	assert.Equal(t, 12.5, req.Price)
	assert.Equal(t, "", req.Vendor)
}

func TestSanitize_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *domain.CardRecord)
		missing []string
	}{
		{"title", func(c *domain.CardRecord) { c.Title = "   " }, []string{"title"}},
		{"set and number", func(c *domain.CardRecord) { c.SetName = ""; c.CardNumber = "\t" }, []string{"setName", "cardNumber"}},
		{"all", func(c *domain.CardRecord) { *c = domain.CardRecord{ID: "x"} }, []string{"title", "setName", "cardNumber"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			tt.mutate(&card)

			req, err := Sanitize(card, domain.UISelections{})
			assert.Nil(t, req)
			var ve *errors.ErrValidation
			require.True(t, stderrors.As(err, &ve))
			assert.Equal(t, tt.missing, ve.Missing)
			for _, field := range tt.missing {
				assert.Equal(t, "required", ve.Fields[field])
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	cards := []domain.CardRecord{
		validCard(),
		func() domain.CardRecord {
			c := validCard()
			c.HP = "abc"
			c.Types = json.RawMessage(`"not json"`)
			c.PriceCandidates = nil
			c.Price = floatPtr(7.25)
			c.MarketplacePrices = nil
			return c
		}(),
	}
	for _, card := range cards {
		first, err := Sanitize(card, domain.UISelections{SelectedPriceTier: "normal"})
		require.NoError(t, err)
		second, err := Sanitize(first.CardRecord(), domain.UISelections{})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestSanitize_TypesFormsAgree(t *testing.T) {
	native := validCard()
	native.Types = json.RawMessage(`["Fire","Flying"]`)
	serialized := validCard()
	serialized.Types = json.RawMessage(`"[\"Fire\",\"Flying\"]"`)

	a, err := Sanitize(native, domain.UISelections{})
	require.NoError(t, err)
	b, err := Sanitize(serialized, domain.UISelections{})
	require.NoError(t, err)

	assert.Equal(t, `["Fire","Flying"]`, a.Types)
	assert.Equal(t, a.Types, b.Types)
}

func TestSanitizeTypes_InvalidInput(t *testing.T) {
	for _, raw := range []string{``, `null`, `"Fire"`, `{"a":1}`, `42`, `"[broken"`, `["Fire"] x`} {
		assert.Equal(t, "[]", sanitizeTypes(json.RawMessage(raw)), raw)
	}
}

func TestSanitizeTypes_ScalarElements(t *testing.T) {
	assert.Equal(t, `["1","2"]`, sanitizeTypes(json.RawMessage(`[1, 2]`)))
	assert.Equal(t, `["Fire","2.5","true"]`, sanitizeTypes(json.RawMessage(`[" Fire ", 2.5, true, null, {"a":1}, ["x"]]`)))
	assert.Equal(t, `["1"]`, sanitizeTypes(json.RawMessage(`"[1]"`)))
}

func TestSanitizeHP(t *testing.T) {
	tests := map[string]string{
		"120":   "120",
		" 60 ":  "60",
		"0080":  "80",
		"":      "0",
		"120+":  "0",
		"-10":   "0",
		"None":  "0",
		"1e3":   "0",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeHP(in), in)
	}
}

func TestSanitizePriceMap(t *testing.T) {
	assert.Equal(t, "{}", sanitizePriceMap(nil))
	assert.Equal(t, "{}", sanitizePriceMap(json.RawMessage(`[1]`)))
	assert.Equal(t, `{"normal":{"market":1}}`, sanitizePriceMap(json.RawMessage(`"{\"normal\": {\"market\": 1}}"`)))
}

func TestResolvePrice(t *testing.T) {
	candidates := map[string]float64{"holofoil": 12.5, "normal": 3.0}

	t.Run("selected tier", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: candidates}
		assert.Equal(t, 12.5, ResolvePrice(card, domain.UISelections{SelectedPriceTier: "holofoil"}))
		assert.Equal(t, 3.0, ResolvePrice(card, domain.UISelections{SelectedPriceTier: "normal"}))
	})

	t.Run("ui selection overrides card selection", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: candidates, SelectedPriceTier: "holofoil"}
		assert.Equal(t, 3.0, ResolvePrice(card, domain.UISelections{SelectedPriceTier: "normal"}))
		assert.Equal(t, 12.5, ResolvePrice(card, domain.UISelections{}))
	})

	t.Run("unknown selection falls back to priority", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: candidates}
		assert.Equal(t, 12.5, ResolvePrice(card, domain.UISelections{SelectedPriceTier: "firstEdition"}))
	})

	t.Run("priority skips zero", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: map[string]float64{"holofoil": 0, "normal": 0, "reverseHolofoil": 4.2, "firstEdition": 99}}
		assert.Equal(t, 4.2, ResolvePrice(card, domain.UISelections{}))
	})

	t.Run("legacy price", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: map[string]float64{}, Price: floatPtr(7.25)}
		assert.Equal(t, 7.25, ResolvePrice(card, domain.UISelections{}))
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Equal(t, 0.0, ResolvePrice(domain.CardRecord{}, domain.UISelections{}))
	})

	t.Run("bad values are zero", func(t *testing.T) {
		card := domain.CardRecord{PriceCandidates: map[string]float64{"holofoil": math.NaN(), "normal": -3}, Price: floatPtr(math.Inf(1))}
		assert.Equal(t, 0.0, ResolvePrice(card, domain.UISelections{}))
	})
}
