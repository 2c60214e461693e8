package service

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/pkg/errors"
)

// PriceTierPriority is the fallback order when no tier is selected
var PriceTierPriority = []string{"holofoil", "normal", "reverseHolofoil", "firstEdition"}

var requestValidator = newRequestValidator()

func newRequestValidator() *validatorv10.Validate {
	v := validatorv10.New()
	// report fields by their JSON names so callers can show them as-is
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Sanitize turns a raw card into an ImportRequest. It has no side effects.
// A card missing title, setName or cardNumber yields *errors.ErrValidation.
func Sanitize(card domain.CardRecord, selections domain.UISelections) (*domain.ImportRequest, error) {
	req := &domain.ImportRequest{
		Version:           domain.ImportRequestVersion,
		SourceID:          strings.TrimSpace(card.ID),
		Title:             strings.TrimSpace(card.Title),
		Description:       strings.TrimSpace(card.Description),
		Vendor:            strings.TrimSpace(card.Vendor),
		ProductType:       strings.TrimSpace(card.ProductType),
		SetName:           strings.TrimSpace(card.SetName),
		CardNumber:        strings.TrimSpace(card.CardNumber),
		Rarity:            strings.TrimSpace(card.Rarity),
		Artist:            strings.TrimSpace(card.Artist),
		HP:                sanitizeHP(card.HP),
		Types:             sanitizeTypes(card.Types),
		ImageURL:          strings.TrimSpace(card.ImageURL),
		Price:             ResolvePrice(card, selections),
		MarketplaceURL:    strings.TrimSpace(card.MarketplaceURL),
		MarketplacePrices: sanitizePriceMap(card.MarketplacePrices),
	}

	if err := requestValidator.Struct(req); err != nil {
		return nil, toValidationError(err)
	}
	return req, nil
}

func toValidationError(err error) error {
	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		return &errors.ErrValidation{Message: err.Error()}
	}
	out := &errors.ErrValidation{Fields: make(map[string]string, len(ve))}
	for _, fe := range ve {
		out.Missing = append(out.Missing, fe.Field())
		out.Fields[fe.Field()] = fe.Tag()
	}
	return out
}

// sanitizeHP keeps a non-negative integer string, "0" otherwise
func sanitizeHP(hp string) string {
	n, err := strconv.Atoi(strings.TrimSpace(hp))
	if err != nil || n < 0 {
		return "0"
	}
	return strconv.Itoa(n)
}

// sanitizeTypes accepts a JSON array, or a JSON string holding one, and returns it
// as a compacted array of strings. Number and bool elements are kept as their JSON
// text; nulls, objects and nested arrays are dropped. Anything else becomes "[]".
func sanitizeTypes(raw json.RawMessage) string {
	raw = unwrapJSONString(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var types []interface{}
	if err := dec.Decode(&types); err != nil || types == nil || dec.More() {
		return "[]"
	}
	cleaned := make([]string, 0, len(types))
	for _, t := range types {
		var v string
		switch t := t.(type) {
		case string:
			v = strings.TrimSpace(t)
		case json.Number:
			v = t.String()
		case bool:
			v = strconv.FormatBool(t)
		}
		if v != "" {
			cleaned = append(cleaned, v)
		}
	}
	out, err := json.Marshal(cleaned)
	if err != nil {
		return "[]"
	}
	return string(out)
}

// sanitizePriceMap keeps a JSON object compacted, "{}" otherwise
func sanitizePriceMap(raw json.RawMessage) string {
	raw = unwrapJSONString(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "{}"
	}
	return buf.String()
}

// unwrapJSONString returns the inner text when raw is a JSON string literal
func unwrapJSONString(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return trimmed
	}
	return json.RawMessage(strings.TrimSpace(s))
}

// ResolvePrice picks the import price: the selected tier (UI selection first),
// then the first non-zero tier by PriceTierPriority, then the legacy price, then 0.
func ResolvePrice(card domain.CardRecord, selections domain.UISelections) float64 {
	for _, tier := range []string{selections.SelectedPriceTier, card.SelectedPriceTier} {
		tier = strings.TrimSpace(tier)
		if tier == "" {
			continue
		}
		if v, ok := card.PriceCandidates[tier]; ok {
			return cleanPrice(v)
		}
	}
	for _, tier := range PriceTierPriority {
		if v := cleanPrice(card.PriceCandidates[tier]); v > 0 {
			return v
		}
	}
	if card.Price != nil {
		return cleanPrice(*card.Price)
	}
	return 0
}

func cleanPrice(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
