package pokemontcg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/domain"
)

// Client calls the Pokémon TCG API (api.pokemontcg.io)
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Pokémon TCG API client. The API key is optional.
func NewClient(cfg config.PokemonTCGConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Search finds cards whose name starts with query, newest sets first
func (c *Client) Search(ctx context.Context, query string) ([]domain.CardRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	// the query language treats quotes as delimiters
	query = strings.ReplaceAll(query, `"`, "")

	q := url.Values{}
	q.Set("q", fmt.Sprintf(`name:"%s*"`, query))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("orderBy", "-set.releaseDate")

	var out cardsResponse
	if err := c.get(ctx, "/cards?"+q.Encode(), &out); err != nil {
		c.logger.Warn("Pokémon TCG search failed", zap.Error(err), zap.String("query", query))
		return nil, err
	}

	records := make([]domain.CardRecord, 0, len(out.Data))
	for _, card := range out.Data {
		records = append(records, card.toRecord())
	}
	return records, nil
}

// GetCard fetches a single card by its id (e.g. "base1-4")
func (c *Client) GetCard(ctx context.Context, id string) (*domain.CardRecord, error) {
	var out cardResponse
	if err := c.get(ctx, "/cards/"+url.PathEscape(id), &out); err != nil {
		c.logger.Warn("Pokémon TCG card request failed", zap.Error(err), zap.String("card_id", id))
		return nil, err
	}
	record := out.Data.toRecord()
	return &record, nil
}

func (c *Client) get(ctx context.Context, pathAndQuery string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("pokemontcg returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse pokemontcg response: %w", err)
	}
	return nil
}
