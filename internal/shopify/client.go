package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
)

const maxAttempts = 3

type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	backoff     time.Duration
	logger      *zap.Logger
}

// NewClient creates a new Shopify GraphQL client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Normalize shop domain - remove https:// and trailing slashes. An explicit
	// http:// is kept so the client can talk to a local mock store.
	scheme := "https"
	shopDomain := strings.TrimSpace(cfg.ShopDomain)
	if strings.HasPrefix(shopDomain, "http://") {
		scheme = "http"
	}
	shopDomain = strings.TrimPrefix(shopDomain, "https://")
	shopDomain = strings.TrimPrefix(shopDomain, "http://")
	shopDomain = strings.TrimSuffix(shopDomain, "/")

	return &Client{
		endpoint:    fmt.Sprintf("%s://%s/admin/api/%s/graphql.json", scheme, shopDomain, cfg.APIVersion),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: time.Second,
		logger:  logger,
	}
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

func (e GraphQLError) throttled() bool {
	code, _ := e.Extensions["code"].(string)
	return code == "THROTTLED"
}

// throttledError marks a response the store asked us to retry later
type throttledError struct {
	retryAfter time.Duration
	msg        string
}

func (e *throttledError) Error() string {
	return e.msg
}

// Execute executes a GraphQL query/mutation. Throttled calls (HTTP 429 or a
// THROTTLED GraphQL error) are retried up to maxAttempts times.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	reqBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.do(ctx, jsonData)
		if err == nil {
			return resp, nil
		}
		throttled, ok := err.(*throttledError)
		if !ok {
			return nil, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		wait := throttled.retryAfter
		if wait <= 0 {
			wait = c.backoff * time.Duration(1<<(attempt-1))
		}
		c.logger.Warn("Shopify throttled request, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (*GraphQLResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var retryAfter time.Duration
		if seconds, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && seconds > 0 {
			retryAfter = time.Duration(seconds * float64(time.Second))
		}
		return nil, &throttledError{retryAfter: retryAfter, msg: "shopify API error: status 429"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopify API error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var graphQLResp GraphQLResponse
	if err := json.Unmarshal(raw, &graphQLResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}

	if len(graphQLResp.Errors) > 0 {
		errorMessages := make([]string, len(graphQLResp.Errors))
		throttled := false
		for i, gqlErr := range graphQLResp.Errors {
			errorMessages[i] = gqlErr.Message
			throttled = throttled || gqlErr.throttled()
		}
		msg := fmt.Sprintf("graphQL errors: %s", strings.Join(errorMessages, "; "))
		if throttled {
			return nil, &throttledError{msg: msg}
		}
		return nil, fmt.Errorf("%s", msg)
	}

	return &graphQLResp, nil
}

// UserError is one entry of a mutation's userErrors list
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrors is returned when a mutation reports application-level errors
type UserErrors struct {
	Operation string
	Errors    []UserError
}

func (e *UserErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		if len(ue.Field) > 0 {
			msgs[i] = strings.Join(ue.Field, ".") + ": " + ue.Message
		} else {
			msgs[i] = ue.Message
		}
	}
	return fmt.Sprintf("%s userErrors: %s", e.Operation, strings.Join(msgs, "; "))
}

func userErrorsOf(operation string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrors{Operation: operation, Errors: errs}
}
