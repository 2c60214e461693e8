package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/pkg/errors"
)

// MaxVariantsPerQuery is the largest page Shopify serves for product variants
const MaxVariantsPerQuery = 100

// AdminClient wraps Client with the typed operations the importer needs
type AdminClient struct {
	client *Client
	logger *zap.Logger
}

// NewAdminClient creates a typed Admin API client
func NewAdminClient(cfg config.ShopifyConfig, logger *zap.Logger) *AdminClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminClient{
		client: NewClient(cfg, logger),
		logger: logger,
	}
}

// ResolveCollectionByTitle returns the GID of the collection whose title matches exactly (case-insensitive)
func (a *AdminClient) ResolveCollectionByTitle(ctx context.Context, title string) (string, error) {
	variables := map[string]interface{}{
		"query": "title:" + strconv.Quote(title),
	}
	resp, err := a.client.Execute(ctx, CollectionsByTitleQuery, variables)
	if err != nil {
		return "", fmt.Errorf("query collections: %w", err)
	}

	var result struct {
		Collections struct {
			Edges []struct {
				Node Collection `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", fmt.Errorf("parse collections response: %w", err)
	}

	// The search is fuzzy, so confirm the title ourselves
	want := strings.TrimSpace(title)
	for _, edge := range result.Collections.Edges {
		if strings.EqualFold(strings.TrimSpace(edge.Node.Title), want) && edge.Node.ID != "" {
			return edge.Node.ID, nil
		}
	}
	return "", &errors.ErrNotFound{Resource: "collection", ID: title}
}

// ListCollections pages through every collection in the store
func (a *AdminClient) ListCollections(ctx context.Context) ([]Collection, error) {
	var (
		all   []Collection
		after *string
	)
	for {
		variables := map[string]interface{}{"first": 50}
		if after != nil {
			variables["after"] = *after
		}
		resp, err := a.client.Execute(ctx, CollectionsQuery, variables)
		if err != nil {
			return nil, fmt.Errorf("query collections: %w", err)
		}

		var result struct {
			Collections struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Edges []struct {
					Node Collection `json:"node"`
				} `json:"edges"`
			} `json:"collections"`
		}
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, fmt.Errorf("parse collections response: %w", err)
		}
		for _, edge := range result.Collections.Edges {
			all = append(all, edge.Node)
		}
		if !result.Collections.PageInfo.HasNextPage {
			return all, nil
		}
		cursor := result.Collections.PageInfo.EndCursor
		after = &cursor
	}
}

// CreateProduct runs productCreate. User errors are returned as *UserErrors.
func (a *AdminClient) CreateProduct(ctx context.Context, input ProductInput) (*CreatedProduct, error) {
	resp, err := a.client.Execute(ctx, ProductCreateMutation, map[string]interface{}{
		"product": input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	var result struct {
		ProductCreate struct {
			Product    *CreatedProduct `json:"product"`
			UserErrors []UserError     `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse product create response: %w", err)
	}
	if err := userErrorsOf("productCreate", result.ProductCreate.UserErrors); err != nil {
		return nil, err
	}
	if result.ProductCreate.Product == nil || result.ProductCreate.Product.ID == "" {
		return nil, fmt.Errorf("productCreate returned no product")
	}

	a.logger.Info("Created Shopify product",
		zap.String("product_id", result.ProductCreate.Product.ID),
		zap.String("handle", result.ProductCreate.Product.Handle),
	)
	return result.ProductCreate.Product, nil
}

// CreateStagedUpload requests a single POST target for an image file
func (a *AdminClient) CreateStagedUpload(ctx context.Context, filename, mimeType string) (*StagedTarget, error) {
	resp, err := a.client.Execute(ctx, StagedUploadsCreateMutation, map[string]interface{}{
		"input": []StagedUploadInput{{
			Filename:   filename,
			MimeType:   mimeType,
			HTTPMethod: "POST",
			Resource:   "IMAGE",
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staged upload: %w", err)
	}

	var result struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedTarget `json:"stagedTargets"`
			UserErrors    []UserError    `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse staged upload response: %w", err)
	}
	if err := userErrorsOf("stagedUploadsCreate", result.StagedUploadsCreate.UserErrors); err != nil {
		return nil, err
	}
	if len(result.StagedUploadsCreate.StagedTargets) == 0 {
		return nil, fmt.Errorf("stagedUploadsCreate returned no target")
	}
	target := result.StagedUploadsCreate.StagedTargets[0]
	if target.URL == "" || target.ResourceURL == "" {
		return nil, fmt.Errorf("stagedUploadsCreate returned an incomplete target")
	}
	return &target, nil
}

// AttachMedia attaches an already uploaded image to the product
func (a *AdminClient) AttachMedia(ctx context.Context, productID string, media MediaInput) error {
	if media.MediaContentType == "" {
		media.MediaContentType = "IMAGE"
	}
	resp, err := a.client.Execute(ctx, ProductCreateMediaMutation, map[string]interface{}{
		"productId": productID,
		"media":     []MediaInput{media},
	})
	if err != nil {
		return fmt.Errorf("failed to attach media: %w", err)
	}

	var result struct {
		ProductCreateMedia struct {
			MediaUserErrors []UserError `json:"mediaUserErrors"`
		} `json:"productCreateMedia"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse product create media response: %w", err)
	}
	return userErrorsOf("productCreateMedia", result.ProductCreateMedia.MediaUserErrors)
}

// SetMetafields writes all metafields in one metafieldsSet call
func (a *AdminClient) SetMetafields(ctx context.Context, metafields []MetafieldsSetInput) error {
	if len(metafields) == 0 {
		return nil
	}
	resp, err := a.client.Execute(ctx, MetafieldsSetMutation, map[string]interface{}{
		"metafields": metafields,
	})
	if err != nil {
		return fmt.Errorf("failed to set metafields: %w", err)
	}

	var result struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse metafields set response: %w", err)
	}
	return userErrorsOf("metafieldsSet", result.MetafieldsSet.UserErrors)
}

// ListVariantIDs returns up to limit variant GIDs of a product (limit is capped at 100)
func (a *AdminClient) ListVariantIDs(ctx context.Context, productID string, limit int) ([]string, error) {
	if limit <= 0 || limit > MaxVariantsPerQuery {
		limit = MaxVariantsPerQuery
	}
	resp, err := a.client.Execute(ctx, ProductVariantsQuery, map[string]interface{}{
		"id":    productID,
		"first": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}

	var result struct {
		Product *struct {
			Variants struct {
				Edges []struct {
					Node struct {
						ID string `json:"id"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"variants"`
		} `json:"product"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse variants response: %w", err)
	}
	if result.Product == nil {
		return nil, &errors.ErrNotFound{Resource: "product", ID: productID}
	}

	ids := make([]string, 0, len(result.Product.Variants.Edges))
	for _, edge := range result.Product.Variants.Edges {
		if edge.Node.ID != "" {
			ids = append(ids, edge.Node.ID)
		}
	}
	return ids, nil
}

// BulkUpdateVariantPrices sets prices for the given variants of a product
func (a *AdminClient) BulkUpdateVariantPrices(ctx context.Context, productID string, variants []VariantPriceInput) error {
	if len(variants) == 0 {
		return nil
	}
	resp, err := a.client.Execute(ctx, ProductVariantsBulkUpdateMutation, map[string]interface{}{
		"productId": productID,
		"variants":  variants,
	})
	if err != nil {
		return fmt.Errorf("failed to update variant prices: %w", err)
	}

	var result struct {
		ProductVariantsBulkUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse variants bulk update response: %w", err)
	}
	return userErrorsOf("productVariantsBulkUpdate", result.ProductVariantsBulkUpdate.UserErrors)
}

// CreateMetaobject creates a metaobject of the given definition type and returns its GID
func (a *AdminClient) CreateMetaobject(ctx context.Context, metaobjectType string, fields []MetaobjectField) (string, error) {
	resp, err := a.client.Execute(ctx, MetaobjectCreateMutation, map[string]interface{}{
		"metaobject": map[string]interface{}{
			"type":   metaobjectType,
			"fields": fields,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create metaobject: %w", err)
	}

	var result struct {
		MetaobjectCreate struct {
			Metaobject *struct {
				ID     string `json:"id"`
				Handle string `json:"handle"`
			} `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectCreate"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", fmt.Errorf("failed to parse metaobject create response: %w", err)
	}
	if err := userErrorsOf("metaobjectCreate", result.MetaobjectCreate.UserErrors); err != nil {
		return "", err
	}
	if result.MetaobjectCreate.Metaobject == nil || result.MetaobjectCreate.Metaobject.ID == "" {
		return "", fmt.Errorf("metaobjectCreate returned no metaobject")
	}
	return result.MetaobjectCreate.Metaobject.ID, nil
}

// ExtractIDFromGID returns the numeric id at the end of a GID such as "gid://shopify/Product/123456"
func ExtractIDFromGID(gid string) (int64, error) {
	parts := strings.Split(gid, "/")
	if len(parts) < 4 {
		return 0, fmt.Errorf("invalid GID format: %s", gid)
	}

	id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ID from GID: %w", err)
	}

	return id, nil
}
