package shopify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/pkg/errors"
)

type recordedRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// newTestAdmin starts a mock store that answers every request with handler
func newTestAdmin(t *testing.T, handler func(w http.ResponseWriter, req recordedRequest)) *AdminClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2025-01/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req recordedRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	admin := NewAdminClient(config.ShopifyConfig{
		ShopDomain:  srv.URL,
		AccessToken: "shpat_test",
		APIVersion:  "2025-01",
	}, zaptest.NewLogger(t))
	admin.client.backoff = time.Millisecond
	return admin
}

func writeData(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"data":`+data+`}`)
}

func TestResolveCollectionByTitle(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		assert.Equal(t, `title:"Collectible Trading Cards"`, req.Variables["query"])
		writeData(w, `{"collections":{"edges":[
			{"node":{"id":"gid://shopify/Collection/1","title":"Collectible Trading Cards Archive"}},
			{"node":{"id":"gid://shopify/Collection/2","title":"collectible trading cards"}}
		]}}`)
	})

	id, err := admin.ResolveCollectionByTitle(context.Background(), "Collectible Trading Cards")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Collection/2", id)
}

func TestResolveCollectionByTitle_NotFound(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		writeData(w, `{"collections":{"edges":[]}}`)
	})

	_, err := admin.ResolveCollectionByTitle(context.Background(), "Missing")
	var notFound *errors.ErrNotFound
	require.True(t, stderrors.As(err, &notFound))
	assert.Equal(t, "collection", notFound.Resource)
}

func TestCreateProduct(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		product := req.Variables["product"].(map[string]interface{})
		assert.Equal(t, "Pokémon TCG | Charizard | Base / 4", product["title"])
		assert.Equal(t, "DRAFT", product["status"])
		assert.Equal(t, []interface{}{"gid://shopify/Collection/2"}, product["collectionsToJoin"])
		writeData(w, `{"productCreate":{"product":{"id":"gid://shopify/Product/10","handle":"charizard"},"userErrors":[]}}`)
	})

	product, err := admin.CreateProduct(context.Background(), ProductInput{
		Title:             "Pokémon TCG | Charizard | Base / 4",
		Status:            "DRAFT",
		CollectionsToJoin: []string{"gid://shopify/Collection/2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/10", product.ID)
	assert.Equal(t, "charizard", product.Handle)
}

func TestCreateProduct_UserErrors(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		writeData(w, `{"productCreate":{"product":null,"userErrors":[{"field":["title"],"message":"can't be blank"}]}}`)
	})

	_, err := admin.CreateProduct(context.Background(), ProductInput{})
	var userErrs *UserErrors
	require.True(t, stderrors.As(err, &userErrs))
	assert.Equal(t, "productCreate userErrors: title: can't be blank", userErrs.Error())
}

func TestAttachMedia_ReadsMediaUserErrors(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		media := req.Variables["media"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "IMAGE", media["mediaContentType"])
		writeData(w, `{"productCreateMedia":{"media":[],"mediaUserErrors":[{"field":["media"],"message":"invalid source","code":"INVALID"}]}}`)
	})

	err := admin.AttachMedia(context.Background(), "gid://shopify/Product/10", MediaInput{OriginalSource: "https://x"})
	assert.ErrorContains(t, err, "invalid source")
}

func TestCreateStagedUpload(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		input := req.Variables["input"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "charizard.png", input["filename"])
		assert.Equal(t, "image/png", input["mimeType"])
		assert.Equal(t, "POST", input["httpMethod"])
		assert.Equal(t, "IMAGE", input["resource"])
		writeData(w, `{"stagedUploadsCreate":{"stagedTargets":[{"url":"https://up","resourceUrl":"https://res","parameters":[{"name":"key","value":"k"}]}],"userErrors":[]}}`)
	})

	target, err := admin.CreateStagedUpload(context.Background(), "charizard.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://up", target.URL)
	assert.Equal(t, "https://res", target.ResourceURL)
	assert.Equal(t, []StagedUploadParameter{{Name: "key", Value: "k"}}, target.Parameters)
}

func TestListVariantIDs_CapsLimit(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		assert.EqualValues(t, 100, req.Variables["first"])
		writeData(w, `{"product":{"variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/1"}},{"node":{"id":"gid://shopify/ProductVariant/2"}}]}}}`)
	})

	ids, err := admin.ListVariantIDs(context.Background(), "gid://shopify/Product/10", 500)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid://shopify/ProductVariant/1", "gid://shopify/ProductVariant/2"}, ids)
}

func TestSetMetafields_EmptyIsNoop(t *testing.T) {
	var calls int32
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		atomic.AddInt32(&calls, 1)
	})

	require.NoError(t, admin.SetMetafields(context.Background(), nil))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCreateMetaobject(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, req recordedRequest) {
		metaobject := req.Variables["metaobject"].(map[string]interface{})
		assert.Equal(t, "pokemon_trading_card", metaobject["type"])
		writeData(w, `{"metaobjectCreate":{"metaobject":{"id":"gid://shopify/Metaobject/7","handle":"base-4"},"userErrors":[]}}`)
	})

	id, err := admin.CreateMetaobject(context.Background(), "pokemon_trading_card", []MetaobjectField{{Key: "set_name", Value: "Base"}})
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Metaobject/7", id)
}

func TestExecute_RetriesThrottled(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			writeData(w, `null,"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]`)
		default:
			writeData(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	client := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "t", APIVersion: "2025-01"}, zaptest.NewLogger(t))
	client.backoff = time.Millisecond

	resp, err := client.Execute(context.Background(), "query { shop { name } }", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestExecute_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "t", APIVersion: "2025-01"}, nil)
	client.backoff = time.Millisecond

	_, err := client.Execute(context.Background(), "query { shop { name } }", nil)
	assert.ErrorContains(t, err, "max retries")
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls))
}

func TestExecute_DoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeData(w, `null,"errors":[{"message":"Field 'foo' doesn't exist"}]`)
	}))
	defer srv.Close()

	client := NewClient(config.ShopifyConfig{ShopDomain: srv.URL, AccessToken: "t", APIVersion: "2025-01"}, nil)

	_, err := client.Execute(context.Background(), "query { foo }", nil)
	assert.ErrorContains(t, err, "doesn't exist")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewClient_NormalizesDomain(t *testing.T) {
	c := NewClient(config.ShopifyConfig{ShopDomain: "https://rareport.myshopify.com/", APIVersion: "2025-01"}, nil)
	assert.Equal(t, "https://rareport.myshopify.com/admin/api/2025-01/graphql.json", c.endpoint)
}

func TestExtractIDFromGID(t *testing.T) {
	id, err := ExtractIDFromGID("gid://shopify/Product/123456")
	require.NoError(t, err)
	assert.EqualValues(t, 123456, id)

	_, err = ExtractIDFromGID("123456")
	assert.Error(t, err)
}
