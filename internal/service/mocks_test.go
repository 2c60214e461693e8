package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rareport/importcenter/internal/media"
	"github.com/rareport/importcenter/internal/shopify"
)

// fakeAdmin records every call and returns the configured errors
type fakeAdmin struct {
	mu sync.Mutex

	collectionID  string
	collectionErr error
	productErr    error
	stagedErr     error
	mediaErr      error
	metafieldsErr error
	variantIDs    []string
	variantsErr   error
	bulkErr       error
	metaobjectErr error

	calls       map[string]int
	product     shopify.ProductInput
	media       shopify.MediaInput
	stagedName  string
	stagedMime  string
	metafields  []shopify.MetafieldsSetInput
	variants    []shopify.VariantPriceInput
	metaobject  []shopify.MetaobjectField
	productHook func()
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		collectionID: "gid://shopify/Collection/1",
		variantIDs:   []string{"gid://shopify/ProductVariant/1", "gid://shopify/ProductVariant/2"},
		calls:        map[string]int{},
	}
}

func (f *fakeAdmin) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAdmin) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAdmin) ResolveCollectionByTitle(ctx context.Context, title string) (string, error) {
	f.count("ResolveCollectionByTitle")
	return f.collectionID, f.collectionErr
}

func (f *fakeAdmin) CreateProduct(ctx context.Context, input shopify.ProductInput) (*shopify.CreatedProduct, error) {
	f.count("CreateProduct")
	if f.productHook != nil {
		f.productHook()
	}
	if f.productErr != nil {
		return nil, f.productErr
	}
	f.product = input
	return &shopify.CreatedProduct{ID: "gid://shopify/Product/10", Handle: "charizard"}, nil
}

func (f *fakeAdmin) CreateStagedUpload(ctx context.Context, filename, mimeType string) (*shopify.StagedTarget, error) {
	f.count("CreateStagedUpload")
	f.stagedName, f.stagedMime = filename, mimeType
	if f.stagedErr != nil {
		return nil, f.stagedErr
	}
	return &shopify.StagedTarget{URL: "https://upload", ResourceURL: "https://resource/charizard.png"}, nil
}

func (f *fakeAdmin) AttachMedia(ctx context.Context, productID string, m shopify.MediaInput) error {
	f.count("AttachMedia")
	f.media = m
	return f.mediaErr
}

func (f *fakeAdmin) SetMetafields(ctx context.Context, metafields []shopify.MetafieldsSetInput) error {
	f.count("SetMetafields")
	f.metafields = metafields
	return f.metafieldsErr
}

func (f *fakeAdmin) ListVariantIDs(ctx context.Context, productID string, limit int) ([]string, error) {
	f.count("ListVariantIDs")
	if limit > 100 {
		return nil, errors.New("limit too large")
	}
	return f.variantIDs, f.variantsErr
}

func (f *fakeAdmin) BulkUpdateVariantPrices(ctx context.Context, productID string, variants []shopify.VariantPriceInput) error {
	f.count("BulkUpdateVariantPrices")
	f.variants = variants
	return f.bulkErr
}

func (f *fakeAdmin) CreateMetaobject(ctx context.Context, metaobjectType string, fields []shopify.MetaobjectField) (string, error) {
	f.count("CreateMetaobject")
	f.metaobject = fields
	if f.metaobjectErr != nil {
		return "", f.metaobjectErr
	}
	return "gid://shopify/Metaobject/7", nil
}

type fakeImages struct {
	fetchErr  error
	uploadErr error
	mimeType  string // detected type; image/png when empty
	panics    bool
	fetches   int
	uploads   int
}

func (f *fakeImages) Fetch(ctx context.Context, imageURL string) (*media.Image, error) {
	f.fetches++
	if f.panics {
		panic("image decoder crashed")
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	mimeType := f.mimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &media.Image{Data: []byte("png"), MimeType: mimeType}, nil
}

func (f *fakeImages) Upload(ctx context.Context, target *shopify.StagedTarget, filename string, img *media.Image) error {
	f.uploads++
	return f.uploadErr
}
