package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/domain"
	"github.com/rareport/importcenter/internal/media"
	"github.com/rareport/importcenter/internal/shopify"
	"github.com/rareport/importcenter/pkg/errors"
)

// CardMetaobjectType is the metaobject definition card details are written to
const CardMetaobjectType = "pokemon_trading_card"

// CardDetailsKey is the product metafield that references the card metaobject
const CardDetailsKey = "card_details"

// AdminAPI is the subset of the Shopify Admin API the importer calls
type AdminAPI interface {
	ResolveCollectionByTitle(ctx context.Context, title string) (string, error)
	CreateProduct(ctx context.Context, input shopify.ProductInput) (*shopify.CreatedProduct, error)
	CreateStagedUpload(ctx context.Context, filename, mimeType string) (*shopify.StagedTarget, error)
	AttachMedia(ctx context.Context, productID string, media shopify.MediaInput) error
	SetMetafields(ctx context.Context, metafields []shopify.MetafieldsSetInput) error
	ListVariantIDs(ctx context.Context, productID string, limit int) ([]string, error)
	BulkUpdateVariantPrices(ctx context.Context, productID string, variants []shopify.VariantPriceInput) error
	CreateMetaobject(ctx context.Context, metaobjectType string, fields []shopify.MetaobjectField) (string, error)
}

// ImageTransfer fetches a source image and uploads it to a staged target
type ImageTransfer interface {
	Fetch(ctx context.Context, imageURL string) (*media.Image, error)
	Upload(ctx context.Context, target *shopify.StagedTarget, filename string, img *media.Image) error
}

// Importer runs the import workflow for one sanitized request
type Importer struct {
	admin  AdminAPI
	images ImageTransfer
	cfg    config.ImportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter creates an Importer
func NewImporter(admin AdminAPI, images ImageTransfer, cfg config.ImportConfig, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		admin:  admin,
		images: images,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ImportProduct creates the product and enriches it with image, metadata and price.
// Collection or product failures end the run as failed-remote. Once the product
// exists every later failure is recorded on the result and the remaining steps still run.
func (i *Importer) ImportProduct(ctx context.Context, req *domain.ImportRequest) *domain.ImportResult {
	result := &domain.ImportResult{
		Status:    domain.ImportStatusPending,
		StartedAt: i.now(),
	}
	if req == nil {
		return i.finish(result, domain.ImportStatusFailedValidation, "import request is empty")
	}
	result.CardID = req.SourceID
	logger := i.logger.With(zap.String("card_id", req.SourceID))

	// requests built by hand skip Sanitize
	if err := requestValidator.Struct(req); err != nil {
		return i.finish(result, domain.ImportStatusFailedValidation, toValidationError(err).Error())
	}

	collectionID, err := i.admin.ResolveCollectionByTitle(ctx, i.cfg.CollectionTitle)
	if err == nil && collectionID == "" {
		err = &errors.ErrNotFound{Resource: "collection", ID: i.cfg.CollectionTitle}
	}
	if err != nil {
		fatal := &errors.ErrRemoteFatal{Step: "collection", Err: err}
		logger.Error("Failed to resolve collection", zap.String("collection", i.cfg.CollectionTitle), zap.Error(err))
		return i.finish(result, domain.ImportStatusFailedRemote, fatal.Error())
	}

	product, err := i.admin.CreateProduct(ctx, i.productInput(req, collectionID))
	if err != nil {
		fatal := &errors.ErrRemoteFatal{Step: "product", Err: err}
		logger.Error("Failed to create product", zap.Error(err))
		return i.finish(result, domain.ImportStatusFailedRemote, fatal.Error())
	}
	result.ProductID = product.ID
	result.ProductHandle = product.Handle
	logger = logger.With(zap.String("product_id", product.ID))

	var failures []*errors.StepFailure
	record := func(step domain.Step, err error) {
		if err == nil {
			return
		}
		logger.Warn("Import step failed", zap.String("step", string(step)), zap.Error(err))
		failures = append(failures, &errors.StepFailure{Step: step, Err: err})
	}

	if req.ImageURL != "" {
		record(domain.StepImage, guard(func() error { return i.attachImage(ctx, product.ID, req) }))
	}
	record(domain.StepMetadata, guard(func() error { return i.setMetadata(ctx, product.ID, req) }))
	if req.HasPrice() {
		record(domain.StepPrice, guard(func() error { return i.setPrice(ctx, product.ID, req) }))
	}

	if len(failures) == 0 {
		logger.Info("Imported card")
		return i.finish(result, domain.ImportStatusSucceeded, "")
	}

	result.StepErrors = make(map[domain.Step]string, len(failures))
	msgs := make([]string, 0, len(failures))
	for _, f := range failures {
		result.FailedSteps = append(result.FailedSteps, f.Step)
		result.StepErrors[f.Step] = f.Err.Error()
		msgs = append(msgs, f.Error())
	}
	logger.Warn("Imported card with failed steps", zap.Any("failed_steps", result.FailedSteps))
	return i.finish(result, domain.ImportStatusPartial, strings.Join(msgs, "; "))
}

// guard turns a panic in an enrichment step into that step's error
func guard(step func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step()
}

func (i *Importer) finish(result *domain.ImportResult, status domain.ImportStatus, message string) *domain.ImportResult {
	result.Status = status
	result.ErrorMessage = message
	result.FinishedAt = i.now()
	return result
}

// ProductTitle formats "<source> | <name> | <set> / <number>"
func ProductTitle(source string, req *domain.ImportRequest) string {
	title := fmt.Sprintf("%s | %s / %s", req.Title, req.SetName, req.CardNumber)
	if source = strings.TrimSpace(source); source != "" {
		title = source + " | " + title
	}
	return title
}

func (i *Importer) productInput(req *domain.ImportRequest, collectionID string) shopify.ProductInput {
	vendor := req.Vendor
	if vendor == "" {
		vendor = i.cfg.DefaultVendor
	}
	productType := req.ProductType
	if productType == "" {
		productType = i.cfg.DefaultProductType
	}
	status := i.cfg.ProductStatus
	if !status.IsValid() {
		status = domain.ProductStatusDraft
	}

	var tags []string
	_ = json.Unmarshal([]byte(req.Types), &tags)

	return shopify.ProductInput{
		Title:             ProductTitle(i.cfg.TitleSource, req),
		DescriptionHTML:   descriptionHTML(req.Description),
		Vendor:            vendor,
		ProductType:       productType,
		Status:            string(status),
		Tags:              tags,
		CollectionsToJoin: []string{collectionID},
	}
}

func descriptionHTML(description string) string {
	if description == "" {
		return ""
	}
	return "<p>" + html.EscapeString(description) + "</p>"
}

// attachImage fetches the card image, stages it in Shopify and attaches it to the product.
// The staged MIME type and filename extension follow the sniffed content, not the URL.
func (i *Importer) attachImage(ctx context.Context, productID string, req *domain.ImportRequest) error {
	img, err := i.images.Fetch(ctx, req.ImageURL)
	if err != nil {
		return err
	}
	guessed := media.GuessMimeType(req.ImageURL)
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = guessed
	} else if mimeType != guessed {
		i.logger.Warn("Image content does not match its URL extension",
			zap.String("url", req.ImageURL),
			zap.String("guessed", guessed),
			zap.String("detected", mimeType),
		)
	}
	filename := media.Filename(strings.Join([]string{req.Title, req.SetName, req.CardNumber}, " "), mimeType)

	target, err := i.admin.CreateStagedUpload(ctx, filename, mimeType)
	if err != nil {
		return fmt.Errorf("create staged upload: %w", err)
	}
	if err := i.images.Upload(ctx, target, filename, img); err != nil {
		return err
	}
	return i.admin.AttachMedia(ctx, productID, shopify.MediaInput{
		OriginalSource:   target.ResourceURL,
		Alt:              fmt.Sprintf("%s - %s", req.Title, req.SetName),
		MediaContentType: "IMAGE",
	})
}

func (i *Importer) setMetadata(ctx context.Context, productID string, req *domain.ImportRequest) error {
	if i.cfg.MetadataMode == domain.MetadataModeMetaobject {
		metaobjectID, err := i.admin.CreateMetaobject(ctx, CardMetaobjectType, CardMetaobjectFields(productID, req))
		if err != nil {
			return fmt.Errorf("create card metaobject: %w", err)
		}
		return i.admin.SetMetafields(ctx, []shopify.MetafieldsSetInput{{
			OwnerID:   productID,
			Namespace: i.cfg.MetafieldNamespace,
			Key:       CardDetailsKey,
			Type:      "metaobject_reference",
			Value:     metaobjectID,
		}})
	}
	return i.admin.SetMetafields(ctx, CardMetafields(productID, req, i.cfg.MetafieldNamespace, i.cfg.MarketplaceNamespace))
}

// setPrice sets every variant (up to 100) to the resolved price
func (i *Importer) setPrice(ctx context.Context, productID string, req *domain.ImportRequest) error {
	ids, err := i.admin.ListVariantIDs(ctx, productID, shopify.MaxVariantsPerQuery)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("product has no variants")
	}
	price := req.PriceString()
	variants := make([]shopify.VariantPriceInput, len(ids))
	for n, id := range ids {
		variants[n] = shopify.VariantPriceInput{ID: id, Price: price}
	}
	return i.admin.BulkUpdateVariantPrices(ctx, productID, variants)
}

type field struct {
	namespace, key, typ, value string
}

// cardFields coerces request values per metafield type; blank values are dropped
func cardFields(req *domain.ImportRequest, cardNS, marketNS string) []field {
	candidates := []field{
		{cardNS, "set_name", "single_line_text_field", req.SetName},
		{cardNS, "card_number", "single_line_text_field", req.CardNumber},
		{cardNS, "rarity", "single_line_text_field", req.Rarity},
		{cardNS, "hp", "number_integer", req.HP},
		{cardNS, "types", "list.single_line_text_field", req.Types},
		{cardNS, "artist", "single_line_text_field", req.Artist},
		{marketNS, "url", "url", req.MarketplaceURL},
		{marketNS, "prices", "json", req.MarketplacePrices},
	}
	if req.HasPrice() {
		candidates = append(candidates, field{marketNS, "market_price", "number_decimal", req.PriceString()})
	}

	out := make([]field, 0, len(candidates))
	for _, f := range candidates {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func keep(f field) bool {
	switch f.typ {
	case "number_integer":
		// "0" is what the sanitizer returns for unknown HP
		return f.value != "" && f.value != "0"
	case "list.single_line_text_field":
		return f.value != "" && f.value != "[]"
	case "json":
		return f.value != "" && f.value != "{}" && json.Valid([]byte(f.value))
	case "url":
		return validURL(f.value)
	default:
		return strings.TrimSpace(f.value) != ""
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CardMetafields builds the batched metafieldsSet input for a product
func CardMetafields(productID string, req *domain.ImportRequest, cardNS, marketNS string) []shopify.MetafieldsSetInput {
	fields := cardFields(req, cardNS, marketNS)
	out := make([]shopify.MetafieldsSetInput, len(fields))
	for n, f := range fields {
		out[n] = shopify.MetafieldsSetInput{
			OwnerID:   productID,
			Namespace: f.namespace,
			Key:       f.key,
			Type:      f.typ,
			Value:     f.value,
		}
	}
	return out
}

// CardMetaobjectFields maps the request onto the pokemon_trading_card definition
func CardMetaobjectFields(productID string, req *domain.ImportRequest) []shopify.MetaobjectField {
	out := make([]shopify.MetaobjectField, 0, 9)
	for _, f := range cardFields(req, "", "") {
		// the definition has no raw price map
		if f.key == "prices" {
			continue
		}
		out = append(out, shopify.MetaobjectField{Key: f.key, Value: f.value})
	}
	return append(out, shopify.MetaobjectField{Key: "product", Value: productID})
}
