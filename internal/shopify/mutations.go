package shopify

// ProductCreateMutation creates a product and joins it to collections in one call
const ProductCreateMutation = `
mutation productCreate($product: ProductCreateInput!) {
  productCreate(product: $product) {
    product {
      id
      handle
      title
    }
    userErrors {
      field
      message
    }
  }
}
`

// StagedUploadsCreateMutation asks Shopify for a temporary upload target
const StagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}
`

// ProductCreateMediaMutation attaches an uploaded image to a product.
// Note: errors are reported under mediaUserErrors, not userErrors.
const ProductCreateMediaMutation = `
mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
  productCreateMedia(productId: $productId, media: $media) {
    media {
      alt
      mediaContentType
      status
    }
    mediaUserErrors {
      field
      message
      code
    }
  }
}
`

// MetafieldsSetMutation sets metafields on a resource (up to 25 per call)
const MetafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      namespace
      value
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

// ProductVariantsBulkUpdateMutation updates prices of a product's variants
const ProductVariantsBulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants {
      id
      price
    }
    userErrors {
      field
      message
    }
  }
}
`

// MetaobjectCreateMutation creates a metaobject entry of an existing definition
const MetaobjectCreateMutation = `
mutation metaobjectCreate($metaobject: MetaobjectCreateInput!) {
  metaobjectCreate(metaobject: $metaobject) {
    metaobject {
      id
      handle
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

// ProductInput is the subset of ProductCreateInput used for imported cards
type ProductInput struct {
	Title             string   `json:"title"`
	DescriptionHTML   string   `json:"descriptionHtml,omitempty"`
	Vendor            string   `json:"vendor,omitempty"`
	ProductType       string   `json:"productType,omitempty"`
	Status            string   `json:"status,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	CollectionsToJoin []string `json:"collectionsToJoin,omitempty"`
}

// CreatedProduct is what productCreate returns on success
type CreatedProduct struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

// StagedUploadInput requests one staged upload target
type StagedUploadInput struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType"`
	HTTPMethod string `json:"httpMethod"`
	Resource   string `json:"resource"`
}

// StagedUploadParameter is a form field that must be sent with the upload
type StagedUploadParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedTarget is where the file bytes go before productCreateMedia
type StagedTarget struct {
	URL         string                  `json:"url"`
	ResourceURL string                  `json:"resourceUrl"`
	Parameters  []StagedUploadParameter `json:"parameters"`
}

// MediaInput is one CreateMediaInput entry
type MediaInput struct {
	OriginalSource   string `json:"originalSource"`
	Alt              string `json:"alt,omitempty"`
	MediaContentType string `json:"mediaContentType"`
}

// MetafieldsSetInput is used with metafieldsSet mutation
type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// VariantPriceInput is one ProductVariantsBulkInput carrying only a price
type VariantPriceInput struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

// MetaobjectField is one key/value of a metaobject
type MetaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
