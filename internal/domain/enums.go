package domain

// ImportStatus is the outcome of one import workflow run
type ImportStatus string

const (
	ImportStatusPending          ImportStatus = "pending"
	ImportStatusSucceeded        ImportStatus = "succeeded"
	ImportStatusFailedValidation ImportStatus = "failed-validation"
	ImportStatusFailedRemote     ImportStatus = "failed-remote"
	// PARTIAL - product exists but at least one enrichment step failed
	ImportStatusPartial ImportStatus = "partial"
)

// IsValid checks if the import status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending,
		ImportStatusSucceeded,
		ImportStatusFailedValidation,
		ImportStatusFailedRemote,
		ImportStatusPartial:
		return true
	default:
		return false
	}
}

// HasProduct reports whether a product was created in Shopify for this status
func (s ImportStatus) HasProduct() bool {
	return s == ImportStatusSucceeded || s == ImportStatusPartial
}

// Step names an enrichment step that may fail after the product exists
type Step string

const (
	StepImage    Step = "image"
	StepMetadata Step = "metadata"
	StepPrice    Step = "price"
)

// TrackerState is the per-card state shown to the UI
type TrackerState string

const (
	TrackerStateIdle      TrackerState = "idle"
	TrackerStateRunning   TrackerState = "running"
	TrackerStateSucceeded TrackerState = "succeeded"
	TrackerStatePartial   TrackerState = "partial"
	TrackerStateFailed    TrackerState = "failed"
)

// IsTerminal reports whether no workflow is in flight in this state
func (s TrackerState) IsTerminal() bool {
	switch s {
	case TrackerStateSucceeded, TrackerStatePartial, TrackerStateFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a tracker transition is valid
func (s TrackerState) CanTransitionTo(next TrackerState) bool {
	switch s {
	case TrackerStateIdle:
		return next == TrackerStateRunning
	case TrackerStateRunning:
		return next.IsTerminal()
	case TrackerStateSucceeded, TrackerStatePartial, TrackerStateFailed:
		// a new import of the same card starts over
		return next == TrackerStateRunning
	default:
		return false
	}
}

// TrackerStateFor maps a workflow result onto the tracker state
func TrackerStateFor(status ImportStatus) TrackerState {
	switch status {
	case ImportStatusSucceeded:
		return TrackerStateSucceeded
	case ImportStatusPartial:
		return TrackerStatePartial
	case ImportStatusPending:
		return TrackerStateRunning
	default:
		return TrackerStateFailed
	}
}

// ProductStatus is the Shopify product status set on creation
type ProductStatus string

const (
	ProductStatusDraft  ProductStatus = "DRAFT"
	ProductStatusActive ProductStatus = "ACTIVE"
)

// IsValid checks if the product status is accepted by productCreate
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusDraft || s == ProductStatusActive
}

// MetadataMode selects how card attributes are attached to the product
type MetadataMode string

const (
	// MetadataModeMetafields writes one metafield per attribute
	MetadataModeMetafields MetadataMode = "metafields"
	// MetadataModeMetaobject writes a card metaobject and references it from the product
	MetadataModeMetaobject MetadataMode = "metaobject"
)

// IsValid checks if the metadata mode is known
func (m MetadataMode) IsValid() bool {
	return m == MetadataModeMetafields || m == MetadataModeMetaobject
}
