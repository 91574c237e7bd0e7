package marketplace

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Listing errors
	ErrListingNotFound      = errors.New("marketplace: listing not found")
	ErrListingInvalidTitle  = errors.New("marketplace: listing title is required")
	ErrListingInvalidPrice  = errors.New("marketplace: listing price is missing or not positive")
	ErrListingInvalidID     = errors.New("marketplace: listing external ID is required")
	ErrListingInvalidSource = errors.New("marketplace: invalid listing platform")

	// Store errors
	ErrStoreConflict = errors.New("marketplace: concurrent write conflict on listing")

	// Job errors
	ErrJobNotFound          = errors.New("marketplace: sync job not found")
	ErrJobInvalidTransition = errors.New("marketplace: invalid sync job status transition")
	ErrSyncAlreadyRunning   = errors.New("marketplace: sync already running for platform")
)

// ---------------------------------------------------------------------------
// IdentityKey
// ---------------------------------------------------------------------------

// IdentityKey is the sole determinant of listing uniqueness across syncs.
type IdentityKey struct {
	Platform   Platform
	ExternalID string
}

// String returns a stable textual form of the key
func (k IdentityKey) String() string {
	return fmt.Sprintf("%s/%s", k.Platform, k.ExternalID)
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// Listing is the canonical, platform-agnostic listing shape. Vendor-sourced
// fields are overwritten on every successful sync; AITags, TrendScore and
// the moderation fields (Status, ApprovedBy, ApprovedAt) are owned by other
// subsystems and preserved across re-syncs.
type Listing struct {
	// ID is the internal identifier
	ID uuid.UUID
	// Platform identifies the source marketplace
	Platform Platform
	// ExternalID is the listing ID on the source platform
	ExternalID string
	// URL is the listing page on the source platform
	URL string

	// Title is the listing title
	Title string
	// Description is the listing body text (may be empty for vendors
	// that require a separate detail call)
	Description string
	// Brand is the denim brand when known (Levi's, Lee, Wrangler, ...)
	Brand string
	// SizeLabel is the vendor-reported size string ("32x34", "M")
	SizeLabel string
	// WaistSize is the waist measurement in inches, nil when unknown
	WaistSize *int
	// InseamLength is the inseam in inches, nil when unknown
	InseamLength *int
	// Condition is the normalized condition grade
	Condition Condition
	// Wash describes the denim wash when known
	Wash string
	// Era is the decade when known ("1950s", "1970s")
	Era string

	// Price is the asking price; always set for a valid listing
	Price decimal.Decimal
	// Currency is the ISO currency code, default USD
	Currency string
	// ShippingCost is the vendor-reported shipping price, zero when unknown
	ShippingCost decimal.Decimal

	// SellerUsername is the vendor-side seller handle
	SellerUsername string
	// SellerRating is the normalized 0..1 seller score, nil when unknown
	SellerRating *float64
	// SellerLocation is the country or region the item ships from
	SellerLocation string

	// ImageURLs is the ordered image sequence; the first entry is primary
	ImageURLs []string
	// ThumbnailURL is the preview image
	ThumbnailURL string

	// RawData is the original vendor payload, preserved for replay
	RawData string

	// Status is the moderation status, owned by the approval workflow
	Status ListingStatus
	// AITags is populated by the analysis step, never by sync
	AITags []string
	// TrendScore is populated by the analysis step, never by sync
	TrendScore *float64

	// ListedAt is when the item was listed on the platform
	ListedAt time.Time
	// LastSyncedAt is when the sync pipeline last saw this listing
	LastSyncedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity returns the listing's identity key
func (l *Listing) Identity() IdentityKey {
	return IdentityKey{Platform: l.Platform, ExternalID: l.ExternalID}
}

// Validate checks the invariants a canonical listing must satisfy before
// it may be upserted. Missing required fields are reported as errors, not
// papered over with defaults.
func (l *Listing) Validate() error {
	if !l.Platform.IsValid() {
		return ErrListingInvalidSource
	}
	if l.ExternalID == "" {
		return ErrListingInvalidID
	}
	if l.Title == "" {
		return ErrListingInvalidTitle
	}
	if !l.Price.IsPositive() {
		return ErrListingInvalidPrice
	}
	if !l.Condition.IsValid() {
		l.Condition = ConditionUnknown
	}
	if l.Currency == "" {
		l.Currency = "USD"
	}
	if !l.Status.IsValid() {
		l.Status = ListingStatusPendingApproval
	}
	return nil
}

// UpsertOutcome reports whether an upsert created or updated a row
type UpsertOutcome string

const (
	// UpsertCreated indicates a new listing row was inserted
	UpsertCreated UpsertOutcome = "created"
	// UpsertUpdated indicates an existing row was refreshed
	UpsertUpdated UpsertOutcome = "updated"
)
