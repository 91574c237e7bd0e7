package marketplace

// ---------------------------------------------------------------------------
// Platform represents the source marketplace of a listing
// ---------------------------------------------------------------------------

// Platform identifies the marketplace a listing originates from
type Platform string

const (
	// PlatformManual represents listings entered by sellers directly
	PlatformManual Platform = "manual"
	// PlatformEbay represents the eBay marketplace
	PlatformEbay Platform = "ebay"
	// PlatformEtsy represents the Etsy marketplace
	PlatformEtsy Platform = "etsy"
	// PlatformReddit represents denim trading subreddits
	PlatformReddit Platform = "reddit"
	// PlatformWhatnot represents the Whatnot live-selling platform
	PlatformWhatnot Platform = "whatnot"
)

// IsValid returns true if the platform is a known value
func (p Platform) IsValid() bool {
	switch p {
	case PlatformManual, PlatformEbay, PlatformEtsy, PlatformReddit, PlatformWhatnot:
		return true
	default:
		return false
	}
}

// IsSyncable returns true if listings can be pulled for this platform.
// Manual and Whatnot listings are created by sellers, never by the sync
// pipeline.
func (p Platform) IsSyncable() bool {
	switch p {
	case PlatformEbay, PlatformEtsy, PlatformReddit:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// SyncablePlatforms returns the platforms the sync pipeline pulls from
func SyncablePlatforms() []Platform {
	return []Platform{PlatformEbay, PlatformEtsy, PlatformReddit}
}

// ---------------------------------------------------------------------------
// Condition grading
// ---------------------------------------------------------------------------

// Condition represents the condition grade of a listing
type Condition string

const (
	ConditionNewWithTags Condition = "new_with_tags"
	ConditionExcellent   Condition = "excellent"
	ConditionVeryGood    Condition = "very_good"
	ConditionGood        Condition = "good"
	ConditionFair        Condition = "fair"
	ConditionPoor        Condition = "poor"
	// ConditionUnknown is the explicit sentinel for vendors that do not
	// report condition. It is never silently defaulted to a real grade.
	ConditionUnknown Condition = "unknown"
)

// IsValid returns true if the condition is a known grade
func (c Condition) IsValid() bool {
	switch c {
	case ConditionNewWithTags, ConditionExcellent, ConditionVeryGood,
		ConditionGood, ConditionFair, ConditionPoor, ConditionUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of Condition
func (c Condition) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Moderation status
// ---------------------------------------------------------------------------

// ListingStatus represents the moderation lifecycle of a listing.
// These fields are owned by the moderation workflow, not by sync:
// re-syncing a listing must never change its status.
type ListingStatus string

const (
	ListingStatusDraft           ListingStatus = "draft"
	ListingStatusPendingApproval ListingStatus = "pending_approval"
	ListingStatusActive          ListingStatus = "active"
	ListingStatusSold            ListingStatus = "sold"
	ListingStatusInactive        ListingStatus = "inactive"
	ListingStatusRejected        ListingStatus = "rejected"
)

// IsValid returns true if the status is a known value
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusDraft, ListingStatusPendingApproval, ListingStatusActive,
		ListingStatusSold, ListingStatusInactive, ListingStatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}
