package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is invalid, empty, or not
// in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ListingSortFields contains allowed sort fields for listings
var ListingSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"price":       true,
	"brand":       true,
	"condition":   true,
	"listed_at":   true,
	"trend_score": true,
	"platform":    true,
}

// SyncJobSortFields contains allowed sort fields for sync jobs
var SyncJobSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"platform":     true,
	"status":       true,
	"started_at":   true,
	"completed_at": true,
}
