// Package models holds the GORM persistence models backing the marketplace
// tables. Domain entities stay free of ORM tags; each model here carries the
// column mappings and converts to and from its domain counterpart, and the
// repositories work exclusively through these models.
package models
