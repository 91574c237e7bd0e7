// Package marketplace contains the marketplace-sync bounded context.
// This context owns the canonical Listing shape and the sync-job pipeline
// that pulls heterogeneous vendor data into it.
//
// Key concepts:
//   - Listing: canonical, platform-agnostic listing keyed by (platform, external_id)
//   - Adapter: port interface for vendor marketplaces (eBay, Etsy, Reddit)
//   - SyncJob: one bounded execution attempt to pull and apply listings
//   - SyncLeaseRepository: per-platform serialization point for sync runs
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package marketplace
