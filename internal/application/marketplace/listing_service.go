package marketplace

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
	"github.com/fadedindigo/backend/internal/domain/shared"
)

// ListingQueryService serves the listing read side
type ListingQueryService struct {
	listings marketplace.ListingRepository
}

// NewListingQueryService creates a new ListingQueryService
func NewListingQueryService(listings marketplace.ListingRepository) *ListingQueryService {
	return &ListingQueryService{listings: listings}
}

// List returns listings matching the query plus the total count
func (s *ListingQueryService) List(ctx context.Context, query ListingListQuery) ([]ListingResponse, int64, error) {
	filter, err := buildListingFilter(query)
	if err != nil {
		return nil, 0, err
	}

	listings, total, err := s.listings.FindAll(ctx, *filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = *ToListingResponse(&listings[i])
	}
	return responses, total, nil
}

// GetByID returns a single listing
func (s *ListingQueryService) GetByID(ctx context.Context, id uuid.UUID) (*ListingResponse, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToListingResponse(listing), nil
}

// Search matches keywords against title, description and brand
func (s *ListingQueryService) Search(ctx context.Context, keywords, platform string, limit int) ([]ListingResponse, error) {
	var platformFilter *marketplace.Platform
	if platform != "" {
		p, err := parsePlatform(platform)
		if err != nil {
			return nil, err
		}
		platformFilter = &p
	}

	listings, err := s.listings.Search(ctx, keywords, platformFilter, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]ListingResponse, len(listings))
	for i := range listings {
		responses[i] = *ToListingResponse(&listings[i])
	}
	return responses, nil
}

// buildListingFilter translates the query surface into the domain filter
func buildListingFilter(query ListingListQuery) (*marketplace.ListingFilter, error) {
	filter := &marketplace.ListingFilter{
		Brand:     query.Brand,
		SizeLabel: query.Size,
		SortBy:    query.SortBy,
		SortDesc:  query.SortOrder != "asc",
		Page:      query.Page,
		PageSize:  query.PageSize,
	}

	if query.Platform != "" {
		p, err := parsePlatform(query.Platform)
		if err != nil {
			return nil, err
		}
		filter.Platform = &p
	}
	if query.Condition != "" {
		c := marketplace.Condition(query.Condition)
		if !c.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown condition: "+query.Condition)
		}
		filter.Condition = &c
	}
	if query.Status != "" {
		st := marketplace.ListingStatus(query.Status)
		if !st.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown listing status: "+query.Status)
		}
		filter.Status = &st
	}
	if query.MinPrice != "" {
		min, err := decimal.NewFromString(query.MinPrice)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid min_price")
		}
		filter.MinPrice = &min
	}
	if query.MaxPrice != "" {
		max, err := decimal.NewFromString(query.MaxPrice)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid max_price")
		}
		filter.MaxPrice = &max
	}
	return filter, nil
}

// parsePlatform validates a platform query value
func parsePlatform(value string) (marketplace.Platform, error) {
	p := marketplace.Platform(value)
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unknown platform: "+value)
	}
	return p, nil
}
