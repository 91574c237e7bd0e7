package marketplace

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing() *Listing {
	return &Listing{
		Platform:   PlatformEbay,
		ExternalID: "v1|123456|0",
		Title:      "Vintage Levi's 501 Selvedge 32x34",
		Brand:      "Levi's",
		Condition:  ConditionVeryGood,
		Price:      decimal.NewFromFloat(450.00),
		Currency:   "USD",
	}
}

func TestListing_Identity(t *testing.T) {
	l := validListing()

	key := l.Identity()

	assert.Equal(t, PlatformEbay, key.Platform)
	assert.Equal(t, "v1|123456|0", key.ExternalID)
	assert.Equal(t, "ebay/v1|123456|0", key.String())
}

func TestListing_Validate(t *testing.T) {
	require.NoError(t, validListing().Validate())
}

func TestListing_Validate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Listing)
		wantErr error
	}{
		{"missing external id", func(l *Listing) { l.ExternalID = "" }, ErrListingInvalidID},
		{"missing title", func(l *Listing) { l.Title = "" }, ErrListingInvalidTitle},
		{"negative price", func(l *Listing) { l.Price = decimal.NewFromInt(-1) }, ErrListingInvalidPrice},
		{"missing price", func(l *Listing) { l.Price = decimal.Zero }, ErrListingInvalidPrice},
		{"bad platform", func(l *Listing) { l.Platform = "amazon" }, ErrListingInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(l)
			assert.ErrorIs(t, l.Validate(), tt.wantErr)
		})
	}
}

func TestListing_Validate_AppliesSentinelDefaults(t *testing.T) {
	l := validListing()
	l.Condition = ""
	l.Currency = ""
	l.Status = ""

	require.NoError(t, l.Validate())

	// Unknowns are explicit sentinels, not fabricated grades.
	assert.Equal(t, ConditionUnknown, l.Condition)
	assert.Equal(t, "USD", l.Currency)
	assert.Equal(t, ListingStatusPendingApproval, l.Status)
}

func TestPlatform_IsSyncable(t *testing.T) {
	assert.True(t, PlatformEbay.IsSyncable())
	assert.True(t, PlatformEtsy.IsSyncable())
	assert.True(t, PlatformReddit.IsSyncable())
	assert.False(t, PlatformManual.IsSyncable())
	assert.False(t, PlatformWhatnot.IsSyncable())
}

func TestListingFilter_Normalize(t *testing.T) {
	f := ListingFilter{}
	f.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "created_at", f.SortBy)
	assert.True(t, f.SortDesc)

	f = ListingFilter{Page: 3, PageSize: 500, SortBy: "price"}
	f.Normalize()

	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "price", f.SortBy)
}

func TestFetchQuery_Validate(t *testing.T) {
	q := FetchQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, "vintage jeans", q.Keywords)
	assert.Equal(t, 100, q.Limit)

	q = FetchQuery{Keywords: "levis 501", Limit: 250}
	require.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)
}
