package ecommerce

import "encoding/json"

// etsySearchResponse is the listings/active envelope. Results stay raw so
// one malformed listing never aborts the page.
type etsySearchResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// etsyListing is one active listing record
type etsyListing struct {
	ListingID        int64       `json:"listing_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	State            string      `json:"state"`
	URL              string      `json:"url"`
	CreatedTimestamp int64       `json:"created_timestamp"`
	Views            int         `json:"views"`
	NumFavorers      int         `json:"num_favorers"`
	WhenMade         string      `json:"when_made"`
	Price            *etsyMoney  `json:"price"`
	ShopName         string      `json:"shop_name"`
	Images           []etsyImage `json:"images"`
	Shop             *etsyShop   `json:"shop"`
}

// etsyMoney is a fixed-point money value: amount divided by divisor
type etsyMoney struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// etsyImage is one listing image in its common size variants
type etsyImage struct {
	URL570xN     string `json:"url_570xN"`
	URLFullxfull string `json:"url_fullxfull"`
}

// etsyShop is the shop summary included with a listing
type etsyShop struct {
	ShopName string `json:"shop_name"`
	City     string `json:"city"`
}

// etsyErrorResponse is the v3 API error envelope
type etsyErrorResponse struct {
	Error string `json:"error"`
}
