package ecommerce

import "encoding/json"

// ebayTokenResponse is the OAuth client-credentials token response
type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// ebaySearchResponse is the Browse API item_summary/search envelope.
// ItemSummaries stays raw so one malformed item never aborts the page.
type ebaySearchResponse struct {
	Href          string            `json:"href"`
	Total         int               `json:"total"`
	Next          string            `json:"next"`
	Limit         int               `json:"limit"`
	Offset        int               `json:"offset"`
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
}

// ebayItemSummary is one Browse API item summary
type ebayItemSummary struct {
	ItemID           string          `json:"itemId"`
	Title            string          `json:"title"`
	ItemWebURL       string          `json:"itemWebUrl"`
	ItemCreationDate string          `json:"itemCreationDate"`
	Condition        string          `json:"condition"`
	Price            *ebayAmount     `json:"price"`
	Image            *ebayImage      `json:"image"`
	AdditionalImages []ebayImage     `json:"additionalImages"`
	Seller           *ebaySeller     `json:"seller"`
	ItemLocation     *ebayLocation   `json:"itemLocation"`
	ShippingOptions  []ebayShipping  `json:"shippingOptions"`
	Categories       []ebayCategory  `json:"categories"`
}

// ebayAmount is a money value in the Browse API
type ebayAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ebayImage is an image reference
type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

// ebaySeller is the listing seller summary
type ebaySeller struct {
	Username           string `json:"username"`
	FeedbackPercentage string `json:"feedbackPercentage"`
	FeedbackScore      int    `json:"feedbackScore"`
}

// ebayLocation is the item ship-from location
type ebayLocation struct {
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
	Country         string `json:"country"`
}

// ebayShipping is one shipping option
type ebayShipping struct {
	ShippingCostType string      `json:"shippingCostType"`
	ShippingCost     *ebayAmount `json:"shippingCost"`
}

// ebayCategory is a category reference
type ebayCategory struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ebayErrorResponse is the Browse API error envelope
type ebayErrorResponse struct {
	Errors []ebayError `json:"errors"`
}

// ebayError is one API error entry
type ebayError struct {
	ErrorID  int    `json:"errorId"`
	Domain   string `json:"domain"`
	Message  string `json:"message"`
	LongMsg  string `json:"longMessage"`
	Category string `json:"category"`
}
