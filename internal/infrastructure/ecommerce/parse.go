package ecommerce

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fadedindigo/backend/internal/domain/marketplace"
)

// ParseDecimal parses a decimal string, returning zero for invalid input
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// pricePattern matches $123, $123.45 and $1,234.56
var pricePattern = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)

// extractPrice pulls the first dollar amount out of free text. Returns nil
// when no price is present.
func extractPrice(text string) *decimal.Decimal {
	matches := pricePattern.FindStringSubmatch(text)
	if matches == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(matches[1], ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// knownBrands are the denim brands recognized in titles and descriptions.
// Order matters: more specific names come before their substrings.
var knownBrands = []string{
	"Levi's", "Levis", "Lee", "Wrangler", "Calvin Klein",
	"Diesel", "G-Star", "Nudie", "APC", "Naked & Famous",
	"3sixteen", "Iron Heart", "Pure Blue Japan", "Momotaro",
	"Samurai", "Evisu", "Edwin", "Oni", "Studio D'Artisan",
}

// extractBrand returns the first known denim brand mentioned in the text,
// or empty string when none matches
func extractBrand(text string) string {
	lower := strings.ToLower(text)
	for _, brand := range knownBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

// sizePattern matches "32x34", "32 x 34", "W32 L34"
var (
	sizePattern       = regexp.MustCompile(`\b(\d{2})\s*[xX]\s*(\d{2})\b`)
	waistOnlyPattern  = regexp.MustCompile(`\b[wW](\d{2})\b`)
	inseamOnlyPattern = regexp.MustCompile(`\b[lL](\d{2})\b`)
)

// extractMeasurements pulls waist and inseam inches from listing text.
// Either value may be nil when not present.
func extractMeasurements(text string) (waist, inseam *int) {
	if m := sizePattern.FindStringSubmatch(text); m != nil {
		w, _ := strconv.Atoi(m[1])
		l, _ := strconv.Atoi(m[2])
		if plausibleWaist(w) && plausibleInseam(l) {
			return &w, &l
		}
	}
	if m := waistOnlyPattern.FindStringSubmatch(text); m != nil {
		if w, _ := strconv.Atoi(m[1]); plausibleWaist(w) {
			waist = &w
		}
	}
	if m := inseamOnlyPattern.FindStringSubmatch(text); m != nil {
		if l, _ := strconv.Atoi(m[1]); plausibleInseam(l) {
			inseam = &l
		}
	}
	return waist, inseam
}

func plausibleWaist(n int) bool {
	return n >= 20 && n <= 60
}

func plausibleInseam(n int) bool {
	return n >= 24 && n <= 40
}

// eraPattern matches decade references like "1970s" or "70s"
var eraPattern = regexp.MustCompile(`\b(19[2-9]0)'?s\b`)

// extractEra returns the decade mentioned in the text ("1970s"), or empty
func extractEra(text string) string {
	if m := eraPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "s"
	}
	return ""
}

// knownWashes are wash descriptions recognized in listing text
var knownWashes = []string{
	"acid wash", "stone wash", "stonewash", "light wash", "dark wash",
	"medium wash", "raw denim", "rinse", "selvedge",
}

// extractWash returns the denim wash mentioned in the text, or empty
func extractWash(text string) string {
	lower := strings.ToLower(text)
	for _, wash := range knownWashes {
		if strings.Contains(lower, wash) {
			return wash
		}
	}
	return ""
}

// mapConditionText maps free-form vendor condition text to a canonical
// grade. Unrecognized text maps to the explicit unknown sentinel, never to
// a real grade.
func mapConditionText(text string) marketplace.Condition {
	lower := strings.ToLower(text)
	switch {
	case lower == "":
		return marketplace.ConditionUnknown
	case strings.Contains(lower, "new with tags"), strings.Contains(lower, "nwt"),
		strings.Contains(lower, "new with box"), lower == "new":
		return marketplace.ConditionNewWithTags
	case strings.Contains(lower, "like new"), strings.Contains(lower, "excellent"):
		return marketplace.ConditionExcellent
	case strings.Contains(lower, "very good"):
		return marketplace.ConditionVeryGood
	case strings.Contains(lower, "good"), strings.Contains(lower, "pre-owned"),
		strings.Contains(lower, "used"):
		return marketplace.ConditionGood
	case strings.Contains(lower, "fair"), strings.Contains(lower, "acceptable"):
		return marketplace.ConditionFair
	case strings.Contains(lower, "poor"), strings.Contains(lower, "parts"):
		return marketplace.ConditionPoor
	default:
		return marketplace.ConditionUnknown
	}
}
