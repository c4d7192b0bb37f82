package stats

import (
	"strings"

	"zborinfo/dispecer/internal/models"
)

// CodeshareRule pairs a marketing carrier code with a substring of the real
// operator's display name. A flight numbered under the marketing code but
// shown with the operator's name is a duplicate of the operator's own leg.
type CodeshareRule struct {
	MarketingCode string
	OperatorName  string
}

// DefaultCodeshareRules covers the carrier/operator mismatches observed in
// the feeds for Romanian and Moldovan airports. The table is a known-
// incomplete heuristic: unlisted partnerships slip through, and an unrelated
// carrier sharing a prefix with a similar name can be flagged wrongly.
var DefaultCodeshareRules = []CodeshareRule{
	// TAROM legs marketed by partners
	{MarketingCode: "AF", OperatorName: "Tarom"},
	{MarketingCode: "KL", OperatorName: "Tarom"},
	{MarketingCode: "LH", OperatorName: "Tarom"},
	{MarketingCode: "OS", OperatorName: "Tarom"},
	{MarketingCode: "AZ", OperatorName: "Tarom"},
	// Air Moldova / FlyOne partnerships
	{MarketingCode: "TK", OperatorName: "FlyOne"},
	{MarketingCode: "PS", OperatorName: "Air Moldova"},
	// Common European marketing pairs seen on RO routes
	{MarketingCode: "JL", OperatorName: "British Airways"},
	{MarketingCode: "AA", OperatorName: "British Airways"},
	{MarketingCode: "IB", OperatorName: "British Airways"},
	{MarketingCode: "DL", OperatorName: "Air France"},
	{MarketingCode: "DL", OperatorName: "KLM"},
	{MarketingCode: "AF", OperatorName: "KLM"},
	{MarketingCode: "KL", OperatorName: "Air France"},
	{MarketingCode: "UA", OperatorName: "Lufthansa"},
	{MarketingCode: "AC", OperatorName: "Lufthansa"},
	{MarketingCode: "EK", OperatorName: "flydubai"},
}

// CodeshareFilter excludes codeshare-duplicate flight records before any
// statistic is computed. Pure function layer, no side effects; raw cached
// data is never touched so it stays inspectable.
type CodeshareFilter struct {
	rules []CodeshareRule
}

// NewCodeshareFilter builds a filter from the given rules, or the default
// table when none are passed.
func NewCodeshareFilter(rules ...CodeshareRule) *CodeshareFilter {
	if len(rules) == 0 {
		rules = DefaultCodeshareRules
	}
	return &CodeshareFilter{rules: rules}
}

// IsCodeshare reports whether the flight looks like a marketing duplicate.
func (f *CodeshareFilter) IsCodeshare(flight models.FlightRecord) bool {
	number := strings.TrimSpace(flight.FlightNumber)
	if number == "" {
		return false
	}

	// Explicit marketing-duplicate markers in the flight number field.
	lower := strings.ToLower(number)
	if strings.Contains(number, "*") || strings.Contains(lower, "operated by") {
		return true
	}

	prefix := marketingPrefix(number)
	if prefix == "" {
		return false
	}

	airlineName := strings.ToLower(flight.Airline.Name)
	for _, rule := range f.rules {
		if prefix == rule.MarketingCode && strings.Contains(airlineName, strings.ToLower(rule.OperatorName)) {
			return true
		}
	}
	return false
}

// Filter returns the flights that are not flagged as codeshares, in the
// original order.
func (f *CodeshareFilter) Filter(flights []models.FlightRecord) []models.FlightRecord {
	kept := make([]models.FlightRecord, 0, len(flights))
	for _, fl := range flights {
		if !f.IsCodeshare(fl) {
			kept = append(kept, fl)
		}
	}
	return kept
}

// marketingPrefix extracts the candidate 2-letter marketing-carrier code.
// Flight numbers with a digit in the first two positions (W63101) have no
// alphabetic prefix and are never table-matched.
func marketingPrefix(number string) string {
	if len(number) < 2 {
		return ""
	}
	a, b := number[0], number[1]
	if !isUpperLetter(a) || !isUpperLetter(b) {
		return ""
	}
	return number[:2]
}

func isUpperLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
