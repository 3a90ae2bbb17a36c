// Package extract holds the deterministic side of message interpretation:
// the intent router and the rule-based custody extractor. Everything here is
// a pure parse; persistence happens downstream.
package extract

import "strings"

// Route says which extractor handles a message.
type Route string

const (
	RouteRule   Route = "rule"
	RouteOracle Route = "oracle"
)

// custodyKeywords are the spelling variants that gate the rule path. The
// check runs before any oracle call so the dominant transaction type is
// handled deterministically and without an external request.
var custodyKeywords = []string{"عهدة", "عهده", "custody"}

// RouteText routes on the lower-cased raw text: rule iff a custody keyword
// variant is present, oracle otherwise. Pure and deterministic.
func RouteText(rawText string) Route {
	lower := strings.ToLower(rawText)
	for _, kw := range custodyKeywords {
		if strings.Contains(lower, kw) {
			return RouteRule
		}
	}
	return RouteOracle
}
