// Package matching derives the per-item cheapest match and the detection
// summary from a completed analysis. Everything here is pure.
package matching

import (
	"fmt"
	"strings"

	"github.com/raine/outfit-finder/internal/analysis"
)

const (
	MsgNoItemsDetected   = "We couldn't detect any clothing items in this image."
	MsgNoSimilarProducts = "No similar products found"
)

// CheapestOf returns the product with the lowest price. Ties go to the
// earliest element. ok is false for an empty slice.
func CheapestOf(products []analysis.MatchedProduct) (cheapest analysis.MatchedProduct, ok bool) {
	if len(products) == 0 {
		return analysis.MatchedProduct{}, false
	}
	idx := cheapestIndex(products)
	return products[idx], true
}

func cheapestIndex(products []analysis.MatchedProduct) int {
	best := 0
	for i := 1; i < len(products); i++ {
		if products[i].Price < products[best].Price {
			best = i
		}
	}
	return best
}

// Summarize returns the sentence shown above the results.
func Summarize(items []analysis.DetectedItem) string {
	switch len(items) {
	case 0:
		return MsgNoItemsDetected
	case 1:
		return fmt.Sprintf("We think your %s is a %s.", items[0].Category, strings.ToLower(items[0].Description))
	}

	categories := make([]string, len(items))
	for i, item := range items {
		categories[i] = item.Category
	}
	return fmt.Sprintf("We detected %d items: %s.", len(items), strings.Join(categories, ", "))
}

// FormatPrice renders a price the way the shop cards do.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}
