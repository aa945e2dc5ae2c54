package matching

import (
	"github.com/raine/outfit-finder/internal/analysis"
)

// Report is a render-ready view of a completed analysis.
type Report struct {
	JobID        string       `json:"jobId"`
	Summary      string       `json:"summary"`
	ImageDataURL string       `json:"imageDataUrl,omitempty"`
	Items        []ItemReport `json:"items"`
}

// ItemReport groups one detected item with its matches.
type ItemReport struct {
	ItemID      string          `json:"itemId"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Color       string          `json:"color,omitempty"`
	Style       string          `json:"style,omitempty"`
	Cheapest    *ProductReport  `json:"cheapest,omitempty"`
	Products    []ProductReport `json:"products"`
}

// ProductReport is one product card.
type ProductReport struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	Price      float64 `json:"price"`
	PriceLabel string  `json:"priceLabel"`
	ShopURL    string  `json:"shopUrl"`
	IsCheapest bool    `json:"isCheapest"`
}

// BuildReport aggregates a result into a Report. Items and products keep the
// server's order; exactly one product per non-empty item is flagged cheapest.
func BuildReport(result *analysis.AnalysisResult) Report {
	report := Report{
		JobID:        result.JobID,
		Summary:      Summarize(result.DetectedItems),
		ImageDataURL: result.DataURL(),
		Items:        make([]ItemReport, 0, len(result.DetectedItems)),
	}

	for _, item := range result.DetectedItems {
		ir := ItemReport{
			ItemID:      item.ID,
			Category:    item.Category,
			Description: item.Description,
			Color:       item.Color,
			Style:       item.Style,
			Products:    make([]ProductReport, 0, len(item.MatchedProducts)),
		}

		cheapest := -1
		if len(item.MatchedProducts) > 0 {
			cheapest = cheapestIndex(item.MatchedProducts)
		}
		for i, p := range item.MatchedProducts {
			ir.Products = append(ir.Products, ProductReport{
				ID:         p.ID,
				Name:       p.Name,
				Brand:      p.Brand,
				Price:      p.Price,
				PriceLabel: FormatPrice(p.Price),
				ShopURL:    p.ShopURL,
				IsCheapest: i == cheapest,
			})
		}
		if cheapest >= 0 {
			c := ir.Products[cheapest]
			ir.Cheapest = &c
		}

		report.Items = append(report.Items, ir)
	}

	return report
}
