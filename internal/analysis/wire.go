package analysis

import (
	"fmt"
	"strings"
	"time"
)

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	UploadID string `json:"uploadId"`
	Message  string `json:"message,omitempty"`
	Status   string `json:"status"`
}

// AnalysisResponse is the body returned by GET /analysis/{uploadId}.
type AnalysisResponse struct {
	UploadID      string                `json:"uploadId"`
	Status        string                `json:"status"`
	UploadDate    string                `json:"uploadDate,omitempty"`
	ImageBase64   string                `json:"imageBase64"`
	ImageMimeType string                `json:"imageMimeType"`
	DetectedItems []DetectedItemPayload `json:"detectedItems"`
	Error         string                `json:"error,omitempty"`
}

type DetectedItemPayload struct {
	ItemID          string           `json:"itemId"`
	Category        string           `json:"category"`
	Color           string           `json:"color"`
	Style           string           `json:"style"`
	Description     string           `json:"description"`
	MatchedProducts []ProductPayload `json:"matchedProducts"`
}

type ProductPayload struct {
	ID          string   `json:"_id"`
	ProductID   string   `json:"productId"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	ShopURL     string   `json:"shopUrl"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Style       string   `json:"style"`
}

// errorResponse covers the error body shapes the backend uses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToResult validates the payload and converts it into an AnalysisResult.
func (p *AnalysisResponse) ToResult(jobID string) (*AnalysisResult, error) {
	status, err := ParseJobStatus(p.Status)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		JobID:         jobID,
		Status:        status,
		ImageBase64:   p.ImageBase64,
		ImageMimeType: p.ImageMimeType,
		DetectedItems: []DetectedItem{},
	}
	if p.UploadID != "" {
		result.JobID = p.UploadID
	}
	if p.UploadDate != "" {
		if t, err := time.Parse(time.RFC3339, p.UploadDate); err == nil {
			result.UploadDate = t
		}
	}
	if status == StatusFailed {
		result.Error = strings.TrimSpace(p.Error)
	}

	for _, item := range p.DetectedItems {
		converted := DetectedItem{
			ID:              item.ItemID,
			Category:        item.Category,
			Color:           item.Color,
			Style:           item.Style,
			Description:     item.Description,
			MatchedProducts: make([]MatchedProduct, 0, len(item.MatchedProducts)),
		}
		for _, prod := range item.MatchedProducts {
			if prod.Price < 0 {
				return nil, &Error{
					Kind:    KindInvalidResponse,
					Message: fmt.Sprintf("product %q has negative price %v", prod.ID, prod.Price),
				}
			}
			converted.MatchedProducts = append(converted.MatchedProducts, MatchedProduct{
				ID:          prod.ID,
				ProductID:   prod.ProductID,
				Name:        prod.Name,
				Category:    prod.Category,
				Brand:       prod.Brand,
				Price:       prod.Price,
				ImageURL:    prod.ImageURL,
				ShopURL:     prod.ShopURL,
				Tags:        prod.Tags,
				Description: prod.Description,
				Color:       prod.Color,
				Style:       prod.Style,
			})
		}
		result.DetectedItems = append(result.DetectedItems, converted)
	}

	return result, nil
}

// NewAnalysisResponse is the inverse of ToResult. It is used when a result is
// written back to the wire format, e.g. by the result cache.
func NewAnalysisResponse(r *AnalysisResult) *AnalysisResponse {
	p := &AnalysisResponse{
		UploadID:      r.JobID,
		Status:        string(r.Status),
		ImageBase64:   r.ImageBase64,
		ImageMimeType: r.ImageMimeType,
		DetectedItems: make([]DetectedItemPayload, 0, len(r.DetectedItems)),
		Error:         r.Error,
	}
	if !r.UploadDate.IsZero() {
		p.UploadDate = r.UploadDate.Format(time.RFC3339)
	}
	for _, item := range r.DetectedItems {
		payload := DetectedItemPayload{
			ItemID:          item.ID,
			Category:        item.Category,
			Color:           item.Color,
			Style:           item.Style,
			Description:     item.Description,
			MatchedProducts: make([]ProductPayload, 0, len(item.MatchedProducts)),
		}
		for _, prod := range item.MatchedProducts {
			payload.MatchedProducts = append(payload.MatchedProducts, ProductPayload{
				ID:          prod.ID,
				ProductID:   prod.ProductID,
				Name:        prod.Name,
				Category:    prod.Category,
				Brand:       prod.Brand,
				Price:       prod.Price,
				ImageURL:    prod.ImageURL,
				ShopURL:     prod.ShopURL,
				Tags:        prod.Tags,
				Description: prod.Description,
				Color:       prod.Color,
				Style:       prod.Style,
			})
		}
		p.DetectedItems = append(p.DetectedItems, payload)
	}
	return p
}
