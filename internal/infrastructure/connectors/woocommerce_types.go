package connectors

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/pimsync/backend/internal/domain/integration"
)

// wooProduct is the WooCommerce REST v3 product document, reduced to the
// fields the sync engine reads back.
type wooProduct struct {
	ID           json.Number        `json:"id"`
	Name         string             `json:"name"`
	SKU          string             `json:"sku"`
	Description  string             `json:"description"`
	RegularPrice string             `json:"regular_price"`
	Weight       string             `json:"weight"`
	Categories   []wooCategory      `json:"categories"`
	Tags         []wooCategory      `json:"tags"`
	Images       []wooImage         `json:"images"`
	Attributes   []wooAttributeLine `json:"attributes"`
}

// wooCategory is a taxonomy entry (category or tag share the shape)
type wooCategory struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Slug string      `json:"slug,omitempty"`
}

// wooImage is an image entry on a product document
type wooImage struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// wooAttributeLine is a product-level custom attribute
type wooAttributeLine struct {
	ID      json.Number `json:"id,omitempty"`
	Name    string      `json:"name"`
	Options []string    `json:"options"`
	Visible bool        `json:"visible"`
}

// wooAttributeDef is a store-level attribute definition (products/attributes)
type wooAttributeDef struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Slug string      `json:"slug,omitempty"`
}

// wooBatchRequest is the body of a POST products/batch call
type wooBatchRequest struct {
	Update []map[string]any `json:"update,omitempty"`
	Create []map[string]any `json:"create,omitempty"`
}

// wooBatchResponse is the result of a products/batch call
type wooBatchResponse struct {
	Update []wooBatchResult `json:"update"`
	Create []wooBatchResult `json:"create"`
}

// wooBatchResult is one line of a batch response; a per-line error is
// reported inline rather than via the HTTP status.
type wooBatchResult struct {
	ID    json.Number `json:"id"`
	Error *wooError   `json:"error,omitempty"`
}

// wooError is the WooCommerce error envelope
type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toExternalProduct converts a store document to the platform-neutral shape
func (p *wooProduct) toExternalProduct(raw json.RawMessage) integration.ExternalProduct {
	out := integration.ExternalProduct{
		ExternalID:  p.ID.String(),
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       parseDecimal(p.RegularPrice),
		Weight:      parseDecimal(p.Weight),
		Raw:         raw,
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, c.Name)
	}
	for _, tg := range p.Tags {
		out.Tags = append(out.Tags, tg.Name)
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, integration.PayloadImage{Src: img.Src, Alt: img.Alt})
	}
	for _, attr := range p.Attributes {
		out.Attributes = append(out.Attributes, integration.ExternalAttribute{
			Name:   attr.Name,
			Values: attr.Options,
		})
	}
	return out
}

// parseDecimal parses a platform decimal string, falling back to zero
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
