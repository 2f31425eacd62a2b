package connectors

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pimsync/backend/internal/domain/integration"
)

// myDealFeedAck is the 202 acknowledgement of a product feed submission.
// StatusURL is the callback-style URI whose last path segment is the feed id.
type myDealFeedAck struct {
	FeedID    string `json:"FeedId"`
	StatusURL string `json:"StatusUrl"`
}

// workRef returns the reference the sync core tracks for this submission
func (a *myDealFeedAck) workRef() string {
	if a.StatusURL != "" {
		return a.StatusURL
	}
	return a.FeedID
}

// myDealFeedStatus is the raw status envelope returned by the feed status
// route. Status discriminates which of the remaining fields are meaningful.
type myDealFeedStatus struct {
	Status   string              `json:"Status"`
	Products []myDealFeedProduct `json:"Products,omitempty"`
	Errors   []string            `json:"Errors,omitempty"`
}

// myDealFeedProduct is one product line of a completed feed
type myDealFeedProduct struct {
	ProductID string `json:"ProductId"`
	SKU       string `json:"SKU"`
}

// decodeFeedStatus turns the raw status envelope into the platform-neutral
// report. The envelope is a discriminated union on Status: the state names
// select which payload fields apply, unknown states are a hard decode error.
func decodeFeedStatus(body []byte) (*integration.WorkStatusReport, error) {
	var envelope myDealFeedStatus
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed status: %v", integration.ErrPlatformInvalidResponse, err)
	}

	switch strings.ToLower(envelope.Status) {
	case "pending", "inprogress", "in_progress", "processing":
		return &integration.WorkStatusReport{State: integration.WorkStateInProgress}, nil

	case "complete", "completed", "success":
		report := &integration.WorkStatusReport{
			State: integration.WorkStateCompleted,
			Data:  json.RawMessage(body),
		}
		if len(envelope.Products) > 0 {
			report.ExternalProductID = envelope.Products[0].ProductID
			report.ExternalSKU = envelope.Products[0].SKU
		}
		return report, nil

	case "failed", "error":
		errs := envelope.Errors
		if len(errs) == 0 {
			errs = []string{"feed failed without a platform error list"}
		}
		return &integration.WorkStatusReport{
			State:  integration.WorkStateFailed,
			Errors: errs,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown feed state %q", integration.ErrPlatformInvalidResponse, envelope.Status)
	}
}

// myDealProduct is a marketplace product document, reduced to the fields
// the sync engine reads back
type myDealProduct struct {
	ProductID   json.Number        `json:"ProductId"`
	Title       string             `json:"Title"`
	SKU         string             `json:"SKU"`
	Description string             `json:"Description"`
	Price       json.Number        `json:"Price"`
	Weight      json.Number        `json:"Weight"`
	Categories  []string           `json:"Categories"`
	Images      []string           `json:"Images"`
	Attributes  []myDealAttribute  `json:"Attributes"`
}

// myDealAttribute is a custom attribute on a marketplace product
type myDealAttribute struct {
	Name   string   `json:"Name"`
	Values []string `json:"Values"`
}

// myDealProductPage is one page of the product listing route
type myDealProductPage struct {
	Products   []json.RawMessage `json:"Products"`
	PageIndex  int               `json:"PageIndex"`
	TotalPages int               `json:"TotalPages"`
}

// myDealCategory is a curated marketplace taxonomy entry
type myDealCategory struct {
	CategoryID json.Number `json:"CategoryId"`
	Name       string      `json:"Name"`
}

// myDealError is the marketplace error envelope
type myDealError struct {
	Message string   `json:"Message"`
	Errors  []string `json:"Errors,omitempty"`
}

// toExternalProduct converts a marketplace document to the neutral shape
func (p *myDealProduct) toExternalProduct(raw json.RawMessage) integration.ExternalProduct {
	out := integration.ExternalProduct{
		ExternalID:  p.ProductID.String(),
		Name:        p.Title,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       parseDecimal(p.Price.String()),
		Weight:      parseDecimal(p.Weight.String()),
		Categories:  p.Categories,
		Raw:         raw,
	}
	for _, src := range p.Images {
		out.Images = append(out.Images, integration.PayloadImage{Src: src})
	}
	for _, attr := range p.Attributes {
		out.Attributes = append(out.Attributes, integration.ExternalAttribute{
			Name:   attr.Name,
			Values: attr.Values,
		})
	}
	return out
}
