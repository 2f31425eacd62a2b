package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pimsync/backend/internal/domain/integration"
)

// MyDealAdapter implements the connector contract for the MyDeal
// marketplace. Product submissions are accepted asynchronously: Create and
// the bulk update calls return a work reference parsed from the
// acknowledgement's status URI, and the outcome is discovered via PollWork.
type MyDealAdapter struct {
	httpClient *http.Client
}

// NewMyDealAdapter creates a new MyDeal adapter
func NewMyDealAdapter(timeout time.Duration) *MyDealAdapter {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &MyDealAdapter{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PlatformCode returns the platform code this adapter handles
func (a *MyDealAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeMyDeal
}

// Ping validates the connection's credentials against the marketplace
func (a *MyDealAdapter) Ping(ctx context.Context, conn *integration.Connection) error {
	_, err := a.doRequest(ctx, conn, http.MethodGet, myDealRouteProducts+"?pageIndex=1&pageSize=1", nil)
	return err
}

// Create submits a product feed. The marketplace acknowledges with 202 and
// a status URI; the returned work reference must be polled for the outcome.
func (a *MyDealAdapter) Create(ctx context.Context, conn *integration.Connection, payload integration.ExternalPayload) (*integration.CreateResult, error) {
	body, err := a.doRequest(ctx, conn, http.MethodPost, myDealRouteFeed, payload)
	if err != nil {
		return nil, err
	}

	var ack myDealFeedAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed acknowledgement: %v", integration.ErrPlatformInvalidResponse, err)
	}
	ref := ack.workRef()
	if ref == "" {
		return nil, fmt.Errorf("%w: feed acknowledgement carries no reference", integration.ErrPlatformInvalidResponse)
	}
	return &integration.CreateResult{WorkRef: ref}, nil
}

// Update resubmits a product feed carrying the external id
func (a *MyDealAdapter) Update(ctx context.Context, conn *integration.Connection, externalID string, payload integration.ExternalPayload) error {
	enriched := integration.ExternalPayload{}
	for k, v := range payload {
		enriched[k] = v
	}
	enriched.Set("ProductId", externalID)

	_, err := a.doRequest(ctx, conn, http.MethodPost, myDealRouteFeed, enriched)
	return err
}

// Delete delists a product from the marketplace
func (a *MyDealAdapter) Delete(ctx context.Context, conn *integration.Connection, externalID string) error {
	route := fmt.Sprintf("%s/%s", myDealRouteProducts, url.PathEscape(externalID))
	_, err := a.doRequest(ctx, conn, http.MethodDelete, route, nil)
	return err
}

// FetchAll pulls one page of products from the marketplace
func (a *MyDealAdapter) FetchAll(ctx context.Context, conn *integration.Connection, page, pageSize int) ([]integration.ExternalProduct, bool, error) {
	route := fmt.Sprintf("%s?pageIndex=%d&pageSize=%d", myDealRouteProducts, page, pageSize)
	body, err := a.doRequest(ctx, conn, http.MethodGet, route, nil)
	if err != nil {
		return nil, false, err
	}

	var pageResp myDealProductPage
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return nil, false, fmt.Errorf("%w: failed to parse product page: %v", integration.ErrPlatformInvalidResponse, err)
	}

	items := make([]integration.ExternalProduct, 0, len(pageResp.Products))
	for _, raw := range pageResp.Products {
		var product myDealProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			return nil, false, fmt.Errorf("%w: failed to parse product entry: %v", integration.ErrPlatformInvalidResponse, err)
		}
		items = append(items, product.toExternalProduct(raw))
	}

	return items, pageResp.TotalPages > page, nil
}

// PollWork resolves the state of a submitted feed
func (a *MyDealAdapter) PollWork(ctx context.Context, conn *integration.Connection, workRef string) (*integration.WorkStatusReport, error) {
	route := fmt.Sprintf("%s/%s", myDealRouteFeedStatus, url.PathEscape(workRef))
	body, err := a.doRequest(ctx, conn, http.MethodGet, route, nil)
	if err != nil {
		return nil, err
	}
	return decodeFeedStatus(body)
}

// FindOrCreateTaxonomy resolves a category name on the marketplace's curated
// taxonomy. MyDeal sellers cannot create categories, so an absent name is a
// request failure rather than a creation.
func (a *MyDealAdapter) FindOrCreateTaxonomy(ctx context.Context, conn *integration.Connection, name string) (string, error) {
	route := myDealRouteCategories + "?search=" + url.QueryEscape(name)
	body, err := a.doRequest(ctx, conn, http.MethodGet, route, nil)
	if err != nil {
		return "", err
	}

	var categories []myDealCategory
	if err := json.Unmarshal(body, &categories); err != nil {
		return "", fmt.Errorf("%w: failed to parse category list: %v", integration.ErrPlatformInvalidResponse, err)
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.CategoryID.String(), nil
		}
	}
	return "", fmt.Errorf("%w: category %q is not part of the marketplace taxonomy", integration.ErrPlatformRequestFailed, name)
}

// FindOrCreateAttribute has no marketplace-level definition step; attribute
// names travel inline on the feed, so the name itself is the identifier.
func (a *MyDealAdapter) FindOrCreateAttribute(ctx context.Context, conn *integration.Connection, name string, options []string) (string, error) {
	return name, nil
}

// UpdatePrices submits a bulk price/quantity update; the marketplace
// acknowledges asynchronously
func (a *MyDealAdapter) UpdatePrices(ctx context.Context, conn *integration.Connection, items []integration.PriceUpdate) (*integration.CreateResult, error) {
	lines := make([]map[string]any, 0, len(items))
	for _, item := range items {
		line := map[string]any{
			"ProductId": item.ExternalID,
			"SKU":       item.SKU,
			"Price":     item.Price.StringFixed(2),
		}
		if item.Quantity != nil {
			line["Quantity"] = strconv.Itoa(*item.Quantity)
		}
		lines = append(lines, line)
	}

	body, err := a.doRequest(ctx, conn, http.MethodPost, myDealRoutePrices, map[string]any{"Prices": lines})
	if err != nil {
		return nil, err
	}
	return a.parseAck(body)
}

// UpdateListings submits a bulk listing-status update; the marketplace
// acknowledges asynchronously
func (a *MyDealAdapter) UpdateListings(ctx context.Context, conn *integration.Connection, items []integration.ListingUpdate) (*integration.CreateResult, error) {
	lines := make([]map[string]any, 0, len(items))
	for _, item := range items {
		lines = append(lines, map[string]any{
			"ProductId": item.ExternalID,
			"SKU":       item.SKU,
			"Live":      item.Live,
		})
	}

	body, err := a.doRequest(ctx, conn, http.MethodPost, myDealRouteListings, map[string]any{"Listings": lines})
	if err != nil {
		return nil, err
	}
	return a.parseAck(body)
}

// parseAck decodes an asynchronous acknowledgement into a work reference
func (a *MyDealAdapter) parseAck(body []byte) (*integration.CreateResult, error) {
	var ack myDealFeedAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("%w: failed to parse acknowledgement: %v", integration.ErrPlatformInvalidResponse, err)
	}
	ref := ack.workRef()
	if ref == "" {
		return nil, fmt.Errorf("%w: acknowledgement carries no reference", integration.ErrPlatformInvalidResponse)
	}
	return &integration.CreateResult{WorkRef: ref}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one HTTP request against the marketplace. The request
// configuration is built fresh from the connection on every call.
func (a *MyDealAdapter) doRequest(ctx context.Context, conn *integration.Connection, method, route string, payload any) ([]byte, error) {
	config, err := newMyDealRequestConfig(conn)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mydeal: failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, config.endpoint(route), reqBody)
	if err != nil {
		return nil, fmt.Errorf("mydeal: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+config.token)
	req.Header.Set("X-Seller-Id", config.sellerID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mydeal: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		if apiErr := decodeMyDealError(body); apiErr != nil {
			return nil, fmt.Errorf("%w: %s", integration.ErrPlatformRequestFailed, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// decodeMyDealError extracts the marketplace error envelope, if present
func decodeMyDealError(body []byte) *myDealError {
	var apiErr myDealError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return nil
	}
	return &apiErr
}

// Ensure MyDealAdapter implements the connector contract
var _ integration.ConnectorAdapter = (*MyDealAdapter)(nil)
