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

// maxResponseSize is the maximum allowed response size from a store (10MB)
const maxResponseSize = 10 * 1024 * 1024

// WooCommerceAdapter implements the connector contract for WooCommerce
// stores over REST v3. WooCommerce resolves every call synchronously, so
// Create always returns an external id and PollWork is never valid.
type WooCommerceAdapter struct {
	httpClient *http.Client
}

// NewWooCommerceAdapter creates a new WooCommerce adapter
func NewWooCommerceAdapter(timeout time.Duration) *WooCommerceAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WooCommerceAdapter{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PlatformCode returns the platform code this adapter handles
func (a *WooCommerceAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeWooCommerce
}

// Ping validates the connection's credentials against the store
func (a *WooCommerceAdapter) Ping(ctx context.Context, conn *integration.Connection) error {
	query := url.Values{}
	query.Set("per_page", "1")
	_, err := a.doRequest(ctx, conn, http.MethodGet, routeProducts, query, nil)
	return err
}

// Create creates a product on the store
func (a *WooCommerceAdapter) Create(ctx context.Context, conn *integration.Connection, payload integration.ExternalPayload) (*integration.CreateResult, error) {
	body, err := a.doRequest(ctx, conn, http.MethodPost, routeProducts, nil, payload)
	if err != nil {
		return nil, err
	}

	var product wooProduct
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("%w: failed to parse product response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if product.ID.String() == "" || product.ID.String() == "0" {
		return nil, fmt.Errorf("%w: product response carries no id", integration.ErrPlatformInvalidResponse)
	}
	return &integration.CreateResult{ExternalID: product.ID.String()}, nil
}

// Update updates an existing product on the store
func (a *WooCommerceAdapter) Update(ctx context.Context, conn *integration.Connection, externalID string, payload integration.ExternalPayload) error {
	_, err := a.doRequest(ctx, conn, http.MethodPut, routeProduct(externalID), nil, payload)
	return err
}

// Delete removes a product from the store
func (a *WooCommerceAdapter) Delete(ctx context.Context, conn *integration.Connection, externalID string) error {
	query := url.Values{}
	query.Set("force", "true")
	_, err := a.doRequest(ctx, conn, http.MethodDelete, routeProduct(externalID), query, nil)
	return err
}

// FetchAll pulls one page of products from the store
func (a *WooCommerceAdapter) FetchAll(ctx context.Context, conn *integration.Connection, page, pageSize int) ([]integration.ExternalProduct, bool, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(pageSize))

	body, err := a.doRequest(ctx, conn, http.MethodGet, routeProducts, query, nil)
	if err != nil {
		return nil, false, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, false, fmt.Errorf("%w: failed to parse product list: %v", integration.ErrPlatformInvalidResponse, err)
	}

	items := make([]integration.ExternalProduct, 0, len(raws))
	for _, raw := range raws {
		var product wooProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			return nil, false, fmt.Errorf("%w: failed to parse product entry: %v", integration.ErrPlatformInvalidResponse, err)
		}
		items = append(items, product.toExternalProduct(raw))
	}

	return items, len(items) == pageSize, nil
}

// PollWork is invalid on a synchronous platform
func (a *WooCommerceAdapter) PollWork(ctx context.Context, conn *integration.Connection, workRef string) (*integration.WorkStatusReport, error) {
	return nil, fmt.Errorf("%w: woocommerce resolves synchronously, nothing to poll", integration.ErrPlatformInvalidResponse)
}

// FindOrCreateTaxonomy resolves a category name to the store's id, creating
// the category when absent. Matching is case-insensitive on the name.
func (a *WooCommerceAdapter) FindOrCreateTaxonomy(ctx context.Context, conn *integration.Connection, name string) (string, error) {
	query := url.Values{}
	query.Set("search", name)

	body, err := a.doRequest(ctx, conn, http.MethodGet, "/products/categories", query, nil)
	if err != nil {
		return "", err
	}
	var categories []wooCategory
	if err := json.Unmarshal(body, &categories); err != nil {
		return "", fmt.Errorf("%w: failed to parse category list: %v", integration.ErrPlatformInvalidResponse, err)
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID.String(), nil
		}
	}

	body, err = a.doRequest(ctx, conn, http.MethodPost, "/products/categories", nil, map[string]any{"name": name})
	if err != nil {
		return "", err
	}
	var created wooCategory
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: failed to parse created category: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return created.ID.String(), nil
}

// FindOrCreateAttribute resolves a store-level attribute definition
func (a *WooCommerceAdapter) FindOrCreateAttribute(ctx context.Context, conn *integration.Connection, name string, options []string) (string, error) {
	body, err := a.doRequest(ctx, conn, http.MethodGet, "/products/attributes", nil, nil)
	if err != nil {
		return "", err
	}
	var defs []wooAttributeDef
	if err := json.Unmarshal(body, &defs); err != nil {
		return "", fmt.Errorf("%w: failed to parse attribute list: %v", integration.ErrPlatformInvalidResponse, err)
	}
	for _, d := range defs {
		if strings.EqualFold(d.Name, name) {
			return d.ID.String(), nil
		}
	}

	body, err = a.doRequest(ctx, conn, http.MethodPost, "/products/attributes", nil, map[string]any{"name": name})
	if err != nil {
		return "", err
	}
	var created wooAttributeDef
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: failed to parse created attribute: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return created.ID.String(), nil
}

// UpdatePrices submits a bulk price/quantity update via products/batch
func (a *WooCommerceAdapter) UpdatePrices(ctx context.Context, conn *integration.Connection, items []integration.PriceUpdate) (*integration.CreateResult, error) {
	batch := wooBatchRequest{Update: make([]map[string]any, 0, len(items))}
	for _, item := range items {
		line := map[string]any{
			"id":            item.ExternalID,
			"regular_price": item.Price.StringFixed(2),
		}
		if item.Quantity != nil {
			line["stock_quantity"] = *item.Quantity
			line["manage_stock"] = true
		}
		batch.Update = append(batch.Update, line)
	}

	body, err := a.doRequest(ctx, conn, http.MethodPost, routeProducts+"/batch", nil, batch)
	if err != nil {
		return nil, err
	}

	var resp wooBatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	for _, line := range resp.Update {
		if line.Error != nil {
			return nil, fmt.Errorf("%w: %s - %s", integration.ErrPlatformRequestFailed, line.Error.Code, line.Error.Message)
		}
	}
	return &integration.CreateResult{}, nil
}

// UpdateListings submits a bulk listing-status update via products/batch.
// Listing status maps onto the product's catalog visibility and status.
func (a *WooCommerceAdapter) UpdateListings(ctx context.Context, conn *integration.Connection, items []integration.ListingUpdate) (*integration.CreateResult, error) {
	batch := wooBatchRequest{Update: make([]map[string]any, 0, len(items))}
	for _, item := range items {
		status := "draft"
		if item.Live {
			status = "publish"
		}
		batch.Update = append(batch.Update, map[string]any{
			"id":     item.ExternalID,
			"status": status,
		})
	}

	body, err := a.doRequest(ctx, conn, http.MethodPost, routeProducts+"/batch", nil, batch)
	if err != nil {
		return nil, err
	}

	var resp wooBatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	for _, line := range resp.Update {
		if line.Error != nil {
			return nil, fmt.Errorf("%w: %s - %s", integration.ErrPlatformRequestFailed, line.Error.Code, line.Error.Message)
		}
	}
	return &integration.CreateResult{}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one HTTP request against the store. The request
// configuration is built fresh from the connection on every call.
func (a *WooCommerceAdapter) doRequest(ctx context.Context, conn *integration.Connection, method, route string, query url.Values, payload any) ([]byte, error) {
	config, err := newWooRequestConfig(conn)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, config.endpoint(route, query), reqBody)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(config.consumerKey, config.consumerSecret)
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
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		if apiErr := decodeWooError(body); apiErr != nil {
			return nil, fmt.Errorf("%w: %s - %s", integration.ErrPlatformRequestFailed, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// decodeWooError extracts the store error envelope, if the body carries one
func decodeWooError(body []byte) *wooError {
	var apiErr wooError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
		return nil
	}
	return &apiErr
}

// Ensure WooCommerceAdapter implements the connector contract
var _ integration.ConnectorAdapter = (*WooCommerceAdapter)(nil)
