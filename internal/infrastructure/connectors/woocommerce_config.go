package connectors

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pimsync/backend/internal/domain/integration"
)

// Errors for WooCommerce request configuration
var (
	ErrWooConfigMissingBaseURL = errors.New("woocommerce: base URL is required")
	ErrWooConfigMissingKey     = errors.New("woocommerce: consumer key is required")
	ErrWooConfigMissingSecret  = errors.New("woocommerce: consumer secret is required")
)

// wooAPIPrefix is the WooCommerce REST v3 route prefix
const wooAPIPrefix = "/wp-json/wc/v3"

// wooRequestConfig is the immutable per-call request configuration for one
// WooCommerce store. It is built fresh from the Connection on every call;
// nothing in it is shared across tenants.
type wooRequestConfig struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
}

// newWooRequestConfig builds a request configuration from a connection
func newWooRequestConfig(conn *integration.Connection) (*wooRequestConfig, error) {
	if conn == nil || conn.BaseURL == "" {
		return nil, ErrWooConfigMissingBaseURL
	}
	if conn.ConsumerKey == "" {
		return nil, ErrWooConfigMissingKey
	}
	if conn.ConsumerSecret == "" {
		return nil, ErrWooConfigMissingSecret
	}
	return &wooRequestConfig{
		baseURL:        strings.TrimRight(conn.BaseURL, "/"),
		consumerKey:    conn.ConsumerKey,
		consumerSecret: conn.ConsumerSecret,
	}, nil
}

// endpoint builds the absolute URL for a REST v3 route
func (c *wooRequestConfig) endpoint(route string, query url.Values) string {
	u := c.baseURL + wooAPIPrefix + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// routeProducts is the products collection route
const routeProducts = "/products"

// routeProduct builds the single-product route
func routeProduct(externalID string) string {
	return fmt.Sprintf("%s/%s", routeProducts, url.PathEscape(externalID))
}
