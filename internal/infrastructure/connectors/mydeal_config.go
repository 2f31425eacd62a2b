package connectors

import (
	"errors"
	"strings"

	"github.com/pimsync/backend/internal/domain/integration"
)

// Errors for MyDeal request configuration
var (
	ErrMyDealConfigMissingBaseURL = errors.New("mydeal: base URL is required")
	ErrMyDealConfigMissingSeller  = errors.New("mydeal: seller id is required")
	ErrMyDealConfigMissingToken   = errors.New("mydeal: API token is required")
)

// MyDeal marketplace API routes
const (
	myDealRouteProducts   = "/api/v1/products"
	myDealRouteFeed       = "/api/v1/productfeed"
	myDealRouteFeedStatus = "/api/v1/productfeed/status"
	myDealRoutePrices     = "/api/v1/prices"
	myDealRouteListings   = "/api/v1/listings"
	myDealRouteCategories = "/api/v1/categories"
)

// myDealRequestConfig is the immutable per-call request configuration for
// the MyDeal marketplace. The connection's consumer key carries the seller
// id and the consumer secret carries the API token.
type myDealRequestConfig struct {
	baseURL  string
	sellerID string
	token    string
}

// newMyDealRequestConfig builds a request configuration from a connection
func newMyDealRequestConfig(conn *integration.Connection) (*myDealRequestConfig, error) {
	if conn == nil || conn.BaseURL == "" {
		return nil, ErrMyDealConfigMissingBaseURL
	}
	if conn.ConsumerKey == "" {
		return nil, ErrMyDealConfigMissingSeller
	}
	if conn.ConsumerSecret == "" {
		return nil, ErrMyDealConfigMissingToken
	}
	return &myDealRequestConfig{
		baseURL:  strings.TrimRight(conn.BaseURL, "/"),
		sellerID: conn.ConsumerKey,
		token:    conn.ConsumerSecret,
	}, nil
}

// endpoint builds the absolute URL for a marketplace route
func (c *myDealRequestConfig) endpoint(route string) string {
	return c.baseURL + route
}
