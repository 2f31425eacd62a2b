// Package storage resolves catalog asset references to URLs external
// platforms can fetch.
package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/pimsync/backend/internal/domain/catalog"
)

// ErrEmptyAssetRef is returned when a resolver receives an empty reference
var ErrEmptyAssetRef = errors.New("storage: asset reference is empty")

// BaseURLAssetResolver resolves relative asset references against a public
// base URL. References that already carry a scheme pass through unchanged,
// so catalogs that store absolute URLs keep working.
type BaseURLAssetResolver struct {
	baseURL string
}

// NewBaseURLAssetResolver creates a resolver rooted at the given base URL
func NewBaseURLAssetResolver(baseURL string) (*BaseURLAssetResolver, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("storage: base URL must include scheme and host")
	}
	return &BaseURLAssetResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Resolve returns the absolute URL for an asset reference
func (r *BaseURLAssetResolver) Resolve(ctx context.Context, ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", ErrEmptyAssetRef
	}
	if strings.Contains(trimmed, "://") {
		return trimmed, nil
	}
	return r.baseURL + "/" + strings.TrimLeft(trimmed, "/"), nil
}

// Ensure BaseURLAssetResolver implements AssetResolver
var _ catalog.AssetResolver = (*BaseURLAssetResolver)(nil)
