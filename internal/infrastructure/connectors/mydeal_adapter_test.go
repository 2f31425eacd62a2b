package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimsync/backend/internal/domain/integration"
)

// newMyDealTestConnection builds a connection pointing at the mock marketplace
func newMyDealTestConnection(t *testing.T, baseURL string) *integration.Connection {
	conn, err := integration.NewConnection(uuid.New(), integration.PlatformCodeMyDeal,
		baseURL, "seller-123", "token-abc")
	require.NoError(t, err)
	return conn
}

func TestMyDealRequestConfig(t *testing.T) {
	conn := newMyDealTestConnection(t, "https://api.mydeal.com.au")
	conn.ConsumerSecret = ""
	_, err := newMyDealRequestConfig(conn)
	assert.ErrorIs(t, err, ErrMyDealConfigMissingToken)
}

func TestMyDealAdapter_Create(t *testing.T) {
	t.Run("returns the status URI as the work reference", func(t *testing.T) {
		var gotAuth, gotSeller string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotSeller = r.Header.Get("X-Seller-Id")
			assert.Equal(t, myDealRouteFeed, r.URL.Path)
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(myDealFeedAck{
				FeedID:    "9f21",
				StatusURL: "https://api.mydeal.com.au/api/v1/productfeed/status/9f21",
			})
		}))
		defer server.Close()

		adapter := NewMyDealAdapter(5 * time.Second)
		conn := newMyDealTestConnection(t, server.URL)

		result, err := adapter.Create(context.Background(), conn, integration.ExternalPayload{"SKU": "W-1"})

		require.NoError(t, err)
		assert.True(t, result.IsAsync())
		assert.Equal(t, "https://api.mydeal.com.au/api/v1/productfeed/status/9f21", result.WorkRef)
		assert.Equal(t, "Bearer token-abc", gotAuth)
		assert.Equal(t, "seller-123", gotSeller)

		workID, err := integration.ParseWorkRef(result.WorkRef)
		require.NoError(t, err)
		assert.Equal(t, "9f21", workID)
	})

	t.Run("rejects an acknowledgement without a reference", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]any{})
		}))
		defer server.Close()

		adapter := NewMyDealAdapter(5 * time.Second)
		conn := newMyDealTestConnection(t, server.URL)

		_, err := adapter.Create(context.Background(), conn, integration.ExternalPayload{})
		assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
	})
}

func TestDecodeFeedStatus(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantState integration.WorkState
		wantErr   bool
	}{
		{"in progress", `{"Status":"InProgress"}`, integration.WorkStateInProgress, false},
		{"pending counts as in progress", `{"Status":"Pending"}`, integration.WorkStateInProgress, false},
		{"complete", `{"Status":"Complete","Products":[{"ProductId":"777","SKU":"W-1"}]}`, integration.WorkStateCompleted, false},
		{"failed", `{"Status":"Failed","Errors":["SKU already exists","invalid weight"]}`, integration.WorkStateFailed, false},
		{"unknown state", `{"Status":"Paused"}`, "", true},
		{"malformed body", `{`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := decodeFeedStatus([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, report.State)
		})
	}

	t.Run("complete carries the assigned identifiers", func(t *testing.T) {
		report, err := decodeFeedStatus([]byte(`{"Status":"Complete","Products":[{"ProductId":"777","SKU":"W-1"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "777", report.ExternalProductID)
		assert.Equal(t, "W-1", report.ExternalSKU)
		assert.NotEmpty(t, report.Data)
	})

	t.Run("failed without an error list still reports failure", func(t *testing.T) {
		report, err := decodeFeedStatus([]byte(`{"Status":"Failed"}`))
		require.NoError(t, err)
		assert.Equal(t, integration.WorkStateFailed, report.State)
		assert.NotEmpty(t, report.Errors)
	})
}

func TestMyDealAdapter_PollWork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, myDealRouteFeedStatus+"/9f21", r.URL.Path)
		_ = json.NewEncoder(w).Encode(myDealFeedStatus{
			Status:   "Complete",
			Products: []myDealFeedProduct{{ProductID: "777", SKU: "W-1"}},
		})
	}))
	defer server.Close()

	adapter := NewMyDealAdapter(5 * time.Second)
	conn := newMyDealTestConnection(t, server.URL)

	report, err := adapter.PollWork(context.Background(), conn, "9f21")

	require.NoError(t, err)
	assert.Equal(t, integration.WorkStateCompleted, report.State)
	assert.Equal(t, "777", report.ExternalProductID)
}

func TestMyDealAdapter_FetchAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("pageIndex"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Products": []map[string]any{
				{
					"ProductId": 777, "Title": "Widget", "SKU": "W-1", "Price": "19.99",
					"Categories": []string{"Tools"},
					"Images":     []string{"https://cdn.example.com/u/1.jpg"},
				},
			},
			"PageIndex":  1,
			"TotalPages": 3,
		})
	}))
	defer server.Close()

	adapter := NewMyDealAdapter(5 * time.Second)
	conn := newMyDealTestConnection(t, server.URL)

	items, hasMore, err := adapter.FetchAll(context.Background(), conn, 1, 50)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, hasMore)
	assert.Equal(t, "777", items[0].ExternalID)
	assert.Equal(t, "Widget", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("19.99")))
	require.Len(t, items[0].Images, 1)
}

func TestMyDealAdapter_FindOrCreateTaxonomy(t *testing.T) {
	t.Run("matches the curated taxonomy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]myDealCategory{{CategoryID: "42", Name: "Tools"}})
		}))
		defer server.Close()

		adapter := NewMyDealAdapter(5 * time.Second)
		conn := newMyDealTestConnection(t, server.URL)

		id, err := adapter.FindOrCreateTaxonomy(context.Background(), conn, "tools")
		require.NoError(t, err)
		assert.Equal(t, "42", id)
	})

	t.Run("an absent category cannot be created", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]myDealCategory{})
		}))
		defer server.Close()

		adapter := NewMyDealAdapter(5 * time.Second)
		conn := newMyDealTestConnection(t, server.URL)

		_, err := adapter.FindOrCreateTaxonomy(context.Background(), conn, "Spaceships")
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	})
}

func TestMyDealAdapter_UpdatePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, myDealRoutePrices, r.URL.Path)
		var body struct {
			Prices []map[string]any `json:"Prices"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Prices, 1)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(myDealFeedAck{FeedID: "feed-55"})
	}))
	defer server.Close()

	adapter := NewMyDealAdapter(5 * time.Second)
	conn := newMyDealTestConnection(t, server.URL)

	result, err := adapter.UpdatePrices(context.Background(), conn, []integration.PriceUpdate{
		{ExternalID: "777", SKU: "W-1", Price: decimal.RequireFromString("21.50")},
	})

	require.NoError(t, err)
	assert.True(t, result.IsAsync())
	assert.Equal(t, "feed-55", result.WorkRef)
}

func TestRegistry(t *testing.T) {
	registry := NewDefaultRegistry(5 * time.Second)

	t.Run("resolves every supported platform", func(t *testing.T) {
		woo, err := registry.Get(integration.PlatformCodeWooCommerce)
		require.NoError(t, err)
		assert.Equal(t, integration.PlatformCodeWooCommerce, woo.PlatformCode())

		mydeal, err := registry.Get(integration.PlatformCodeMyDeal)
		require.NoError(t, err)
		assert.Equal(t, integration.PlatformCodeMyDeal, mydeal.PlatformCode())

		assert.Len(t, registry.List(), 2)
	})

	t.Run("unknown platform is not configured", func(t *testing.T) {
		_, err := registry.Get(integration.PlatformCode("EBAY"))
		assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	})
}
