package opensea

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
)

var ErrNoAPIKey = errors.New("no API key provided")

// CollectionStats represents the aggregate stats of a collection
type CollectionStats struct {
	FloorPrice       float64 `json:"floor_price"`
	FloorPriceSymbol string  `json:"floor_price_symbol"`
	Volume           float64 `json:"volume"`
	Sales            int64   `json:"sales"`
	NumOwners        int64   `json:"num_owners"`
}

// IntervalStats represents interval deltas reported by the stats endpoint
type IntervalStats struct {
	Interval    string  `json:"interval"`
	Volume      float64 `json:"volume"`
	PriceChange float64 `json:"price_change"`
	Sales       int64   `json:"sales"`
}

type statsResponse struct {
	Total     CollectionStats `json:"total"`
	Intervals []IntervalStats `json:"intervals"`
}

// ListingPrice represents the current price of a listing
type ListingPrice struct {
	Currency string `json:"currency"`
	Decimals int    `json:"decimals"`
	Value    string `json:"value"`
}

// Listing represents one active listing of a collection
type Listing struct {
	OrderHash string `json:"order_hash"`
	Price     struct {
		Current ListingPrice `json:"current"`
	} `json:"price"`
	ProtocolData struct {
		Parameters struct {
			Offer []struct {
				Token                string `json:"token"`
				IdentifierOrCriteria string `json:"identifierOrCriteria"`
			} `json:"offer"`
		} `json:"parameters"`
	} `json:"protocol_data"`
}

// TokenID returns the token id the listing offers, or "" when absent
func (l *Listing) TokenID() string {
	if len(l.ProtocolData.Parameters.Offer) == 0 {
		return ""
	}
	return l.ProtocolData.Parameters.Offer[0].IdentifierOrCriteria
}

type listingsResponse struct {
	Listings []Listing `json:"listings"`
	Next     string    `json:"next"`
}

// Client defines the interface for OpenSea client operations to enable mocking
//
//go:generate mockgen -source=client.go -destination=../../mocks/opensea_client.go -package=mocks -mock_names=Client=MockOpenSeaClient
type Client interface {
	// GetCollectionStats fetches aggregate collection stats from OpenSea API v2
	GetCollectionStats(ctx context.Context, slug string) (*CollectionStats, []IntervalStats, error)

	// GetCollectionListings fetches every active listing of a collection
	GetCollectionListings(ctx context.Context, slug string) ([]Listing, error)
}

// OpenSeaClient implements OpenSea client
type OpenSeaClient struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
}

// NewClient creates a new OpenSea client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string) Client {
	return &OpenSeaClient{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

func (c *OpenSeaClient) headers() map[string]string {
	return map[string]string{
		"X-API-KEY": c.apiKey,
		"Accept":    "application/json",
	}
}

// GetCollectionStats fetches aggregate collection stats from OpenSea API v2
func (c *OpenSeaClient) GetCollectionStats(ctx context.Context, slug string) (*CollectionStats, []IntervalStats, error) {
	if c.apiKey == "" {
		return nil, nil, ErrNoAPIKey
	}

	statsURL := fmt.Sprintf("%s/collections/%s/stats", c.apiURL, url.PathEscape(slug))

	var response statsResponse
	if err := c.httpClient.Get(ctx, statsURL, c.headers(), &response); err != nil {
		return nil, nil, fmt.Errorf("failed to call OpenSea API: %w", err)
	}

	return &response.Total, response.Intervals, nil
}

// GetCollectionListings fetches every active listing of a collection,
// following the cursor until OpenSea stops returning one
func (c *OpenSeaClient) GetCollectionListings(ctx context.Context, slug string) ([]Listing, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var all []Listing
	next := ""

	for {
		listingsURL := fmt.Sprintf("%s/listings/collection/%s/all", c.apiURL, url.PathEscape(slug))
		if next != "" {
			listingsURL += "?next=" + url.QueryEscape(next)
		}

		var response listingsResponse
		if err := c.httpClient.Get(ctx, listingsURL, c.headers(), &response); err != nil {
			return nil, fmt.Errorf("failed to call OpenSea API: %w", err)
		}

		all = append(all, response.Listings...)

		if response.Next == "" || len(response.Listings) == 0 {
			break
		}
		next = response.Next
	}

	return all, nil
}
