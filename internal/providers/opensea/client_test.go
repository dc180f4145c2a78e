package opensea_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/providers/opensea"
)

const OPENSEA_API_URL = "https://api.opensea.io/api/v2"

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeHTTPClient serves canned JSON per requested URL
type fakeHTTPClient struct {
	responses map[string]string
	headers   map[string]string
	urls      []string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string, result interface{}) error {
	f.urls = append(f.urls, url)
	f.headers = headers
	raw, ok := f.responses[url]
	if !ok {
		return fmt.Errorf("unexpected url: %s", url)
	}
	return json.Unmarshal([]byte(raw), result)
}

func (f *fakeHTTPClient) PostBytes(_ context.Context, _ string, _ map[string]string, _ io.Reader) ([]byte, error) {
	return nil, errors.New("unexpected POST")
}

func TestClient_GetCollectionStats(t *testing.T) {
	fake := &fakeHTTPClient{
		responses: map[string]string{
			OPENSEA_API_URL + "/collections/world-in-pieces/stats": `{
				"total": {"floor_price": 0.42, "floor_price_symbol": "ETH", "volume": 120.5, "sales": 300, "num_owners": 88},
				"intervals": [
					{"interval": "one_day", "volume": 1.5, "price_change": -2.5, "sales": 4},
					{"interval": "seven_day", "volume": 9.1, "price_change": 10.0, "sales": 21}
				]
			}`,
		},
	}
	client := opensea.NewClient(fake, OPENSEA_API_URL, "test-key")

	stats, intervals, err := client.GetCollectionStats(context.Background(), "world-in-pieces")

	require.NoError(t, err)
	assert.Equal(t, 0.42, stats.FloorPrice)
	assert.Equal(t, "ETH", stats.FloorPriceSymbol)
	assert.Equal(t, int64(88), stats.NumOwners)
	require.Len(t, intervals, 2)
	assert.Equal(t, "one_day", intervals[0].Interval)
	assert.Equal(t, -2.5, intervals[0].PriceChange)
	assert.Equal(t, "test-key", fake.headers["X-API-KEY"])
}

func TestClient_GetCollectionStats_NoAPIKey(t *testing.T) {
	client := opensea.NewClient(&fakeHTTPClient{}, OPENSEA_API_URL, "")

	_, _, err := client.GetCollectionStats(context.Background(), "world-in-pieces")

	assert.ErrorIs(t, err, opensea.ErrNoAPIKey)
}

func TestClient_GetCollectionListings_FollowsCursor(t *testing.T) {
	base := OPENSEA_API_URL + "/listings/collection/world-in-pieces/all"
	listing := func(tokenID, value string) string {
		return fmt.Sprintf(`{
			"order_hash": "0xhash%s",
			"price": {"current": {"currency": "ETH", "decimals": 18, "value": "%s"}},
			"protocol_data": {"parameters": {"offer": [{"token": "0xc0ffee", "identifierOrCriteria": "%s"}]}}
		}`, tokenID, value, tokenID)
	}
	fake := &fakeHTTPClient{
		responses: map[string]string{
			base:                fmt.Sprintf(`{"listings": [%s, %s], "next": "page2"}`, listing("1", "500000000000000000"), listing("2", "750000000000000000")),
			base + "?next=page2": fmt.Sprintf(`{"listings": [%s], "next": ""}`, listing("3", "900000000000000000")),
		},
	}
	client := opensea.NewClient(fake, OPENSEA_API_URL, "test-key")

	listings, err := client.GetCollectionListings(context.Background(), "world-in-pieces")

	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, "1", listings[0].TokenID())
	assert.Equal(t, "500000000000000000", listings[0].Price.Current.Value)
	assert.Equal(t, "3", listings[2].TokenID())
	require.Len(t, fake.urls, 2)
	assert.True(t, strings.HasSuffix(fake.urls[1], "next=page2"))
}

func TestClient_GetCollectionListings_HTTPError(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]string{}}
	client := opensea.NewClient(fake, OPENSEA_API_URL, "test-key")

	_, err := client.GetCollectionListings(context.Background(), "world-in-pieces")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to call OpenSea API")
}
