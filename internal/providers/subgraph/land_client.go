package subgraph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// DefaultPageSize bounds one subgraph page. The indexer caps result sets at
// 1000 entities per query.
const DefaultPageSize = 1000

type segmentRecord struct {
	ID         string `json:"id"`
	Coordinate string `json:"coordinate"`
	Owner      *struct {
		ID string `json:"id"`
	} `json:"owner"`
}

type segmentsResponse struct {
	Data struct {
		Segments []segmentRecord `json:"segments"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// LandClient defines the interface for land subgraph operations to enable mocking
//
//go:generate mockgen -source=land_client.go -destination=../../mocks/subgraph_land_client.go -package=mocks -mock_names=LandClient=MockLandClient
type LandClient interface {
	// GetAllSegmentOwners fetches the full ownership snapshot, grouped by wallet
	GetAllSegmentOwners(ctx context.Context) ([]OwnerSegments, error)

	// GetUserSegments fetches the segments currently owned by a wallet
	GetUserSegments(ctx context.Context, wallet string) ([]Segment, error)

	// GetSegmentOwner fetches the current owner of a segment token
	GetSegmentOwner(ctx context.Context, segmentID string) (string, error)
}

// GraphLandClient implements LandClient against a GraphQL subgraph endpoint
type GraphLandClient struct {
	httpClient adapter.HTTPClient
	graphqlURL string
	json       adapter.JSON
	pageSize   int
}

// NewLandClient creates a new land subgraph client
func NewLandClient(httpClient adapter.HTTPClient, graphqlURL string, json adapter.JSON, pageSize int) LandClient {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &GraphLandClient{
		httpClient: httpClient,
		graphqlURL: graphqlURL,
		json:       json,
		pageSize:   pageSize,
	}
}

func (c *GraphLandClient) query(ctx context.Context, query string, variables map[string]interface{}) ([]segmentRecord, error) {
	requestBody, err := c.json.Marshal(GraphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	respBody, err := c.httpClient.PostBytes(ctx, c.graphqlURL, headers, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to call land subgraph: %w", err)
	}

	var response segmentsResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GraphQL response: %w", err)
	}

	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL errors: %s", response.Errors[0].Message)
	}

	return response.Data.Segments, nil
}

// queryAllPages exhausts the segments query page by page. A page shorter than
// the page size signals end-of-data; relying on that rather than an empty page
// keeps a flaky indexer from looping us forever.
func (c *GraphLandClient) queryAllPages(ctx context.Context, query string, variables map[string]interface{}) ([]segmentRecord, error) {
	var all []segmentRecord

	for skip := 0; ; skip += c.pageSize {
		vars := map[string]interface{}{
			"first": c.pageSize,
			"skip":  skip,
		}
		for k, v := range variables {
			vars[k] = v
		}

		page, err := c.query(ctx, query, vars)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < c.pageSize {
			break
		}
	}

	return all, nil
}

// GetAllSegmentOwners fetches the full ownership snapshot, grouped by wallet.
// Wallets split across page boundaries are merged into a single entry.
func (c *GraphLandClient) GetAllSegmentOwners(ctx context.Context) ([]OwnerSegments, error) {
	query := `query AllSegments($first: Int!, $skip: Int!) {
		segments(first: $first, skip: $skip, where: {owner_not: null}, orderBy: id) {
			id
			coordinate
			owner {
				id
			}
		}
	}`

	records, err := c.queryAllPages(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	byWallet := make(map[string]int)
	var owners []OwnerSegments
	for _, rec := range records {
		if rec.Owner == nil || rec.Owner.ID == "" {
			continue
		}
		wallet := domain.NormalizeWallet(rec.Owner.ID)
		idx, ok := byWallet[wallet]
		if !ok {
			owners = append(owners, OwnerSegments{WalletAddress: wallet})
			idx = len(owners) - 1
			byWallet[wallet] = idx
		}
		owners[idx].Segments = append(owners[idx].Segments, Segment{
			ID:         rec.ID,
			Coordinate: rec.Coordinate,
		})
	}

	return owners, nil
}

// GetUserSegments fetches the segments currently owned by a wallet
func (c *GraphLandClient) GetUserSegments(ctx context.Context, wallet string) ([]Segment, error) {
	query := `query UserSegments($first: Int!, $skip: Int!, $owner: String!) {
		segments(first: $first, skip: $skip, where: {owner: $owner}, orderBy: id) {
			id
			coordinate
			owner {
				id
			}
		}
	}`

	records, err := c.queryAllPages(ctx, query, map[string]interface{}{
		"owner": domain.NormalizeWallet(wallet),
	})
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(records))
	for _, rec := range records {
		segments = append(segments, Segment{
			ID:         rec.ID,
			Coordinate: rec.Coordinate,
		})
	}

	return segments, nil
}

// GetSegmentOwner fetches the current owner of a segment token
func (c *GraphLandClient) GetSegmentOwner(ctx context.Context, segmentID string) (string, error) {
	query := `query SegmentOwner($id: ID!) {
		segments(where: {id: $id}) {
			id
			coordinate
			owner {
				id
			}
		}
	}`

	records, err := c.query(ctx, query, map[string]interface{}{
		"id": segmentID,
	})
	if err != nil {
		return "", err
	}

	if len(records) == 0 || records[0].Owner == nil || records[0].Owner.ID == "" {
		return "", fmt.Errorf("%w: segment %s", domain.ErrSegmentNotFound, segmentID)
	}

	return domain.NormalizeWallet(records[0].Owner.ID), nil
}
