package subgraph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
)

type citizenRecord struct {
	TokenID string `json:"tokenId"`
	Cave    *struct {
		ID string `json:"id"`
	} `json:"cave"`
	Owner *struct {
		ID string `json:"id"`
	} `json:"owner"`
}

type citizensResponse struct {
	Data struct {
		Citizens []citizenRecord `json:"citizens"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// CitizenClient defines the interface for civilization subgraph operations to enable mocking
//
//go:generate mockgen -source=citizen_client.go -destination=../../mocks/subgraph_citizen_client.go -package=mocks -mock_names=CitizenClient=MockCitizenClient
type CitizenClient interface {
	// GetAllCitizenOwners fetches the full citizenship snapshot, grouped by wallet
	GetAllCitizenOwners(ctx context.Context) ([]OwnerCitizens, error)

	// GetUserCitizens fetches the citizen tokens currently held by a wallet
	GetUserCitizens(ctx context.Context, wallet string) ([]Citizen, error)

	// GetCaveHolders fetches the wallets holding citizen tokens inside a cave
	GetCaveHolders(ctx context.Context, caveID string) ([]OwnerCitizens, error)
}

// GraphCitizenClient implements CitizenClient against a GraphQL subgraph endpoint
type GraphCitizenClient struct {
	httpClient adapter.HTTPClient
	graphqlURL string
	json       adapter.JSON
	pageSize   int
}

// NewCitizenClient creates a new civilization subgraph client
func NewCitizenClient(httpClient adapter.HTTPClient, graphqlURL string, json adapter.JSON, pageSize int) CitizenClient {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &GraphCitizenClient{
		httpClient: httpClient,
		graphqlURL: graphqlURL,
		json:       json,
		pageSize:   pageSize,
	}
}

func (c *GraphCitizenClient) query(ctx context.Context, query string, variables map[string]interface{}) ([]citizenRecord, error) {
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
		return nil, fmt.Errorf("failed to call civilization subgraph: %w", err)
	}

	var response citizensResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GraphQL response: %w", err)
	}

	if len(response.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL errors: %s", response.Errors[0].Message)
	}

	return response.Data.Citizens, nil
}

func (c *GraphCitizenClient) queryAllPages(ctx context.Context, query string, variables map[string]interface{}) ([]citizenRecord, error) {
	var all []citizenRecord

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

		// A short page signals end-of-data
		if len(page) < c.pageSize {
			break
		}
	}

	return all, nil
}

func groupByWallet(records []citizenRecord) []OwnerCitizens {
	byWallet := make(map[string]int)
	var owners []OwnerCitizens
	for _, rec := range records {
		if rec.Owner == nil || rec.Owner.ID == "" || rec.Cave == nil {
			continue
		}
		wallet := domain.NormalizeWallet(rec.Owner.ID)
		idx, ok := byWallet[wallet]
		if !ok {
			owners = append(owners, OwnerCitizens{WalletAddress: wallet})
			idx = len(owners) - 1
			byWallet[wallet] = idx
		}
		owners[idx].Citizens = append(owners[idx].Citizens, Citizen{
			TokenID: rec.TokenID,
			CaveID:  rec.Cave.ID,
		})
	}

	return owners
}

// GetAllCitizenOwners fetches the full citizenship snapshot, grouped by wallet.
// Wallets split across page boundaries are merged into a single entry.
func (c *GraphCitizenClient) GetAllCitizenOwners(ctx context.Context) ([]OwnerCitizens, error) {
	query := `query AllCitizens($first: Int!, $skip: Int!) {
		citizens(first: $first, skip: $skip, where: {owner_not: null}, orderBy: tokenId) {
			tokenId
			cave {
				id
			}
			owner {
				id
			}
		}
	}`

	records, err := c.queryAllPages(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	return groupByWallet(records), nil
}

// GetUserCitizens fetches the citizen tokens currently held by a wallet
func (c *GraphCitizenClient) GetUserCitizens(ctx context.Context, wallet string) ([]Citizen, error) {
	query := `query UserCitizens($first: Int!, $skip: Int!, $owner: String!) {
		citizens(first: $first, skip: $skip, where: {owner: $owner}, orderBy: tokenId) {
			tokenId
			cave {
				id
			}
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

	citizens := make([]Citizen, 0, len(records))
	for _, rec := range records {
		if rec.Cave == nil {
			continue
		}
		citizens = append(citizens, Citizen{
			TokenID: rec.TokenID,
			CaveID:  rec.Cave.ID,
		})
	}

	return citizens, nil
}

// GetCaveHolders fetches the wallets holding citizen tokens inside a cave
func (c *GraphCitizenClient) GetCaveHolders(ctx context.Context, caveID string) ([]OwnerCitizens, error) {
	query := `query CaveHolders($first: Int!, $skip: Int!, $cave: String!) {
		citizens(first: $first, skip: $skip, where: {cave: $cave, owner_not: null}, orderBy: tokenId) {
			tokenId
			cave {
				id
			}
			owner {
				id
			}
		}
	}`

	records, err := c.queryAllPages(ctx, query, map[string]interface{}{
		"cave": caveID,
	})
	if err != nil {
		return nil, err
	}

	return groupByWallet(records), nil
}
