package subgraph

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// Segment is one land cell as reported by the land subgraph
type Segment struct {
	ID         string `json:"id"`
	Coordinate string `json:"coordinate"`
}

// OwnerSegments groups the segments currently held by one wallet
type OwnerSegments struct {
	WalletAddress string
	Segments      []Segment
}

// Citizen is one citizen token as reported by the civilization subgraph
type Citizen struct {
	TokenID string `json:"tokenId"`
	CaveID  string `json:"caveId"`
}

// OwnerCitizens groups the citizen tokens currently held by one wallet
type OwnerCitizens struct {
	WalletAddress string
	Citizens      []Citizen
}
