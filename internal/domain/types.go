package domain

import (
	"fmt"
	"strings"
)

// Role is the civilization game role of a wallet. A wallet holds exactly one
// role at a time; the owner/citizen token check enforces exclusivity before
// any assignment.
type Role string

const (
	// RoleOwner marks a wallet holding land segment tokens
	RoleOwner Role = "owner"
	// RoleCitizen marks a wallet holding citizen tokens
	RoleCitizen Role = "citizen"
)

// LogAction is the kind of a segment image log entry
type LogAction string

const (
	// LogActionUpload records an image upload on a segment or merged segment
	LogActionUpload LogAction = "upload"
	// LogActionMerge records a merge of segments into a merged segment
	LogActionMerge LogAction = "merge"
	// LogActionUnmerge records a merged segment being split back into pieces
	LogActionUnmerge LogAction = "unmerge"
)

// PopulationStatus classifies an owner by the amount of land held
type PopulationStatus string

const (
	PopulationEmperor     PopulationStatus = "emperor"
	PopulationImperialist PopulationStatus = "imperialist"
	PopulationConquerer   PopulationStatus = "conquerer"
	PopulationLord        PopulationStatus = "lord"
	PopulationSettler     PopulationStatus = "settler"
	PopulationLandowner   PopulationStatus = "landowner"
)

// NormalizeWallet canonicalizes a wallet address for lookup and comparison.
// Addresses are compared case-insensitively everywhere, so every boundary
// lowercases before touching the store or the subgraph.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// ColorFromWallet derives a stable display color from a wallet address.
// The same djb2-style fold the web client uses, so server- and
// client-generated colors agree for the same wallet.
func ColorFromWallet(wallet string) string {
	var hash int32
	for _, c := range wallet {
		hash = c + ((hash << 5) - hash)
	}

	color := "#"
	for i := 0; i < 3; i++ {
		color += fmt.Sprintf("%02x", byte(hash>>(i*8)))
	}

	return color
}
