package game

import (
	"context"
	"sort"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// MapEntry is one wallet's footprint on the shared map
type MapEntry struct {
	WalletAddress string   `json:"walletAddress"`
	Color         string   `json:"color"`
	Coordinates   []string `json:"coordinates"`
}

// MapSnapshot returns every owned coordinate grouped by wallet, each wallet
// carrying its deterministic display color
func (s *Service) MapSnapshot(ctx context.Context) ([]MapEntry, error) {
	segments, err := s.store.GetOwnedSegments(ctx)
	if err != nil {
		return nil, err
	}

	byWallet := map[string][]string{}
	for _, segment := range segments {
		if segment.Owner == nil {
			continue
		}
		wallet := segment.Owner.WalletAddress
		byWallet[wallet] = append(byWallet[wallet], segment.Coordinate)
	}

	entries := make([]MapEntry, 0, len(byWallet))
	for wallet, coordinates := range byWallet {
		sort.Strings(coordinates)
		entries = append(entries, MapEntry{
			WalletAddress: wallet,
			Color:         domain.ColorFromWallet(wallet),
			Coordinates:   coordinates,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].WalletAddress < entries[j].WalletAddress
	})

	return entries, nil
}

// SyncWallet re-runs the single-wallet resync slice for on-demand correction
func (s *Service) SyncWallet(ctx context.Context, wallet string) error {
	return s.resync.SyncUser(ctx, wallet)
}
