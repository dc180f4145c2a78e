// Package game implements the civilization game layer: joining, cave
// building, reward claims and the shared world map.
package game

import (
	"context"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/config"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/providers/ethereum"
	"github.com/world-in-pieces/wip-backend/internal/resync"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Service wires the game flows to the store, the chain and the resync
// orchestrator
type Service struct {
	store      store.Store
	resync     *resync.Service
	pieceToken ethereum.PieceToken
	clock      adapter.Clock
	cfg        config.CivilizationConfig
}

// NewService creates a new game service
func NewService(
	st store.Store,
	resyncSvc *resync.Service,
	pieceToken ethereum.PieceToken,
	clock adapter.Clock,
	cfg config.CivilizationConfig,
) *Service {
	return &Service{
		store:      st,
		resync:     resyncSvc,
		pieceToken: pieceToken,
		clock:      clock,
		cfg:        cfg,
	}
}

// civilizationUser resolves the game user behind a wallet, failing with
// ErrNotJoined when the wallet never joined
func (s *Service) civilizationUser(ctx context.Context, wallet string) (*schema.CivilizationUser, error) {
	civUser, err := s.store.GetCivilizationUserByWallet(ctx, domain.NormalizeWallet(wallet))
	if err != nil {
		return nil, err
	}
	if civUser == nil {
		return nil, domain.ErrNotJoined
	}
	return civUser, nil
}
