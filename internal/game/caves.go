package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/geometry"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// BuildCave builds a cave at the given position on one of the wallet's
// segments, charging the configured cave price from the game balance
func (s *Service) BuildCave(ctx context.Context, wallet, coordinate string, position int) (*schema.CivilizationCave, error) {
	if _, err := geometry.ParseCoordinate(coordinate); err != nil {
		return nil, err
	}

	segment, err := s.store.GetSegmentByCoordinate(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if segment == nil {
		return nil, domain.ErrSegmentNotFound
	}

	civUser, err := s.store.GetCivilizationUserByWallet(ctx, domain.NormalizeWallet(wallet))
	if err != nil {
		return nil, err
	}
	if civUser == nil {
		return nil, domain.ErrUserNotFound
	}

	if civUser.Role != domain.RoleOwner || segment.OwnerID == nil || *segment.OwnerID != civUser.UserID {
		return nil, domain.ErrNotAllowed
	}

	if position < 1 || position > s.cfg.MaxCavesPerSegment {
		return nil, domain.ErrCavesLimit
	}

	civSegment, err := s.store.GetOrCreateCivilizationSegment(ctx, segment.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(civSegment.Caves) >= s.cfg.MaxCavesPerSegment {
		return nil, domain.ErrCavesLimit
	}

	if err := s.store.SpendCivilizationUserBalance(ctx, civUser.ID, s.cfg.CavePrice); err != nil {
		return nil, err
	}

	cave := &schema.CivilizationCave{
		CivilizationSegmentID: civSegment.ID,
		Position:              position,
	}
	if err := s.store.CreateCave(ctx, cave); err != nil {
		// Refund the already-charged price when the position was taken by a
		// concurrent build
		if errors.Is(err, domain.ErrCaveAlreadyExists) {
			if refundErr := s.store.AddCivilizationUserBalance(ctx, civUser.ID, s.cfg.CavePrice); refundErr != nil {
				logger.ErrorCtx(ctx, refundErr,
					zap.String("wallet", wallet),
					zap.Uint64("civilization_user_id", civUser.ID))
			}
		}
		return nil, err
	}

	logger.InfoCtx(ctx, "cave built",
		zap.String("wallet", wallet),
		zap.String("coordinate", coordinate),
		zap.Int("position", position))

	return cave, nil
}
