package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/geometry"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/reward"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// ClaimResult is the outcome of a claim flow
type ClaimResult struct {
	Claimed int64 `json:"claimed"`
	Balance int64 `json:"balance"`
}

// ClaimOwnerTotal claims the owner reward of every owned segment plus the
// revenue from every citizen hosted under those segments, crediting the
// balance once
func (s *Service) ClaimOwnerTotal(ctx context.Context, wallet string) (*ClaimResult, error) {
	civUser, err := s.civilizationUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if civUser.Role != domain.RoleOwner {
		return nil, domain.ErrNotAllowed
	}

	segments, err := s.store.GetSegmentsByOwner(ctx, civUser.UserID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, domain.ErrNotHosting
	}

	return s.claimOwnerSegments(ctx, civUser, segments)
}

// ClaimOwnerSegment claims the owner reward and citizen revenue of a single
// owned segment
func (s *Service) ClaimOwnerSegment(ctx context.Context, wallet, coordinate string) (*ClaimResult, error) {
	if _, err := geometry.ParseCoordinate(coordinate); err != nil {
		return nil, err
	}

	civUser, err := s.civilizationUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if civUser.Role != domain.RoleOwner {
		return nil, domain.ErrNotAllowed
	}

	segment, err := s.store.GetSegmentByCoordinate(ctx, coordinate)
	if err != nil {
		return nil, err
	}
	if segment == nil {
		return nil, domain.ErrSegmentNotFound
	}
	if segment.OwnerID == nil || *segment.OwnerID != civUser.UserID {
		return nil, domain.ErrNotHosting
	}

	return s.claimOwnerSegments(ctx, civUser, []schema.Segment{*segment})
}

func (s *Service) claimOwnerSegments(ctx context.Context, civUser *schema.CivilizationUser, segments []schema.Segment) (*ClaimResult, error) {
	now := s.clock.Now()

	segmentIDs := make([]int64, 0, len(segments))
	for _, segment := range segments {
		segmentIDs = append(segmentIDs, segment.ID)
	}

	civSegments, err := s.store.GetCivilizationSegmentsBySegmentIDs(ctx, segmentIDs)
	if err != nil {
		return nil, err
	}

	known := make(map[int64]struct{}, len(civSegments))
	for _, cs := range civSegments {
		known[cs.SegmentID] = struct{}{}
	}
	for _, id := range segmentIDs {
		if _, ok := known[id]; ok {
			continue
		}
		// First game touch of this segment starts its accrual clock
		cs, err := s.store.GetOrCreateCivilizationSegment(ctx, id, now)
		if err != nil {
			return nil, err
		}
		civSegments = append(civSegments, *cs)
	}

	var total int64
	for _, cs := range civSegments {
		acc, paidAt := reward.Claim(cs.LastOwnerPaymentDate, s.cfg.OwnerRewardPeriod, s.cfg.OwnerRewardAmount, now)
		if acc.Available {
			if err := s.store.SetCivilizationSegmentPaymentDate(ctx, cs.ID, paidAt); err != nil {
				return nil, err
			}
			total += acc.Claimable
		}

		for _, cave := range cs.Caves {
			for _, citizen := range cave.Citizens {
				if citizen.CivilizationUserID == nil {
					continue
				}

				acc, paidAt := reward.Claim(citizen.LastRevenueCollectionDate, s.cfg.OwnerCitizenRewardPeriod, s.cfg.OwnerCitizenRewardAmount, now)
				if !acc.Available {
					continue
				}
				if err := s.store.SetCaveCitizenPaymentDates(ctx, citizen.ID, nil, &paidAt); err != nil {
					return nil, err
				}
				total += acc.Claimable
			}
		}
	}

	return s.credit(ctx, civUser, total)
}

// ClaimCitizenTotal claims the citizen reward of every citizen token the
// wallet holds
func (s *Service) ClaimCitizenTotal(ctx context.Context, wallet string) (*ClaimResult, error) {
	civUser, err := s.civilizationUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if civUser.Role != domain.RoleCitizen {
		return nil, domain.ErrNotAllowed
	}

	citizens, err := s.store.GetCaveCitizensByUser(ctx, civUser.ID)
	if err != nil {
		return nil, err
	}
	if len(citizens) == 0 {
		return nil, domain.ErrNotHosting
	}

	return s.claimCitizens(ctx, civUser, citizens)
}

// ClaimCitizenCave claims the citizen reward of the wallet's citizens living
// in one cave
func (s *Service) ClaimCitizenCave(ctx context.Context, wallet string, caveID uint64) (*ClaimResult, error) {
	civUser, err := s.civilizationUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if civUser.Role != domain.RoleCitizen {
		return nil, domain.ErrNotAllowed
	}

	citizens, err := s.store.GetCaveCitizensByUser(ctx, civUser.ID)
	if err != nil {
		return nil, err
	}

	inCave := citizens[:0:0]
	for _, citizen := range citizens {
		if citizen.CaveID == caveID {
			inCave = append(inCave, citizen)
		}
	}
	if len(inCave) == 0 {
		return nil, domain.ErrNotHosting
	}

	return s.claimCitizens(ctx, civUser, inCave)
}

func (s *Service) claimCitizens(ctx context.Context, civUser *schema.CivilizationUser, citizens []schema.CaveCitizen) (*ClaimResult, error) {
	now := s.clock.Now()

	var total int64
	for _, citizen := range citizens {
		acc, paidAt := reward.Claim(citizen.LastCitizenPaymentDate, s.cfg.CitizenRewardPeriod, s.cfg.CitizenRewardAmount, now)
		if !acc.Available {
			continue
		}
		if err := s.store.SetCaveCitizenPaymentDates(ctx, citizen.ID, &paidAt, nil); err != nil {
			return nil, err
		}
		total += acc.Claimable
	}

	return s.credit(ctx, civUser, total)
}

func (s *Service) credit(ctx context.Context, civUser *schema.CivilizationUser, total int64) (*ClaimResult, error) {
	if total > 0 {
		if err := s.store.AddCivilizationUserBalance(ctx, civUser.ID, total); err != nil {
			return nil, err
		}

		logger.InfoCtx(ctx, "reward claimed",
			zap.Uint64("civilization_user_id", civUser.ID),
			zap.Int64("claimed", total))
	}

	return &ClaimResult{
		Claimed: total,
		Balance: civUser.Balance + total,
	}, nil
}
