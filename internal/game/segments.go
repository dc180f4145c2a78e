package game

import (
	"context"
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/reward"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// AccrualView is the serialized state of one reward site
type AccrualView struct {
	Claimable      int64     `json:"claimable"`
	Available      bool      `json:"available"`
	Maxed          bool      `json:"maxed"`
	NextEligibleAt time.Time `json:"nextEligibleAt"`
}

// CitizenView describes one citizen token and its reward state
type CitizenView struct {
	ID      uint64      `json:"id"`
	CaveID  uint64      `json:"caveId"`
	TokenID string      `json:"tokenId"`
	Reward  AccrualView `json:"reward"`
}

// CaveView describes one cave on an owned segment. Revenue sums the owner's
// per-citizen revenue accruals.
type CaveView struct {
	ID       uint64        `json:"id"`
	Position int           `json:"position"`
	Citizens []CitizenView `json:"citizens"`
	Revenue  AccrualView   `json:"revenue"`
}

// SegmentView describes one owned segment with its caves and reward state
type SegmentView struct {
	ID          int64       `json:"id"`
	Coordinate  string      `json:"coordinate"`
	OwnerReward AccrualView `json:"ownerReward"`
	Caves       []CaveView  `json:"caves"`
}

// SegmentsResponse is the role-dependent holdings listing
type SegmentsResponse struct {
	Role     domain.Role   `json:"role"`
	Segments []SegmentView `json:"segments,omitempty"`
	Citizens []CitizenView `json:"citizens,omitempty"`
}

// ListSegments returns the wallet's game holdings: owned segments with caves
// and accrual summaries for owners, hosted citizen tokens for citizens
func (s *Service) ListSegments(ctx context.Context, wallet string) (*SegmentsResponse, error) {
	civUser, err := s.civilizationUser(ctx, wallet)
	if err != nil {
		return nil, err
	}

	switch civUser.Role {
	case domain.RoleCitizen:
		return s.listCitizenHoldings(ctx, civUser)
	default:
		return s.listOwnerHoldings(ctx, civUser)
	}
}

func (s *Service) listOwnerHoldings(ctx context.Context, civUser *schema.CivilizationUser) (*SegmentsResponse, error) {
	now := s.clock.Now()

	segments, err := s.store.GetSegmentsByOwner(ctx, civUser.UserID)
	if err != nil {
		return nil, err
	}

	segmentIDs := make([]int64, 0, len(segments))
	for _, segment := range segments {
		segmentIDs = append(segmentIDs, segment.ID)
	}

	civSegments, err := s.store.GetCivilizationSegmentsBySegmentIDs(ctx, segmentIDs)
	if err != nil {
		return nil, err
	}
	bySegment := make(map[int64]schema.CivilizationSegment, len(civSegments))
	for _, cs := range civSegments {
		bySegment[cs.SegmentID] = cs
	}

	resp := &SegmentsResponse{
		Role:     domain.RoleOwner,
		Segments: make([]SegmentView, 0, len(segments)),
	}
	for _, segment := range segments {
		view := SegmentView{
			ID:         segment.ID,
			Coordinate: segment.Coordinate,
		}

		cs, inGame := bySegment[segment.ID]
		if inGame {
			view.OwnerReward = accrualView(reward.Compute(cs.LastOwnerPaymentDate, s.cfg.OwnerRewardPeriod, s.cfg.OwnerRewardAmount, now))
			view.Caves = make([]CaveView, 0, len(cs.Caves))
			for _, cave := range cs.Caves {
				view.Caves = append(view.Caves, s.caveView(cave, now))
			}
		}

		resp.Segments = append(resp.Segments, view)
	}

	return resp, nil
}

func (s *Service) caveView(cave schema.CivilizationCave, now time.Time) CaveView {
	view := CaveView{
		ID:       cave.ID,
		Position: cave.Position,
		Citizens: make([]CitizenView, 0, len(cave.Citizens)),
	}

	for _, citizen := range cave.Citizens {
		if citizen.CivilizationUserID == nil {
			continue
		}

		revenue := reward.Compute(citizen.LastRevenueCollectionDate, s.cfg.OwnerCitizenRewardPeriod, s.cfg.OwnerCitizenRewardAmount, now)
		view.Revenue.Claimable += revenue.Claimable
		view.Revenue.Available = view.Revenue.Available || revenue.Available
		view.Revenue.Maxed = view.Revenue.Maxed || revenue.Maxed
		if view.Revenue.NextEligibleAt.IsZero() || revenue.NextEligibleAt.Before(view.Revenue.NextEligibleAt) {
			view.Revenue.NextEligibleAt = revenue.NextEligibleAt
		}

		view.Citizens = append(view.Citizens, CitizenView{
			ID:      citizen.ID,
			CaveID:  cave.ID,
			TokenID: citizen.TokenID,
			Reward:  accrualView(revenue),
		})
	}

	return view
}

func (s *Service) listCitizenHoldings(ctx context.Context, civUser *schema.CivilizationUser) (*SegmentsResponse, error) {
	now := s.clock.Now()

	citizens, err := s.store.GetCaveCitizensByUser(ctx, civUser.ID)
	if err != nil {
		return nil, err
	}

	resp := &SegmentsResponse{
		Role:     domain.RoleCitizen,
		Citizens: make([]CitizenView, 0, len(citizens)),
	}
	for _, citizen := range citizens {
		resp.Citizens = append(resp.Citizens, CitizenView{
			ID:      citizen.ID,
			CaveID:  citizen.CaveID,
			TokenID: citizen.TokenID,
			Reward:  accrualView(reward.Compute(citizen.LastCitizenPaymentDate, s.cfg.CitizenRewardPeriod, s.cfg.CitizenRewardAmount, now)),
		})
	}

	return resp, nil
}

func accrualView(acc reward.Accrual) AccrualView {
	return AccrualView{
		Claimable:      acc.Claimable,
		Available:      acc.Available,
		Maxed:          acc.Maxed,
		NextEligibleAt: acc.NextEligibleAt,
	}
}
