// Package stats computes the marketplace statistics surface: population
// classification, top holders, price changes, current listings and recent
// uploads.
package stats

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Thresholds for the population classification, in owned segments
const (
	imperialistMin = 100
	conquererMin   = 30
	lordMin        = 10
	settlerMin     = 5
)

// Service answers the stats queries from the store and the country index
type Service struct {
	store     store.Store
	countries *CountryIndex
	clock     adapter.Clock
}

// NewService creates a new stats service
func NewService(st store.Store, countries *CountryIndex, clock adapter.Clock) *Service {
	return &Service{
		store:     st,
		countries: countries,
		clock:     clock,
	}
}

// PopulationEntry classifies one owner
type PopulationEntry struct {
	WalletAddress string                  `json:"walletAddress"`
	Status        domain.PopulationStatus `json:"status"`
	Segments      int                     `json:"segments"`
	// Country names the ruled country for emperors
	Country string `json:"country,omitempty"`
}

type holder struct {
	userID      uint64
	coordinates map[string]struct{}
}

func (s *Service) holders(ctx context.Context) (map[string]*holder, error) {
	segments, err := s.store.GetOwnedSegments(ctx)
	if err != nil {
		return nil, err
	}

	holders := map[string]*holder{}
	for _, segment := range segments {
		if segment.Owner == nil {
			continue
		}
		wallet := segment.Owner.WalletAddress
		h, ok := holders[wallet]
		if !ok {
			h = &holder{userID: segment.Owner.ID, coordinates: map[string]struct{}{}}
			holders[wallet] = h
		}
		h.coordinates[segment.Coordinate] = struct{}{}
	}

	return holders, nil
}

func (s *Service) classify(h *holder) (domain.PopulationStatus, string) {
	if country := s.countries.RuledCountry(h.coordinates); country != "" {
		return domain.PopulationEmperor, country
	}

	switch count := len(h.coordinates); {
	case count >= imperialistMin:
		return domain.PopulationImperialist, ""
	case count >= conquererMin:
		return domain.PopulationConquerer, ""
	case count >= lordMin:
		return domain.PopulationLord, ""
	case count >= settlerMin:
		return domain.PopulationSettler, ""
	default:
		return domain.PopulationLandowner, ""
	}
}

// Population classifies every current owner, largest holdings first
func (s *Service) Population(ctx context.Context) ([]PopulationEntry, error) {
	holders, err := s.holders(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]PopulationEntry, 0, len(holders))
	for wallet, h := range holders {
		status, country := s.classify(h)
		entries = append(entries, PopulationEntry{
			WalletAddress: wallet,
			Status:        status,
			Segments:      len(h.coordinates),
			Country:       country,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Segments != entries[j].Segments {
			return entries[i].Segments > entries[j].Segments
		}
		return entries[i].WalletAddress < entries[j].WalletAddress
	})

	return entries, nil
}

// RecomputePopulation classifies every owner and snapshots the status onto
// the user rows. Run by the hourly sweeper job.
func (s *Service) RecomputePopulation(ctx context.Context) error {
	holders, err := s.holders(ctx)
	if err != nil {
		return err
	}

	for _, h := range holders {
		status, _ := s.classify(h)
		if err := s.store.UpdateUserPopulationStatus(ctx, h.userID, status); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "population recomputed", zap.Int("owners", len(holders)))
	return nil
}

// HolderEntry is one row of the top-holders board
type HolderEntry struct {
	WalletAddress string `json:"walletAddress"`
	Segments      int    `json:"segments"`
}

// TopHolders returns the owners with the most segments, ties broken by wallet
func (s *Service) TopHolders(ctx context.Context, limit int) ([]HolderEntry, error) {
	holders, err := s.holders(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]HolderEntry, 0, len(holders))
	for wallet, h := range holders {
		entries = append(entries, HolderEntry{WalletAddress: wallet, Segments: len(h.coordinates)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Segments != entries[j].Segments {
			return entries[i].Segments > entries[j].Segments
		}
		return entries[i].WalletAddress < entries[j].WalletAddress
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// PriceChanges summarizes the floor price against its daily and weekly
// baselines
type PriceChanges struct {
	FloorPrice      float64 `json:"floorPrice"`
	Currency        string  `json:"currency"`
	DailyChangePct  float64 `json:"dailyChangePct"`
	WeeklyChangePct float64 `json:"weeklyChangePct"`
}

// PriceChanges compares the newest floor-price sample against the samples
// from one day and one week ago. The newest sample is read directly so the
// current price survives gaps in the windowed history.
func (s *Service) PriceChanges(ctx context.Context) (*PriceChanges, error) {
	now := s.clock.Now()

	latest, err := s.store.GetLatestWorldPrice(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &PriceChanges{}, nil
	}

	changes := &PriceChanges{
		FloorPrice: latest.FloorPrice,
		Currency:   latest.Currency,
	}

	samples, err := s.store.GetWorldPricesSince(ctx, now.Add(-8*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return changes, nil
	}

	changes.DailyChangePct = changePct(baseline(samples, now.Add(-24*time.Hour)), latest.FloorPrice)
	changes.WeeklyChangePct = changePct(baseline(samples, now.Add(-7*24*time.Hour)), latest.FloorPrice)

	return changes, nil
}

// baseline picks the newest sample taken at or before the cutoff, falling
// back to the oldest sample when the history is shorter than the window
func baseline(samples []schema.WorldPrice, cutoff time.Time) float64 {
	base := samples[0].FloorPrice
	for _, sample := range samples {
		if sample.CreatedAt.After(cutoff) {
			break
		}
		base = sample.FloorPrice
	}
	return base
}

func changePct(base, current float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

// LandsForSale returns the current marketplace listings
func (s *Service) LandsForSale(ctx context.Context) ([]schema.LandForSale, error) {
	return s.store.ListLandsForSale(ctx)
}

// RecentImages returns the latest image uploads
func (s *Service) RecentImages(ctx context.Context, limit int) ([]schema.SegmentImageLog, error) {
	return s.store.ListRecentUploads(ctx, limit)
}
