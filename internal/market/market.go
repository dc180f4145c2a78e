// Package market refreshes marketplace data from OpenSea: the daily
// floor-price sample and the current listing set.
package market

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/providers/opensea"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Service pulls marketplace data and persists it for the stats queries
type Service struct {
	store          store.Store
	opensea        opensea.Client
	collectionSlug string
}

// NewService creates a new market service
func NewService(st store.Store, openseaClient opensea.Client, collectionSlug string) *Service {
	return &Service{
		store:          st,
		opensea:        openseaClient,
		collectionSlug: collectionSlug,
	}
}

// Refresh samples the collection floor price and swaps in the current
// listing set. Run by the daily sweeper job.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.refreshPrice(ctx); err != nil {
		return err
	}
	return s.refreshListings(ctx)
}

func (s *Service) refreshPrice(ctx context.Context) error {
	collectionStats, _, err := s.opensea.GetCollectionStats(ctx, s.collectionSlug)
	if err != nil {
		return fmt.Errorf("failed to fetch collection stats: %w", err)
	}

	price := &schema.WorldPrice{
		FloorPrice: collectionStats.FloorPrice,
		Currency:   collectionStats.FloorPriceSymbol,
	}
	if err := s.store.CreateWorldPrice(ctx, price); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "floor price sampled",
		zap.Float64("floor_price", price.FloorPrice),
		zap.String("currency", price.Currency))

	return nil
}

func (s *Service) refreshListings(ctx context.Context) error {
	listings, err := s.opensea.GetCollectionListings(ctx, s.collectionSlug)
	if err != nil {
		return fmt.Errorf("failed to fetch collection listings: %w", err)
	}

	lands := make([]schema.LandForSale, 0, len(listings))
	for _, listing := range listings {
		tokenID := listing.TokenID()
		if tokenID == "" {
			logger.WarnCtx(ctx, "skipping listing without token id",
				zap.String("order_hash", listing.OrderHash))
			continue
		}

		lands = append(lands, schema.LandForSale{
			TokenID:    tokenID,
			OrderHash:  listing.OrderHash,
			PriceValue: listing.Price.Current.Value,
			Currency:   listing.Price.Current.Currency,
			Decimals:   listing.Price.Current.Decimals,
		})
	}

	if err := s.store.ReplaceLandsForSale(ctx, lands); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "listings refreshed", zap.Int("listings", len(lands)))
	return nil
}
