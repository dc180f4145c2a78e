package sweeper

import (
	"context"
	"errors"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/market"
	"github.com/world-in-pieces/wip-backend/internal/resync"
	"github.com/world-in-pieces/wip-backend/internal/stats"
)

// PopulationJob recomputes the population classification of every owner
func PopulationJob(spec string, statsSvc *stats.Service) Job {
	return Job{
		Name: "population-recompute",
		Spec: spec,
		Run:  statsSvc.RecomputePopulation,
	}
}

// ResyncJob runs the ownership pass then the citizenship pass. A run already
// in flight is skipped, not queued.
func ResyncJob(spec string, resyncSvc *resync.Service) Job {
	return Job{
		Name: "global-resync",
		Spec: spec,
		Run: func(ctx context.Context) error {
			if err := resyncSvc.ResyncOwnership(ctx); err != nil {
				if errors.Is(err, domain.ErrResyncRunning) {
					logger.WarnCtx(ctx, "ownership resync already running, skipping")
				} else {
					return err
				}
			}

			if err := resyncSvc.ResyncCitizenship(ctx); err != nil {
				if errors.Is(err, domain.ErrResyncRunning) {
					logger.WarnCtx(ctx, "citizenship resync already running, skipping")
					return nil
				}
				return err
			}
			return nil
		},
	}
}

// MarketJob refreshes the floor price and the listing set
func MarketJob(spec string, marketSvc *market.Service) Job {
	return Job{
		Name: "market-refresh",
		Spec: spec,
		Run:  marketSvc.Refresh,
	}
}
