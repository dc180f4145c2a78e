package resync

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/providers/subgraph"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

const (
	// KindOwnership labels segment-owner resync runs
	KindOwnership = "ownership"
	// KindCitizenship labels cave-citizen resync runs
	KindCitizenship = "citizenship"
)

// Service reconciles local ownership and citizenship state against the
// subgraph snapshot. Runs of the same kind are serialized; a second run
// arriving while one is in flight is rejected, not queued.
type Service struct {
	store         store.Store
	landClient    subgraph.LandClient
	citizenClient subgraph.CitizenClient
	clock         adapter.Clock
	pool          pond.Pool

	ownershipMu   sync.Mutex
	citizenshipMu sync.Mutex
}

// NewService creates a new resync service
func NewService(
	st store.Store,
	landClient subgraph.LandClient,
	citizenClient subgraph.CitizenClient,
	clock adapter.Clock,
	poolSize int,
) *Service {
	if poolSize <= 0 {
		poolSize = 10
	}

	return &Service{
		store:         st,
		landClient:    landClient,
		citizenClient: citizenClient,
		clock:         clock,
		pool:          pond.NewPool(poolSize),
	}
}

// DetermineRole derives the game role of a wallet from its current token
// holdings. Holding both land and citizen tokens is rejected outright so a
// wallet can never end up half-assigned.
func (s *Service) DetermineRole(ctx context.Context, wallet string) (domain.Role, error) {
	wallet = domain.NormalizeWallet(wallet)

	segments, err := s.landClient.GetUserSegments(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("failed to fetch segments for role check: %w", err)
	}

	citizens, err := s.citizenClient.GetUserCitizens(ctx, wallet)
	if err != nil {
		return "", fmt.Errorf("failed to fetch citizens for role check: %w", err)
	}

	switch {
	case len(segments) > 0 && len(citizens) > 0:
		return "", domain.ErrBothTokensOwned
	case len(segments) > 0:
		return domain.RoleOwner, nil
	case len(citizens) > 0:
		return domain.RoleCitizen, nil
	default:
		return "", domain.ErrNotAllowed
	}
}

// ResyncOwnership runs the full ownership pass: snapshot, nullify, repopulate.
// The snapshot is taken before nullification so the repopulate phase mirrors
// the chain state as of run start.
func (s *Service) ResyncOwnership(ctx context.Context) error {
	if !s.ownershipMu.TryLock() {
		return domain.ErrResyncRunning
	}
	defer s.ownershipMu.Unlock()

	run, err := s.store.CreateResyncRun(ctx, KindOwnership)
	if err != nil {
		return err
	}

	if err := s.resyncOwnershipPhases(ctx, run.ID); err != nil {
		s.finishRun(ctx, run.ID, err)
		return err
	}

	s.finishRun(ctx, run.ID, nil)
	return nil
}

func (s *Service) resyncOwnershipPhases(ctx context.Context, runID uint64) error {
	snapshot, err := s.landClient.GetAllSegmentOwners(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch ownership snapshot: %w", err)
	}

	if err := s.store.NullifySegmentOwners(ctx); err != nil {
		return err
	}

	if err := s.store.SetResyncRunPhase(ctx, runID, schema.ResyncPhaseRepopulating); err != nil {
		return err
	}

	group := s.pool.NewGroup()
	for _, owner := range snapshot {
		group.SubmitErr(func() error {
			return s.repopulateOwner(ctx, owner)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("ownership repopulate failed: %w", err)
	}

	logger.InfoCtx(ctx, "ownership resync complete", zap.Int("owners", len(snapshot)))
	return nil
}

func (s *Service) repopulateOwner(ctx context.Context, owner subgraph.OwnerSegments) error {
	user, err := s.store.GetOrCreateUserByWallet(ctx, owner.WalletAddress)
	if err != nil {
		return err
	}

	for _, segment := range owner.Segments {
		segmentID, err := strconv.ParseInt(segment.ID, 10, 64)
		if err != nil {
			logger.WarnCtx(ctx, "skipping segment with malformed id",
				zap.String("segment_id", segment.ID),
				zap.String("wallet", owner.WalletAddress))
			continue
		}

		if err := s.store.UpsertSegment(ctx, segmentID, segment.Coordinate); err != nil {
			return err
		}
		if err := s.store.SetSegmentOwner(ctx, segmentID, user.ID); err != nil {
			return err
		}
	}

	return nil
}

// ResyncCitizenship runs the full citizenship pass: snapshot, nullify,
// repopulate
func (s *Service) ResyncCitizenship(ctx context.Context) error {
	if !s.citizenshipMu.TryLock() {
		return domain.ErrResyncRunning
	}
	defer s.citizenshipMu.Unlock()

	run, err := s.store.CreateResyncRun(ctx, KindCitizenship)
	if err != nil {
		return err
	}

	if err := s.resyncCitizenshipPhases(ctx, run.ID); err != nil {
		s.finishRun(ctx, run.ID, err)
		return err
	}

	s.finishRun(ctx, run.ID, nil)
	return nil
}

func (s *Service) resyncCitizenshipPhases(ctx context.Context, runID uint64) error {
	snapshot, err := s.citizenClient.GetAllCitizenOwners(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch citizenship snapshot: %w", err)
	}

	if err := s.store.NullifyCaveCitizens(ctx); err != nil {
		return err
	}

	if err := s.store.SetResyncRunPhase(ctx, runID, schema.ResyncPhaseRepopulating); err != nil {
		return err
	}

	group := s.pool.NewGroup()
	for _, owner := range snapshot {
		group.SubmitErr(func() error {
			return s.repopulateCitizenOwner(ctx, owner)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("citizenship repopulate failed: %w", err)
	}

	logger.InfoCtx(ctx, "citizenship resync complete", zap.Int("holders", len(snapshot)))
	return nil
}

func (s *Service) repopulateCitizenOwner(ctx context.Context, owner subgraph.OwnerCitizens) error {
	civUser, err := s.ensureCivilizationUser(ctx, owner.WalletAddress, domain.RoleCitizen)
	if err != nil {
		return err
	}

	for _, citizen := range owner.Citizens {
		caveID, err := strconv.ParseUint(citizen.CaveID, 10, 64)
		if err != nil {
			logger.WarnCtx(ctx, "skipping citizen with malformed cave id",
				zap.String("cave_id", citizen.CaveID),
				zap.String("token_id", citizen.TokenID))
			continue
		}

		cave, err := s.store.GetCaveByID(ctx, caveID)
		if err != nil {
			return err
		}
		if cave == nil {
			// The cave has not been built locally yet; the token will attach
			// on a later run once it exists
			logger.DebugCtx(ctx, "citizen references unknown cave",
				zap.Uint64("cave_id", caveID),
				zap.String("token_id", citizen.TokenID))
			continue
		}

		if err := s.store.AssignCaveCitizen(ctx, caveID, citizen.TokenID, civUser.ID, s.clock.Now()); err != nil {
			return err
		}
	}

	return nil
}

// ensureCivilizationUser fetches or lazily creates the game user behind a wallet
func (s *Service) ensureCivilizationUser(ctx context.Context, wallet string, role domain.Role) (*schema.CivilizationUser, error) {
	user, err := s.store.GetOrCreateUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	civUser, err := s.store.GetCivilizationUserByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if civUser != nil {
		return civUser, nil
	}

	civUser = &schema.CivilizationUser{
		UserID: user.ID,
		Role:   role,
		Color:  domain.ColorFromWallet(user.WalletAddress),
	}
	if err := s.store.CreateCivilizationUser(ctx, civUser); err != nil {
		return nil, err
	}
	return civUser, nil
}

// SyncUser re-runs the single-wallet slice of the resync: determine the role
// from current holdings, then rebuild that wallet's ownership or citizenship
// rows. Fails with ErrBothTokensOwned before touching anything when the
// wallet holds both token types.
func (s *Service) SyncUser(ctx context.Context, wallet string) error {
	wallet = domain.NormalizeWallet(wallet)

	role, err := s.DetermineRole(ctx, wallet)
	if err != nil {
		return err
	}

	user, err := s.store.GetOrCreateUserByWallet(ctx, wallet)
	if err != nil {
		return err
	}

	civUser, err := s.store.GetCivilizationUserByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if civUser == nil {
		civUser = &schema.CivilizationUser{
			UserID: user.ID,
			Role:   role,
			Color:  domain.ColorFromWallet(wallet),
		}
		if err := s.store.CreateCivilizationUser(ctx, civUser); err != nil {
			return err
		}
	} else if civUser.Role != role {
		if err := s.store.UpdateCivilizationUserRole(ctx, civUser.ID, role); err != nil {
			return err
		}
	}

	// Clear both sides before repopulating the active one so a role flip
	// leaves no stale rows behind
	if err := s.store.NullifySegmentOwnersByUser(ctx, user.ID); err != nil {
		return err
	}
	if err := s.store.NullifyCaveCitizensByUser(ctx, civUser.ID); err != nil {
		return err
	}

	switch role {
	case domain.RoleOwner:
		segments, err := s.landClient.GetUserSegments(ctx, wallet)
		if err != nil {
			return err
		}
		return s.repopulateOwner(ctx, subgraph.OwnerSegments{
			WalletAddress: wallet,
			Segments:      segments,
		})
	case domain.RoleCitizen:
		citizens, err := s.citizenClient.GetUserCitizens(ctx, wallet)
		if err != nil {
			return err
		}
		return s.repopulateCitizenOwner(ctx, subgraph.OwnerCitizens{
			WalletAddress: wallet,
			Citizens:      citizens,
		})
	}

	return nil
}

func (s *Service) finishRun(ctx context.Context, runID uint64, runErr error) {
	phase := schema.ResyncPhaseDone
	var errMsg *string
	if runErr != nil {
		phase = schema.ResyncPhaseFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	if err := s.store.FinishResyncRun(ctx, runID, phase, errMsg); err != nil {
		logger.ErrorCtx(ctx, err, zap.Uint64("run_id", runID))
	}
}
