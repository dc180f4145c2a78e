package store

import (
	"context"
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// --- users ---

	// GetUserByWallet retrieves a user by lower-cased wallet address, nil when absent
	GetUserByWallet(ctx context.Context, wallet string) (*schema.User, error)
	// GetOrCreateUserByWallet retrieves a user by wallet, creating the row if absent
	GetOrCreateUserByWallet(ctx context.Context, wallet string) (*schema.User, error)
	// UpdateUserPopulationStatus overwrites the population snapshot of a user
	UpdateUserPopulationStatus(ctx context.Context, userID uint64, status domain.PopulationStatus) error
	// UpdateUserProfile overwrites the display name and description of a user
	UpdateUserProfile(ctx context.Context, userID uint64, username, description *string) error
	// UpsertUserSocials creates or overwrites the socials row of a user
	UpsertUserSocials(ctx context.Context, socials *schema.UserSocials) error

	// --- civilization users ---

	// GetCivilizationUserByWallet retrieves the game user behind a wallet, nil when absent
	GetCivilizationUserByWallet(ctx context.Context, wallet string) (*schema.CivilizationUser, error)
	// GetCivilizationUserByUserID retrieves the game user of a user row, nil when absent
	GetCivilizationUserByUserID(ctx context.Context, userID uint64) (*schema.CivilizationUser, error)
	// CreateCivilizationUser creates a game user
	CreateCivilizationUser(ctx context.Context, civUser *schema.CivilizationUser) error
	// UpdateCivilizationUserRole changes the role of a game user
	UpdateCivilizationUserRole(ctx context.Context, civUserID uint64, role domain.Role) error
	// AddCivilizationUserBalance credits the game balance
	AddCivilizationUserBalance(ctx context.Context, civUserID uint64, amount int64) error
	// SpendCivilizationUserBalance debits the game balance, failing with
	// ErrNotEnoughTokens when the balance does not cover the amount
	SpendCivilizationUserBalance(ctx context.Context, civUserID uint64, amount int64) error

	// --- segments ---

	// GetSegmentByCoordinate retrieves a segment by coordinate, nil when absent
	GetSegmentByCoordinate(ctx context.Context, coordinate string) (*schema.Segment, error)
	// GetSegmentsByCoordinates retrieves every segment matching the coordinates
	GetSegmentsByCoordinates(ctx context.Context, coordinates []string) ([]schema.Segment, error)
	// GetSegmentsByOwner retrieves the segments owned by a user
	GetSegmentsByOwner(ctx context.Context, userID uint64) ([]schema.Segment, error)
	// GetOwnedSegments retrieves every segment with a non-null owner, owner preloaded
	GetOwnedSegments(ctx context.Context) ([]schema.Segment, error)
	// UpsertSegment seeds or refreshes a segment row from indexer data
	UpsertSegment(ctx context.Context, segmentID int64, coordinate string) error
	// SetSegmentOwner points a segment at its current owner
	SetSegmentOwner(ctx context.Context, segmentID int64, userID uint64) error
	// NullifySegmentOwners clears the owner of every segment
	NullifySegmentOwners(ctx context.Context) error
	// NullifySegmentOwnersByUser clears the owner reference of one user's segments
	NullifySegmentOwnersByUser(ctx context.Context, userID uint64) error
	// UpdateSegmentImages overwrites a segment's image references and, when a
	// log entry is given, writes it in the same transaction
	UpdateSegmentImages(ctx context.Context, segmentID int64, imageURL, miniImageURL *string, log *schema.SegmentImageLog) error
	// UpdateSegmentMeta overwrites a segment's local name and site URL
	UpdateSegmentMeta(ctx context.Context, segmentID int64, name, siteURL *string) error

	// --- merged segments ---

	// GetMergedSegmentByID retrieves a merged segment with members, nil when absent
	GetMergedSegmentByID(ctx context.Context, id uint64) (*schema.MergedSegment, error)
	// ListMergedSegments retrieves every merged segment with members
	ListMergedSegments(ctx context.Context) ([]schema.MergedSegment, error)
	// CreateMergedSegment creates the merged row, points the members at it and
	// writes the audit log entry in one transaction
	CreateMergedSegment(ctx context.Context, merged *schema.MergedSegment, memberIDs []int64, log *schema.SegmentImageLog) error
	// DeleteMergedSegment detaches the members, deletes the merged row and
	// writes the audit log entry in one transaction
	DeleteMergedSegment(ctx context.Context, id uint64, log *schema.SegmentImageLog) error
	// UpdateMergedSegmentImages overwrites a merged segment's image references
	// and, when a log entry is given, writes it against the members in the
	// same transaction
	UpdateMergedSegmentImages(ctx context.Context, id uint64, imageURL, miniImageURL *string, memberIDs []int64, log *schema.SegmentImageLog) error

	// --- civilization segments, caves and citizens ---

	// GetCivilizationSegmentBySegmentID retrieves the game shadow of a segment
	// with caves and citizens preloaded, nil when absent
	GetCivilizationSegmentBySegmentID(ctx context.Context, segmentID int64) (*schema.CivilizationSegment, error)
	// GetOrCreateCivilizationSegment retrieves the game shadow of a segment,
	// creating it with the accrual clock set to now if absent
	GetOrCreateCivilizationSegment(ctx context.Context, segmentID int64, now time.Time) (*schema.CivilizationSegment, error)
	// GetCivilizationSegmentsBySegmentIDs retrieves game shadows in bulk with
	// caves and citizens preloaded
	GetCivilizationSegmentsBySegmentIDs(ctx context.Context, segmentIDs []int64) ([]schema.CivilizationSegment, error)
	// SetCivilizationSegmentPaymentDate resets the owner accrual clock
	SetCivilizationSegmentPaymentDate(ctx context.Context, civSegmentID uint64, paidAt time.Time) error
	// CreateCave creates a cave, failing with ErrCaveAlreadyExists when the
	// position is taken on the segment
	CreateCave(ctx context.Context, cave *schema.CivilizationCave) error
	// GetCaveByID retrieves a cave with citizens preloaded, nil when absent
	GetCaveByID(ctx context.Context, caveID uint64) (*schema.CivilizationCave, error)
	// AssignCaveCitizen attaches a citizen token to a cave for a game user,
	// creating the citizen row with fresh accrual clocks if absent
	AssignCaveCitizen(ctx context.Context, caveID uint64, tokenID string, civUserID uint64, now time.Time) error
	// NullifyCaveCitizens vacates every citizen
	NullifyCaveCitizens(ctx context.Context) error
	// NullifyCaveCitizensByUser vacates one game user's citizens
	NullifyCaveCitizensByUser(ctx context.Context, civUserID uint64) error
	// GetCaveCitizensByUser retrieves the citizen rows held by a game user
	GetCaveCitizensByUser(ctx context.Context, civUserID uint64) ([]schema.CaveCitizen, error)
	// SetCaveCitizenPaymentDates resets one or both accrual clocks of a citizen row
	SetCaveCitizenPaymentDates(ctx context.Context, citizenID uint64, citizenPaidAt, revenuePaidAt *time.Time) error

	// --- audit log ---

	// CreateImageLog writes an audit log entry attached to segments
	CreateImageLog(ctx context.Context, log *schema.SegmentImageLog, segmentIDs []int64) error
	// ListImageLogs retrieves audit log entries, newest first, optionally
	// filtered by wallet
	ListImageLogs(ctx context.Context, wallet string, limit, offset int) ([]schema.SegmentImageLog, error)
	// ListRecentUploads retrieves the latest UPLOAD log entries
	ListRecentUploads(ctx context.Context, limit int) ([]schema.SegmentImageLog, error)

	// --- market data ---

	// CreateWorldPrice appends a floor-price sample
	CreateWorldPrice(ctx context.Context, price *schema.WorldPrice) error
	// GetWorldPricesSince retrieves price samples newer than since, oldest first
	GetWorldPricesSince(ctx context.Context, since time.Time) ([]schema.WorldPrice, error)
	// GetLatestWorldPrice retrieves the newest price sample, nil when none exists
	GetLatestWorldPrice(ctx context.Context) (*schema.WorldPrice, error)
	// ReplaceLandsForSale swaps in the current listing set wholesale
	ReplaceLandsForSale(ctx context.Context, lands []schema.LandForSale) error
	// ListLandsForSale retrieves the current listing set
	ListLandsForSale(ctx context.Context) ([]schema.LandForSale, error)

	// --- resync bookkeeping ---

	// CreateResyncRun opens a resync run in the nullifying phase
	CreateResyncRun(ctx context.Context, kind string) (*schema.ResyncRun, error)
	// SetResyncRunPhase records a phase transition
	SetResyncRunPhase(ctx context.Context, runID uint64, phase schema.ResyncPhase) error
	// FinishResyncRun closes a run with its terminal phase and optional error
	FinishResyncRun(ctx context.Context, runID uint64, phase schema.ResyncPhase, runErr *string) error
}
