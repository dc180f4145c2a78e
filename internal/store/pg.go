package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to safe defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// --- users ---

// GetUserByWallet retrieves a user by lower-cased wallet address
func (s *pgStore) GetUserByWallet(ctx context.Context, wallet string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Preload("Socials").
		Where("wallet_address = ?", domain.NormalizeWallet(wallet)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetOrCreateUserByWallet retrieves a user by wallet, creating the row if absent
func (s *pgStore) GetOrCreateUserByWallet(ctx context.Context, wallet string) (*schema.User, error) {
	normalized := domain.NormalizeWallet(wallet)

	user := schema.User{WalletAddress: normalized}
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", normalized).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return &user, nil
}

// UpdateUserPopulationStatus overwrites the population snapshot of a user
func (s *pgStore) UpdateUserPopulationStatus(ctx context.Context, userID uint64, status domain.PopulationStatus) error {
	err := s.db.WithContext(ctx).
		Model(&schema.User{}).
		Where("id = ?", userID).
		Update("population_status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update population status: %w", err)
	}
	return nil
}

// UpdateUserProfile overwrites the display name and description of a user
func (s *pgStore) UpdateUserProfile(ctx context.Context, userID uint64, username, description *string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"username":    username,
			"description": description,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpsertUserSocials creates or overwrites the socials row of a user
func (s *pgStore) UpsertUserSocials(ctx context.Context, socials *schema.UserSocials) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"twitter", "discord", "instagram"}),
		}).
		Create(socials).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user socials: %w", err)
	}
	return nil
}

// --- civilization users ---

// GetCivilizationUserByWallet retrieves the game user behind a wallet
func (s *pgStore) GetCivilizationUserByWallet(ctx context.Context, wallet string) (*schema.CivilizationUser, error) {
	var civUser schema.CivilizationUser
	err := s.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = civilization_users.user_id").
		Where("users.wallet_address = ?", domain.NormalizeWallet(wallet)).
		First(&civUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get civilization user: %w", err)
	}
	return &civUser, nil
}

// GetCivilizationUserByUserID retrieves the game user of a user row
func (s *pgStore) GetCivilizationUserByUserID(ctx context.Context, userID uint64) (*schema.CivilizationUser, error) {
	var civUser schema.CivilizationUser
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&civUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get civilization user: %w", err)
	}
	return &civUser, nil
}

// CreateCivilizationUser creates a game user
func (s *pgStore) CreateCivilizationUser(ctx context.Context, civUser *schema.CivilizationUser) error {
	if err := s.db.WithContext(ctx).Create(civUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyInGame
		}
		return fmt.Errorf("failed to create civilization user: %w", err)
	}
	return nil
}

// UpdateCivilizationUserRole changes the role of a game user
func (s *pgStore) UpdateCivilizationUserRole(ctx context.Context, civUserID uint64, role domain.Role) error {
	err := s.db.WithContext(ctx).
		Model(&schema.CivilizationUser{}).
		Where("id = ?", civUserID).
		Update("role", role).Error
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// AddCivilizationUserBalance credits the game balance
func (s *pgStore) AddCivilizationUserBalance(ctx context.Context, civUserID uint64, amount int64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.CivilizationUser{}).
		Where("id = ?", civUserID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("failed to add balance: %w", err)
	}
	return nil
}

// SpendCivilizationUserBalance debits the game balance. The balance guard in
// the WHERE clause keeps concurrent spends from driving it negative.
func (s *pgStore) SpendCivilizationUserBalance(ctx context.Context, civUserID uint64, amount int64) error {
	result := s.db.WithContext(ctx).
		Model(&schema.CivilizationUser{}).
		Where("id = ? AND balance >= ?", civUserID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to spend balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotEnoughTokens
	}
	return nil
}

// --- segments ---

// GetSegmentByCoordinate retrieves a segment by coordinate
func (s *pgStore) GetSegmentByCoordinate(ctx context.Context, coordinate string) (*schema.Segment, error) {
	var segment schema.Segment
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("coordinate = ?", coordinate).
		First(&segment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	return &segment, nil
}

// GetSegmentsByCoordinates retrieves every segment matching the coordinates
func (s *pgStore) GetSegmentsByCoordinates(ctx context.Context, coordinates []string) ([]schema.Segment, error) {
	var segments []schema.Segment
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("coordinate IN ?", coordinates).
		Find(&segments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get segments: %w", err)
	}
	return segments, nil
}

// GetSegmentsByOwner retrieves the segments owned by a user
func (s *pgStore) GetSegmentsByOwner(ctx context.Context, userID uint64) ([]schema.Segment, error) {
	var segments []schema.Segment
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("coordinate").
		Find(&segments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get segments by owner: %w", err)
	}
	return segments, nil
}

// GetOwnedSegments retrieves every segment with a non-null owner
func (s *pgStore) GetOwnedSegments(ctx context.Context) ([]schema.Segment, error) {
	var segments []schema.Segment
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id IS NOT NULL").
		Find(&segments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get owned segments: %w", err)
	}
	return segments, nil
}

// UpsertSegment seeds or refreshes a segment row from indexer data
func (s *pgStore) UpsertSegment(ctx context.Context, segmentID int64, coordinate string) error {
	segment := schema.Segment{
		ID:         segmentID,
		Coordinate: coordinate,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&segment).Error
	if err != nil {
		return fmt.Errorf("failed to upsert segment: %w", err)
	}
	return nil
}

// SetSegmentOwner points a segment at its current owner
func (s *pgStore) SetSegmentOwner(ctx context.Context, segmentID int64, userID uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Segment{}).
		Where("id = ?", segmentID).
		Update("owner_id", userID).Error
	if err != nil {
		return fmt.Errorf("failed to set segment owner: %w", err)
	}
	return nil
}

// NullifySegmentOwners clears the owner of every segment
func (s *pgStore) NullifySegmentOwners(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Segment{}).
		Where("owner_id IS NOT NULL").
		Update("owner_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to nullify segment owners: %w", err)
	}
	return nil
}

// NullifySegmentOwnersByUser clears the owner reference of one user's segments
func (s *pgStore) NullifySegmentOwnersByUser(ctx context.Context, userID uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Segment{}).
		Where("owner_id = ?", userID).
		Update("owner_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to nullify segment owners by user: %w", err)
	}
	return nil
}

// UpdateSegmentImages overwrites a segment's image references and, when a
// log entry is given, writes it in the same transaction
func (s *pgStore) UpdateSegmentImages(ctx context.Context, segmentID int64, imageURL, miniImageURL *string, log *schema.SegmentImageLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&schema.Segment{}).
			Where("id = ?", segmentID).
			Updates(map[string]interface{}{
				"image_url":      imageURL,
				"mini_image_url": miniImageURL,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update segment images: %w", err)
		}

		if log == nil {
			return nil
		}
		return createImageLog(tx, log, []int64{segmentID})
	})
}

// UpdateSegmentMeta overwrites a segment's local name and site URL
func (s *pgStore) UpdateSegmentMeta(ctx context.Context, segmentID int64, name, siteURL *string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Segment{}).
		Where("id = ?", segmentID).
		Updates(map[string]interface{}{
			"name":     name,
			"site_url": siteURL,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update segment meta: %w", err)
	}
	return nil
}

// --- merged segments ---

// GetMergedSegmentByID retrieves a merged segment with members
func (s *pgStore) GetMergedSegmentByID(ctx context.Context, id uint64) (*schema.MergedSegment, error) {
	var merged schema.MergedSegment
	err := s.db.WithContext(ctx).
		Preload("Segments").
		Where("id = ?", id).
		First(&merged).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get merged segment: %w", err)
	}
	return &merged, nil
}

// ListMergedSegments retrieves every merged segment with members
func (s *pgStore) ListMergedSegments(ctx context.Context) ([]schema.MergedSegment, error) {
	var merged []schema.MergedSegment
	err := s.db.WithContext(ctx).
		Preload("Segments").
		Order("id").
		Find(&merged).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list merged segments: %w", err)
	}
	return merged, nil
}

// CreateMergedSegment creates the merged row, points the members at it and
// writes the audit log entry in one transaction
func (s *pgStore) CreateMergedSegment(ctx context.Context, merged *schema.MergedSegment, memberIDs []int64, log *schema.SegmentImageLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(merged).Error; err != nil {
			return fmt.Errorf("failed to create merged segment: %w", err)
		}

		if err := tx.Model(&schema.Segment{}).
			Where("id IN ?", memberIDs).
			Update("merged_segment_id", merged.ID).Error; err != nil {
			return fmt.Errorf("failed to attach segments: %w", err)
		}

		return createImageLog(tx, log, memberIDs)
	})
}

// DeleteMergedSegment detaches the members, deletes the merged row and writes
// the audit log entry in one transaction. Members are detached, never deleted.
func (s *pgStore) DeleteMergedSegment(ctx context.Context, id uint64, log *schema.SegmentImageLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var memberIDs []int64
		if err := tx.Model(&schema.Segment{}).
			Where("merged_segment_id = ?", id).
			Pluck("id", &memberIDs).Error; err != nil {
			return fmt.Errorf("failed to load member segments: %w", err)
		}

		if err := tx.Model(&schema.Segment{}).
			Where("merged_segment_id = ?", id).
			Update("merged_segment_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach segments: %w", err)
		}

		if err := tx.Delete(&schema.MergedSegment{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete merged segment: %w", err)
		}

		return createImageLog(tx, log, memberIDs)
	})
}

// UpdateMergedSegmentImages overwrites a merged segment's image references
// and, when a log entry is given, writes it against the members in the same
// transaction
func (s *pgStore) UpdateMergedSegmentImages(ctx context.Context, id uint64, imageURL, miniImageURL *string, memberIDs []int64, log *schema.SegmentImageLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&schema.MergedSegment{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"image_url":      imageURL,
				"mini_image_url": miniImageURL,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update merged segment images: %w", err)
		}

		if log == nil {
			return nil
		}
		return createImageLog(tx, log, memberIDs)
	})
}

// --- civilization segments, caves and citizens ---

// GetCivilizationSegmentBySegmentID retrieves the game shadow of a segment
func (s *pgStore) GetCivilizationSegmentBySegmentID(ctx context.Context, segmentID int64) (*schema.CivilizationSegment, error) {
	var civSegment schema.CivilizationSegment
	err := s.db.WithContext(ctx).
		Preload("Caves.Citizens").
		Where("segment_id = ?", segmentID).
		First(&civSegment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get civilization segment: %w", err)
	}
	return &civSegment, nil
}

// GetOrCreateCivilizationSegment retrieves the game shadow of a segment,
// creating it with the accrual clock set to now if absent
func (s *pgStore) GetOrCreateCivilizationSegment(ctx context.Context, segmentID int64, now time.Time) (*schema.CivilizationSegment, error) {
	civSegment := schema.CivilizationSegment{
		SegmentID:            segmentID,
		LastOwnerPaymentDate: now,
	}
	err := s.db.WithContext(ctx).
		Preload("Caves.Citizens").
		Where("segment_id = ?", segmentID).
		FirstOrCreate(&civSegment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create civilization segment: %w", err)
	}
	return &civSegment, nil
}

// GetCivilizationSegmentsBySegmentIDs retrieves game shadows in bulk
func (s *pgStore) GetCivilizationSegmentsBySegmentIDs(ctx context.Context, segmentIDs []int64) ([]schema.CivilizationSegment, error) {
	var civSegments []schema.CivilizationSegment
	err := s.db.WithContext(ctx).
		Preload("Caves.Citizens").
		Where("segment_id IN ?", segmentIDs).
		Find(&civSegments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get civilization segments: %w", err)
	}
	return civSegments, nil
}

// SetCivilizationSegmentPaymentDate resets the owner accrual clock
func (s *pgStore) SetCivilizationSegmentPaymentDate(ctx context.Context, civSegmentID uint64, paidAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&schema.CivilizationSegment{}).
		Where("id = ?", civSegmentID).
		Update("last_owner_payment_date", paidAt).Error
	if err != nil {
		return fmt.Errorf("failed to set owner payment date: %w", err)
	}
	return nil
}

// CreateCave creates a cave. The unique (segment, position) index turns a
// concurrent duplicate into ErrCaveAlreadyExists.
func (s *pgStore) CreateCave(ctx context.Context, cave *schema.CivilizationCave) error {
	if err := s.db.WithContext(ctx).Create(cave).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrCaveAlreadyExists
		}
		return fmt.Errorf("failed to create cave: %w", err)
	}
	return nil
}

// GetCaveByID retrieves a cave with citizens preloaded
func (s *pgStore) GetCaveByID(ctx context.Context, caveID uint64) (*schema.CivilizationCave, error) {
	var cave schema.CivilizationCave
	err := s.db.WithContext(ctx).
		Preload("Citizens").
		Where("id = ?", caveID).
		First(&cave).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cave: %w", err)
	}
	return &cave, nil
}

// AssignCaveCitizen attaches a citizen token to a cave for a game user,
// creating the citizen row with fresh accrual clocks if absent
func (s *pgStore) AssignCaveCitizen(ctx context.Context, caveID uint64, tokenID string, civUserID uint64, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		citizen := schema.CaveCitizen{
			CaveID:                    caveID,
			TokenID:                   tokenID,
			LastCitizenPaymentDate:    now,
			LastRevenueCollectionDate: now,
		}
		if err := tx.Where("cave_id = ? AND token_id = ?", caveID, tokenID).
			FirstOrCreate(&citizen).Error; err != nil {
			return fmt.Errorf("failed to get or create cave citizen: %w", err)
		}

		if err := tx.Model(&schema.CaveCitizen{}).
			Where("id = ?", citizen.ID).
			Update("civilization_user_id", civUserID).Error; err != nil {
			return fmt.Errorf("failed to assign cave citizen: %w", err)
		}

		return nil
	})
}

// NullifyCaveCitizens vacates every citizen
func (s *pgStore) NullifyCaveCitizens(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Model(&schema.CaveCitizen{}).
		Where("civilization_user_id IS NOT NULL").
		Update("civilization_user_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to nullify cave citizens: %w", err)
	}
	return nil
}

// NullifyCaveCitizensByUser vacates one game user's citizens
func (s *pgStore) NullifyCaveCitizensByUser(ctx context.Context, civUserID uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.CaveCitizen{}).
		Where("civilization_user_id = ?", civUserID).
		Update("civilization_user_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to nullify cave citizens by user: %w", err)
	}
	return nil
}

// GetCaveCitizensByUser retrieves the citizen rows held by a game user
func (s *pgStore) GetCaveCitizensByUser(ctx context.Context, civUserID uint64) ([]schema.CaveCitizen, error) {
	var citizens []schema.CaveCitizen
	err := s.db.WithContext(ctx).
		Where("civilization_user_id = ?", civUserID).
		Order("id").
		Find(&citizens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cave citizens by user: %w", err)
	}
	return citizens, nil
}

// SetCaveCitizenPaymentDates resets one or both accrual clocks of a citizen row
func (s *pgStore) SetCaveCitizenPaymentDates(ctx context.Context, citizenID uint64, citizenPaidAt, revenuePaidAt *time.Time) error {
	updates := map[string]interface{}{}
	if citizenPaidAt != nil {
		updates["last_citizen_payment_date"] = *citizenPaidAt
	}
	if revenuePaidAt != nil {
		updates["last_revenue_collection_date"] = *revenuePaidAt
	}
	if len(updates) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&schema.CaveCitizen{}).
		Where("id = ?", citizenID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to set citizen payment dates: %w", err)
	}
	return nil
}

// --- audit log ---

func createImageLog(tx *gorm.DB, log *schema.SegmentImageLog, segmentIDs []int64) error {
	if log == nil {
		return nil
	}

	if err := tx.Create(log).Error; err != nil {
		return fmt.Errorf("failed to create image log: %w", err)
	}

	if len(segmentIDs) > 0 {
		var segments []schema.Segment
		if err := tx.Where("id IN ?", segmentIDs).Find(&segments).Error; err != nil {
			return fmt.Errorf("failed to load log segments: %w", err)
		}
		if err := tx.Model(log).Association("Segments").Append(&segments); err != nil {
			return fmt.Errorf("failed to attach log segments: %w", err)
		}
	}

	return nil
}

// CreateImageLog writes an audit log entry attached to segments
func (s *pgStore) CreateImageLog(ctx context.Context, log *schema.SegmentImageLog, segmentIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createImageLog(tx, log, segmentIDs)
	})
}

// ListImageLogs retrieves audit log entries, newest first
func (s *pgStore) ListImageLogs(ctx context.Context, wallet string, limit, offset int) ([]schema.SegmentImageLog, error) {
	query := s.db.WithContext(ctx).
		Preload("Segments").
		Order("created_at DESC")
	if wallet != "" {
		query = query.Where("wallet = ?", domain.NormalizeWallet(wallet))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var logs []schema.SegmentImageLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list image logs: %w", err)
	}
	return logs, nil
}

// ListRecentUploads retrieves the latest UPLOAD log entries
func (s *pgStore) ListRecentUploads(ctx context.Context, limit int) ([]schema.SegmentImageLog, error) {
	var logs []schema.SegmentImageLog
	err := s.db.WithContext(ctx).
		Preload("Segments").
		Where("action = ? AND image_url IS NOT NULL", domain.LogActionUpload).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent uploads: %w", err)
	}
	return logs, nil
}

// --- market data ---

// CreateWorldPrice appends a floor-price sample
func (s *pgStore) CreateWorldPrice(ctx context.Context, price *schema.WorldPrice) error {
	if err := s.db.WithContext(ctx).Create(price).Error; err != nil {
		return fmt.Errorf("failed to create world price: %w", err)
	}
	return nil
}

// GetWorldPricesSince retrieves price samples newer than since, oldest first
func (s *pgStore) GetWorldPricesSince(ctx context.Context, since time.Time) ([]schema.WorldPrice, error) {
	var prices []schema.WorldPrice
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get world prices: %w", err)
	}
	return prices, nil
}

// GetLatestWorldPrice retrieves the newest price sample
func (s *pgStore) GetLatestWorldPrice(ctx context.Context) (*schema.WorldPrice, error) {
	var price schema.WorldPrice
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest world price: %w", err)
	}
	return &price, nil
}

// ReplaceLandsForSale swaps in the current listing set wholesale
func (s *pgStore) ReplaceLandsForSale(ctx context.Context, lands []schema.LandForSale) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&schema.LandForSale{}).Error; err != nil {
			return fmt.Errorf("failed to clear lands for sale: %w", err)
		}

		if len(lands) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(lands, 500).Error; err != nil {
			return fmt.Errorf("failed to insert lands for sale: %w", err)
		}

		return nil
	})
}

// ListLandsForSale retrieves the current listing set
func (s *pgStore) ListLandsForSale(ctx context.Context) ([]schema.LandForSale, error) {
	var lands []schema.LandForSale
	err := s.db.WithContext(ctx).
		Order("token_id").
		Find(&lands).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lands for sale: %w", err)
	}
	return lands, nil
}

// --- resync bookkeeping ---

// CreateResyncRun opens a resync run in the nullifying phase
func (s *pgStore) CreateResyncRun(ctx context.Context, kind string) (*schema.ResyncRun, error) {
	run := schema.ResyncRun{
		Kind:      kind,
		Phase:     schema.ResyncPhaseNullifying,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create resync run: %w", err)
	}
	return &run, nil
}

// SetResyncRunPhase records a phase transition
func (s *pgStore) SetResyncRunPhase(ctx context.Context, runID uint64, phase schema.ResyncPhase) error {
	err := s.db.WithContext(ctx).
		Model(&schema.ResyncRun{}).
		Where("id = ?", runID).
		Update("phase", phase).Error
	if err != nil {
		return fmt.Errorf("failed to set resync phase: %w", err)
	}
	return nil
}

// FinishResyncRun closes a run with its terminal phase and optional error
func (s *pgStore) FinishResyncRun(ctx context.Context, runID uint64, phase schema.ResyncPhase, runErr *string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&schema.ResyncRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"phase":       phase,
			"error":       runErr,
			"finished_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to finish resync run: %w", err)
	}
	return nil
}
