package schema

import (
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// CivilizationUser represents the civilization_users table - the game-layer
// shadow of a User, created when the wallet joins the game
type CivilizationUser struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex"`
	// Role is OWNER or CITIZEN, never both
	Role domain.Role `gorm:"column:role;not null;type:text"`
	// Balance is the game currency, non-negative
	Balance int64 `gorm:"column:balance;not null;default:0"`
	// Color is the map display color derived from the wallet hash
	Color     string    `gorm:"column:color;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	User *User `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the CivilizationUser model
func (CivilizationUser) TableName() string {
	return "civilization_users"
}

// CivilizationSegment represents the civilization_segments table - created
// lazily the first time game logic touches a segment, never deleted
type CivilizationSegment struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	SegmentID int64  `gorm:"column:segment_id;not null;uniqueIndex"`
	// LastOwnerPaymentDate is the accrual clock for the segment owner's reward
	LastOwnerPaymentDate time.Time `gorm:"column:last_owner_payment_date;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Segment *Segment           `gorm:"foreignKey:SegmentID"`
	Caves   []CivilizationCave `gorm:"foreignKey:CivilizationSegmentID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the CivilizationSegment model
func (CivilizationSegment) TableName() string {
	return "civilization_segments"
}

// CivilizationCave represents the civilization_caves table. Position is
// unique within a segment.
type CivilizationCave struct {
	ID                    uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	CivilizationSegmentID uint64    `gorm:"column:civilization_segment_id;not null;uniqueIndex:idx_caves_segment_position,priority:1"`
	Position              int       `gorm:"column:position;not null;uniqueIndex:idx_caves_segment_position,priority:2"`
	CreatedAt             time.Time `gorm:"column:created_at;not null;default:now()"`

	// Associations
	Citizens []CaveCitizen `gorm:"foreignKey:CaveID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the CivilizationCave model
func (CivilizationCave) TableName() string {
	return "civilization_caves"
}

// CaveCitizen represents the cave_citizens table. The citizen reference is
// nullable; a vacated citizen keeps its row. Two independent accrual clocks
// live here: the citizen's own reward and the owner's revenue from this
// citizen.
type CaveCitizen struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	CaveID uint64 `gorm:"column:cave_id;not null;uniqueIndex:idx_cave_citizens_cave_token,priority:1"`
	// TokenID is the external citizen token id
	TokenID            string  `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_cave_citizens_cave_token,priority:2"`
	CivilizationUserID *uint64 `gorm:"column:civilization_user_id;index"`
	ImageURL           *string `gorm:"column:image_url;type:text"`
	// LastCitizenPaymentDate is the citizen's own accrual clock
	LastCitizenPaymentDate time.Time `gorm:"column:last_citizen_payment_date;not null"`
	// LastRevenueCollectionDate is the owner's revenue accrual clock
	LastRevenueCollectionDate time.Time `gorm:"column:last_revenue_collection_date;not null"`
	CreatedAt                 time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt                 time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	CivilizationUser *CivilizationUser `gorm:"foreignKey:CivilizationUserID"`
}

// TableName specifies the table name for the CaveCitizen model
func (CaveCitizen) TableName() string {
	return "cave_citizens"
}
