package schema

import (
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// User represents the users table - one row per wallet ever seen by the system
type User struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WalletAddress is the lower-cased Ethereum address, unique per user
	WalletAddress string `gorm:"column:wallet_address;not null;uniqueIndex;type:text"`
	// Username is an optional display name
	Username *string `gorm:"column:username;type:text"`
	// Description is an optional profile blurb
	Description *string `gorm:"column:description;type:text"`
	// AvatarURL is an optional profile image
	AvatarURL *string `gorm:"column:avatar_url;type:text"`
	// PopulationStatus is the snapshot classification recomputed by the stats sweeper
	PopulationStatus *domain.PopulationStatus `gorm:"column:population_status;type:text"`
	CreatedAt        time.Time                `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Socials *UserSocials `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// UserSocials represents the user_socials table, created lazily on first update
type UserSocials struct {
	ID        uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64  `gorm:"column:user_id;not null;uniqueIndex"`
	Twitter   *string `gorm:"column:twitter;type:text"`
	Discord   *string `gorm:"column:discord;type:text"`
	Instagram *string `gorm:"column:instagram;type:text"`
}

// TableName specifies the table name for the UserSocials model
func (UserSocials) TableName() string {
	return "user_socials"
}
