package schema

import (
	"time"
)

// WorldPrice represents the world_prices table - one floor-price sample per
// daily market refresh
type WorldPrice struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FloorPrice float64   `gorm:"column:floor_price;not null"`
	Currency   string    `gorm:"column:currency;not null;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();index"`
}

// TableName specifies the table name for the WorldPrice model
func (WorldPrice) TableName() string {
	return "world_prices"
}

// LandForSale represents the lands_for_sale table - replaced wholesale on
// every market refresh
type LandForSale struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID is the listed segment's on-chain token id
	TokenID   string    `gorm:"column:token_id;not null;type:text;index"`
	OrderHash string    `gorm:"column:order_hash;not null;type:text"`
	// PriceValue is the raw listing price in the currency's smallest unit
	PriceValue string    `gorm:"column:price_value;not null;type:text"`
	Currency   string    `gorm:"column:currency;not null;type:text"`
	Decimals   int       `gorm:"column:decimals;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the LandForSale model
func (LandForSale) TableName() string {
	return "lands_for_sale"
}

// ResyncPhase tracks where a resync run is in its two-phase lifecycle
type ResyncPhase string

const (
	ResyncPhaseNullifying   ResyncPhase = "nullifying"
	ResyncPhaseRepopulating ResyncPhase = "repopulating"
	ResyncPhaseDone         ResyncPhase = "done"
	ResyncPhaseFailed       ResyncPhase = "failed"
)

// ResyncRun represents the resync_runs table - one row per resync execution,
// with explicit phase transitions so a crash mid-run is detectable
type ResyncRun struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Kind is "ownership" or "citizenship"
	Kind       string      `gorm:"column:kind;not null;type:text;index"`
	Phase      ResyncPhase `gorm:"column:phase;not null;type:text"`
	Error      *string     `gorm:"column:error;type:text"`
	StartedAt  time.Time   `gorm:"column:started_at;not null;default:now()"`
	FinishedAt *time.Time  `gorm:"column:finished_at"`
}

// TableName specifies the table name for the ResyncRun model
func (ResyncRun) TableName() string {
	return "resync_runs"
}
