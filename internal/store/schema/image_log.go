package schema

import (
	"time"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// SegmentImageLog represents the segment_image_logs table - an immutable
// audit record of upload/merge/unmerge actions
type SegmentImageLog struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Action is UPLOAD, MERGE or UNMERGE
	Action domain.LogAction `gorm:"column:action;not null;type:text;index"`
	// Wallet is the acting wallet, lower-cased
	Wallet    string    `gorm:"column:wallet;not null;type:text;index"`
	ImageURL  *string   `gorm:"column:image_url;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index"`

	// Associations
	Segments []Segment `gorm:"many2many:segment_image_log_segments"`
}

// TableName specifies the table name for the SegmentImageLog model
func (SegmentImageLog) TableName() string {
	return "segment_image_logs"
}
