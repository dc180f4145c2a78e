package schema

import (
	"time"
)

// Segment represents the segments table - one row per on-chain land token.
// Rows are seeded from indexer data and never deleted; ownership is a weak
// reference overwritten wholesale during resync.
type Segment struct {
	// ID matches the on-chain token id
	ID int64 `gorm:"column:id;primaryKey"`
	// Coordinate is the grid position, e.g. "AA100"
	Coordinate string  `gorm:"column:coordinate;not null;uniqueIndex;type:text"`
	Name       *string `gorm:"column:name;type:text"`
	ImageURL   *string `gorm:"column:image_url;type:text"`
	// MiniImageURL is the circular thumbnail shown on the map
	MiniImageURL *string `gorm:"column:mini_image_url;type:text"`
	SiteURL      *string `gorm:"column:site_url;type:text"`
	// OwnerID is nullable; only resync writes it
	OwnerID *uint64 `gorm:"column:owner_id;index"`
	// MergedSegmentID is set while the segment belongs to a merged group
	MergedSegmentID *uint64   `gorm:"column:merged_segment_id;index"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Owner         *User          `gorm:"foreignKey:OwnerID"`
	MergedSegment *MergedSegment `gorm:"foreignKey:MergedSegmentID"`
}

// TableName specifies the table name for the Segment model
func (Segment) TableName() string {
	return "segments"
}

// MergedSegment represents the merged_segments table - a user-defined
// rectangular union of segments with its own image and metadata
type MergedSegment struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TopLeft and BottomRight are the lexicographic bounds of the member set
	TopLeft      string    `gorm:"column:top_left;not null;type:text"`
	BottomRight  string    `gorm:"column:bottom_right;not null;type:text"`
	Name         *string   `gorm:"column:name;type:text"`
	ImageURL     *string   `gorm:"column:image_url;type:text"`
	MiniImageURL *string   `gorm:"column:mini_image_url;type:text"`
	SiteURL      *string   `gorm:"column:site_url;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Segments []Segment `gorm:"foreignKey:MergedSegmentID"`
}

// TableName specifies the table name for the MergedSegment model
func (MergedSegment) TableName() string {
	return "merged_segments"
}
