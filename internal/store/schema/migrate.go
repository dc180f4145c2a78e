package schema

import (
	"gorm.io/gorm"
)

// Migrate runs gorm auto-migration for every table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UserSocials{},
		&Segment{},
		&MergedSegment{},
		&CivilizationUser{},
		&CivilizationSegment{},
		&CivilizationCave{},
		&CaveCitizen{},
		&SegmentImageLog{},
		&WorldPrice{},
		&LandForSale{},
		&ResyncRun{},
	)
}
