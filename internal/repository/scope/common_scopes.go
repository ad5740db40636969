package scope

import "gorm.io/gorm"

// Default orderings; applied after specifications so an explicit OrderBy wins.

// OrderByCreatedAsc keeps conversation logs in the order the turns happened
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// OrderByArchivedDesc lists the most recently ended sessions first
func OrderByArchivedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("archived_at DESC")
}
