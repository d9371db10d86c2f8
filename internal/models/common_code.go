package models

import "time"

// CommonCode is a row of the shared code table managed by the SYSCOMMI
// screen. It is the representative business entity wired behind the
// enforcement filter.
type CommonCode struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupCode string `gorm:"type:text;not null;uniqueIndex:idx_common_codes_group_code"` // Code group.
	Code      string `gorm:"type:text;not null;uniqueIndex:idx_common_codes_group_code"` // Code value within the group.
	Name      string `gorm:"type:text;not null"`                                         // Human-readable label.
	Note      string `gorm:"type:text"`                                                  // Free-form remark.
	SortOrder int    `gorm:"not null;default:0"`                                         // Ordering within the group.
	InUse     bool   `gorm:"not null;default:true"`                                      // Whether the code is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
