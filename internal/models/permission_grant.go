package models

import (
	"time"

	"gorm.io/datatypes"
)

// PermissionGrant holds the CRUD capability bitmask plus an optional
// availability schedule for one (account, menu item) pair. Absence of a
// row means no access; superuser accounts are never looked up here.
type PermissionGrant struct {
	AccountPNO string `gorm:"primaryKey;type:text"` // Granted account PNO.
	MenuID     uint64 `gorm:"primaryKey"`           // Granted menu item ID.

	CanInsert  bool `gorm:"not null;default:false"` // Insert capability.
	CanEdit    bool `gorm:"not null;default:false"` // Edit capability.
	CanDelete  bool `gorm:"not null;default:false"` // Delete capability.
	CanQuery   bool `gorm:"not null;default:false"` // Query/search capability.
	CanPrint   bool `gorm:"not null;default:false"` // Print capability.
	CanSaveAs  bool `gorm:"not null;default:false"` // Export/save-as capability.
	CanDisplay bool `gorm:"not null;default:false"` // Screen display capability.
	CanOther   bool `gorm:"not null;default:false"` // Screen-defined extra capability.

	AllowedDaysOfMonth datatypes.JSON `gorm:"type:jsonb"` // JSON array of days 1-31, null = unrestricted.
	AllowedWeekdays    datatypes.JSON `gorm:"type:jsonb"` // JSON array of ISO weekdays 1-7, null = unrestricted.
	TimeWindowStart    string         `gorm:"type:text"`  // Window start as HHMM, empty = unrestricted.
	TimeWindowEnd      string         `gorm:"type:text"`  // Window end as HHMM, empty = unrestricted.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
