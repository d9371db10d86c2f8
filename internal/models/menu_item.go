package models

import "time"

// Menu item types. A program item whose client build is incomplete
// degrades to directory-like behavior at read time.
const (
	MenuTypeDirectory = "directory"
	MenuTypeProgram   = "program"
)

// MenuItem is a node in the navigation/program tree. Parent ID 0 marks a
// root node; cycles are a provisioning-time invariant and are not checked
// on read.
type MenuItem struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.
	ParentID uint64 `gorm:"not null;default:0;index"` // Parent node ID, 0 = root.

	Type        string `gorm:"type:text;not null"` // directory or program.
	ProgramCode string `gorm:"type:text;index"`    // Screen/controller code for program items.
	DisplayName string `gorm:"type:text;not null"` // Menu label.
	SortOrder   int    `gorm:"not null;default:0"` // Ordering within the parent.

	ClientBuildComplete bool `gorm:"not null;default:false"` // Whether the client screen is built.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
