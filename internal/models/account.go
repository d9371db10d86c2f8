package models

import "time"

// Account represents a login account stored in the database.
// The PNO (personnel number) is the natural key and is stored uppercased
// so lookups stay case-insensitive across dialects.
type Account struct {
	PNO string `gorm:"primaryKey;type:text"` // Unique login identifier, uppercased.

	Name       string `gorm:"type:text"` // Display name.
	Department string `gorm:"type:text"` // Owning department code.

	PasswordHash string `gorm:"type:text;not null"` // Active credential hash (hex).
	PasswordSalt string `gorm:"type:text;not null"` // Salt for the active credential (hex).

	FailedAttempts int  `gorm:"not null;default:0"`     // Consecutive failed logins.
	Disabled       bool `gorm:"not null;default:false"` // Lockout or explicit disable flag.
	Deleted        bool `gorm:"not null;default:false"` // Soft-delete flag.

	ValidFrom  *time.Time `` // Account usable from this instant, nil = no lower bound.
	ValidUntil *time.Time `` // Account usable until this instant, nil = no upper bound.

	PasswordChangedAt   *time.Time `` // Last password change.
	PasswordMustResetBy *time.Time `` // Deadline for the next password change.

	IsSuperUser bool `gorm:"not null;default:false"` // Exempt from permission and policy checks.

	LastLoginAt *time.Time `` // Last successful authentication.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PasswordHistory keeps the three most recent credential pairs for one
// account, most recent first. Candidate passwords are re-hashed with each
// historical salt before comparison; hashes are never compared across salts.
type PasswordHistory struct {
	AccountPNO string `gorm:"primaryKey;type:text"` // Owning account PNO.

	Hash1 string `gorm:"type:text"` // Most recent historical hash.
	Salt1 string `gorm:"type:text"` // Salt for Hash1.
	Hash2 string `gorm:"type:text"` // Second most recent historical hash.
	Salt2 string `gorm:"type:text"` // Salt for Hash2.
	Hash3 string `gorm:"type:text"` // Oldest retained historical hash.
	Salt3 string `gorm:"type:text"` // Salt for Hash3.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last rotation timestamp.
}
