package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	"gorm.io/gorm"
)

// PasswordGuard validates candidate passwords against composition rules
// and the three most recent historical hashes, and rotates the history on
// an accepted change.
type PasswordGuard struct {
	db    *gorm.DB
	cfg   config.AuthConfig
	nowFn func() time.Time
}

// NewPasswordGuard constructs a PasswordGuard.
func NewPasswordGuard(db *gorm.DB, cfg config.AuthConfig) *PasswordGuard {
	return &PasswordGuard{db: db, cfg: cfg, nowFn: time.Now}
}

// WithNow overrides the clock, for tests.
func (g *PasswordGuard) WithNow(nowFn func() time.Time) *PasswordGuard {
	if nowFn != nil {
		g.nowFn = nowFn
	}
	return g
}

// CheckComposition applies the general minimum rule: at least the minimum
// length, with one letter and one digit. It carries no upper bound; the
// stricter bounded rule applies only on an explicit change.
func (g *PasswordGuard) CheckComposition(candidate string) error {
	if len(candidate) < g.cfg.PasswordMinLength {
		return &PolicyError{Kind: TooShort, Min: g.cfg.PasswordMinLength}
	}
	var hasLetter, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return &PolicyError{Kind: MissingClassOfChar}
	}
	return nil
}

// Validate checks a candidate password for an explicit change on the given
// account: bounded length, character classes, no match against the account
// id, and no match against the last three historical passwords. The
// superuser account bypasses every rule.
func (g *PasswordGuard) Validate(ctx context.Context, pno, candidate string) error {
	normalized := NormalizePNO(pno)

	var account models.Account
	if errFind := g.db.WithContext(ctx).Where("pno = ?", normalized).First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return &AuthError{Kind: InvalidCredentials, AttemptsRemaining: -1}
		}
		return fmt.Errorf("auth: lookup account: %w", errFind)
	}
	if account.IsSuperUser {
		return nil
	}

	if len(candidate) < g.cfg.PasswordMinLength {
		return &PolicyError{Kind: TooShort, Min: g.cfg.PasswordMinLength, Max: g.cfg.PasswordMaxLength}
	}
	if len(candidate) > g.cfg.PasswordMaxLength {
		return &PolicyError{Kind: TooLong, Min: g.cfg.PasswordMinLength, Max: g.cfg.PasswordMaxLength}
	}
	if errComposition := g.CheckComposition(candidate); errComposition != nil {
		return errComposition
	}
	if strings.EqualFold(candidate, normalized) {
		return &PolicyError{Kind: MatchesAccountID}
	}

	var history models.PasswordHistory
	errHist := g.db.WithContext(ctx).Where("account_pno = ?", normalized).First(&history).Error
	if errHist != nil && !errors.Is(errHist, gorm.ErrRecordNotFound) {
		return fmt.Errorf("auth: lookup history: %w", errHist)
	}
	if errHist == nil {
		pairs := []struct{ hash, salt string }{
			{history.Hash1, history.Salt1},
			{history.Hash2, history.Salt2},
			{history.Hash3, history.Salt3},
		}
		for _, pair := range pairs {
			if pair.hash == "" || pair.salt == "" {
				continue
			}
			if security.VerifyPassword(candidate, pair.salt, pair.hash) {
				return &PolicyError{Kind: MatchesHistory}
			}
		}
	}
	return nil
}

// Change validates the candidate and, on success, rotates the history
// (new pair first, oldest dropped), installs the new active credential,
// and moves the reset deadline forward.
func (g *PasswordGuard) Change(ctx context.Context, pno, candidate string) error {
	normalized := NormalizePNO(pno)
	if errValidate := g.Validate(ctx, normalized, candidate); errValidate != nil {
		return errValidate
	}

	salt, errSalt := security.NewSalt()
	if errSalt != nil {
		return fmt.Errorf("auth: change password: %w", errSalt)
	}
	hash, errHash := security.HashPassword(candidate, salt)
	if errHash != nil {
		return fmt.Errorf("auth: change password: %w", errHash)
	}

	now := g.nowFn().UTC()
	resetBy := now.AddDate(0, g.cfg.PasswordLifetimeMonths, 0)

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var history models.PasswordHistory
		errHist := tx.Where("account_pno = ?", normalized).First(&history).Error
		if errHist != nil && !errors.Is(errHist, gorm.ErrRecordNotFound) {
			return fmt.Errorf("auth: lookup history: %w", errHist)
		}

		rotated := models.PasswordHistory{
			AccountPNO: normalized,
			Hash1:      hash,
			Salt1:      salt,
			Hash2:      history.Hash1,
			Salt2:      history.Salt1,
			Hash3:      history.Hash2,
			Salt3:      history.Salt2,
			UpdatedAt:  now,
		}
		if errors.Is(errHist, gorm.ErrRecordNotFound) {
			if errCreate := tx.Create(&rotated).Error; errCreate != nil {
				return fmt.Errorf("auth: create history: %w", errCreate)
			}
		} else {
			if errSave := tx.Model(&models.PasswordHistory{}).
				Where("account_pno = ?", normalized).
				Updates(map[string]any{
					"hash1": rotated.Hash1, "salt1": rotated.Salt1,
					"hash2": rotated.Hash2, "salt2": rotated.Salt2,
					"hash3": rotated.Hash3, "salt3": rotated.Salt3,
					"updated_at": now,
				}).Error; errSave != nil {
				return fmt.Errorf("auth: rotate history: %w", errSave)
			}
		}

		if errUpdate := tx.Model(&models.Account{}).
			Where("pno = ?", normalized).
			Updates(map[string]any{
				"password_hash":          hash,
				"password_salt":          salt,
				"password_changed_at":    now,
				"password_must_reset_by": resetBy,
				"updated_at":             now,
			}).Error; errUpdate != nil {
			return fmt.Errorf("auth: update credential: %w", errUpdate)
		}
		return nil
	})
}
