package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notifier delivers out-of-band administrator notifications. Delivery is
// best-effort: a failed notification never blocks the lockout itself.
type Notifier interface {
	NotifyLockout(ctx context.Context, accountPNO string) error
}

// Result is the outcome of a successful authentication.
type Result struct {
	Identity security.Identity
	// FirstLogin is set when the account still uses its provisioned
	// default password and must be sent through the change flow.
	FirstLogin bool
	// PasswordExpired is set when the reset deadline has passed.
	PasswordExpired bool
}

// Authenticator validates account/secret pairs and applies the
// failed-attempt lockout state machine.
type Authenticator struct {
	db       *gorm.DB
	cfg      config.AuthConfig
	notifier Notifier
	nowFn    func() time.Time
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(db *gorm.DB, cfg config.AuthConfig, notifier Notifier) *Authenticator {
	return &Authenticator{db: db, cfg: cfg, notifier: notifier, nowFn: time.Now}
}

// WithNow overrides the clock, for tests.
func (a *Authenticator) WithNow(nowFn func() time.Time) *Authenticator {
	if nowFn != nil {
		a.nowFn = nowFn
	}
	return a
}

// NormalizePNO uppercases and trims an account id for case-insensitive lookup.
func NormalizePNO(pno string) string {
	return strings.ToUpper(strings.TrimSpace(pno))
}

// Authenticate runs the credential check and lockout state machine. The
// checks are strictly ordered: the lockout check precedes the credential
// check so a locked account never reveals whether the secret was correct.
func (a *Authenticator) Authenticate(ctx context.Context, pno, secret string) (Result, error) {
	normalized := NormalizePNO(pno)
	if normalized == "" {
		return Result{}, &AuthError{Kind: InvalidCredentials, AttemptsRemaining: -1}
	}

	var account models.Account
	if errFind := a.db.WithContext(ctx).Where("pno = ?", normalized).First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Result{}, &AuthError{Kind: InvalidCredentials, AttemptsRemaining: -1}
		}
		return Result{}, fmt.Errorf("auth: lookup account: %w", errFind)
	}

	if account.FailedAttempts >= a.cfg.LockoutThreshold {
		// Re-assert the disable flag; repeated calls while locked are idempotent.
		if errLock := a.db.WithContext(ctx).Model(&models.Account{}).
			Where("pno = ? AND disabled = ?", account.PNO, false).
			Update("disabled", true).Error; errLock != nil {
			return Result{}, fmt.Errorf("auth: persist lockout: %w", errLock)
		}
		return Result{}, &AuthError{Kind: AccountLocked, AttemptsRemaining: 0}
	}

	if account.Disabled {
		return Result{}, &AuthError{Kind: AccountDisabled, AttemptsRemaining: -1}
	}
	if account.Deleted {
		return Result{}, &AuthError{Kind: AccountDeleted, AttemptsRemaining: -1}
	}

	if !security.VerifyPassword(secret, account.PasswordSalt, account.PasswordHash) {
		attempts, errFail := a.recordFailure(ctx, account.PNO)
		if errFail != nil {
			return Result{}, errFail
		}
		remaining := a.cfg.LockoutThreshold - attempts
		if remaining < 0 {
			remaining = 0
		}
		return Result{}, &AuthError{Kind: InvalidCredentials, AttemptsRemaining: remaining}
	}

	now := a.nowFn().UTC()
	if account.ValidFrom != nil && now.Before(*account.ValidFrom) {
		return Result{}, &AuthError{Kind: NotYetActive, AttemptsRemaining: -1}
	}
	if account.ValidUntil != nil && now.After(*account.ValidUntil) {
		return Result{}, &AuthError{Kind: Expired, AttemptsRemaining: -1}
	}

	if errReset := a.db.WithContext(ctx).Model(&models.Account{}).
		Where("pno = ?", account.PNO).
		Updates(map[string]any{
			"failed_attempts": 0,
			"last_login_at":   now,
			"updated_at":      now,
		}).Error; errReset != nil {
		return Result{}, fmt.Errorf("auth: reset counter: %w", errReset)
	}

	result := Result{
		Identity: security.Identity{
			PNO:        account.PNO,
			Name:       account.Name,
			Department: account.Department,
			SuperUser:  account.IsSuperUser,
		},
	}
	if !account.IsSuperUser {
		result.FirstLogin = a.usesProvisionedPassword(ctx, account.PNO, secret)
		if account.PasswordMustResetBy != nil && now.After(*account.PasswordMustResetBy) {
			result.PasswordExpired = true
		}
	}
	return result, nil
}

// recordFailure increments the failed-attempt counter in the database so
// concurrent logins never lose an attempt, and crosses the disable
// threshold exactly once per lockout episode.
func (a *Authenticator) recordFailure(ctx context.Context, pno string) (int, error) {
	if errIncr := a.db.WithContext(ctx).Model(&models.Account{}).
		Where("pno = ?", pno).
		UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + 1")).Error; errIncr != nil {
		return 0, fmt.Errorf("auth: record failure: %w", errIncr)
	}

	var account models.Account
	if errFind := a.db.WithContext(ctx).Where("pno = ?", pno).First(&account).Error; errFind != nil {
		return 0, fmt.Errorf("auth: reload account: %w", errFind)
	}

	if account.FailedAttempts >= a.cfg.LockoutThreshold {
		res := a.db.WithContext(ctx).Model(&models.Account{}).
			Where("pno = ? AND failed_attempts >= ? AND disabled = ?", pno, a.cfg.LockoutThreshold, false).
			Update("disabled", true)
		if res.Error != nil {
			return 0, fmt.Errorf("auth: persist lockout: %w", res.Error)
		}
		if res.RowsAffected == 1 && a.notifier != nil {
			if errNotify := a.notifier.NotifyLockout(ctx, pno); errNotify != nil {
				log.WithError(errNotify).WithField("pno", pno).Warn("auth: lockout notification failed")
			}
		}
	}
	return account.FailedAttempts, nil
}

// usesProvisionedPassword reports whether the account still authenticates
// with the password its history started with, meaning it has never been
// changed since provisioning.
func (a *Authenticator) usesProvisionedPassword(ctx context.Context, pno, secret string) bool {
	var history models.PasswordHistory
	if errFind := a.db.WithContext(ctx).Where("account_pno = ?", pno).First(&history).Error; errFind != nil {
		return false
	}
	if history.Hash1 == "" || history.Hash2 != "" {
		return false
	}
	return security.VerifyPassword(secret, history.Salt1, history.Hash1)
}
