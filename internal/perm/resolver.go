package perm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	"gorm.io/gorm"
)

// Capabilities is the computed CRUD capability set for one identity on
// one menu item.
type Capabilities struct {
	CanUse         bool `json:"can_use"`
	Insert         bool `json:"insert"`
	Edit           bool `json:"edit"`
	Delete         bool `json:"delete"`
	Query          bool `json:"query"`
	Print          bool `json:"print"`
	SaveAs         bool `json:"save_as"`
	Display        bool `json:"display"`
	Other          bool `json:"other"`
	IsAvailableNow bool `json:"is_available_now"`
}

// AllCapabilities is the superuser capability set.
func AllCapabilities() Capabilities {
	return Capabilities{
		CanUse: true, Insert: true, Edit: true, Delete: true, Query: true,
		Print: true, SaveAs: true, Display: true, Other: true,
		IsAvailableNow: true,
	}
}

// Resolver computes capability sets from the permission grant table.
// Grants are re-read on every call; a revoked grant takes effect on the
// very next request.
type Resolver struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db, nowFn: time.Now}
}

// WithNow overrides the clock, for tests.
func (r *Resolver) WithNow(nowFn func() time.Time) *Resolver {
	if nowFn != nil {
		r.nowFn = nowFn
	}
	return r
}

// Resolve computes the capability set for the identity on the menu item.
// Superuser identities hold every flag with no schedule restriction and
// are never looked up in the grant table. A missing grant row yields a
// zero set with CanUse false. Lookup failures are infrastructure errors
// and never default to allow.
func (r *Resolver) Resolve(ctx context.Context, identity security.Identity, menuID uint64) (Capabilities, error) {
	if identity.SuperUser {
		return AllCapabilities(), nil
	}

	var grant models.PermissionGrant
	errFind := r.db.WithContext(ctx).
		Where("account_pno = ? AND menu_id = ?", identity.PNO, menuID).
		First(&grant).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Capabilities{}, nil
		}
		return Capabilities{}, fmt.Errorf("perm: lookup grant: %w", errFind)
	}

	return Capabilities{
		CanUse:         true,
		Insert:         grant.CanInsert,
		Edit:           grant.CanEdit,
		Delete:         grant.CanDelete,
		Query:          grant.CanQuery,
		Print:          grant.CanPrint,
		SaveAs:         grant.CanSaveAs,
		Display:        grant.CanDisplay,
		Other:          grant.CanOther,
		IsAvailableNow: CheckAvailability(grant, r.nowFn()),
	}, nil
}

// GrantedMenuIDs returns the set of menu ids the account holds any grant
// row for. Used to filter the menu forest for non-superuser accounts.
func (r *Resolver) GrantedMenuIDs(ctx context.Context, pno string) (map[uint64]struct{}, error) {
	var ids []uint64
	if errFind := r.db.WithContext(ctx).Model(&models.PermissionGrant{}).
		Where("account_pno = ?", pno).
		Pluck("menu_id", &ids).Error; errFind != nil {
		return nil, fmt.Errorf("perm: list grants: %w", errFind)
	}
	granted := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		granted[id] = struct{}{}
	}
	return granted, nil
}

// MenuIDForProgram resolves the menu id granted to the account for the
// given program code. The bool result reports whether a grant row exists.
func (r *Resolver) MenuIDForProgram(ctx context.Context, pno, programCode string) (uint64, bool, error) {
	var item models.MenuItem
	errItem := r.db.WithContext(ctx).
		Where("program_code = ? AND type = ?", programCode, models.MenuTypeProgram).
		First(&item).Error
	if errItem != nil {
		if errors.Is(errItem, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("perm: lookup menu item: %w", errItem)
	}

	var count int64
	if errCount := r.db.WithContext(ctx).Model(&models.PermissionGrant{}).
		Where("account_pno = ? AND menu_id = ?", pno, item.ID).
		Count(&count).Error; errCount != nil {
		return 0, false, fmt.Errorf("perm: lookup grant: %w", errCount)
	}
	if count == 0 {
		return 0, false, nil
	}
	return item.ID, true, nil
}
