package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	"gorm.io/gorm"
)

// SuperuserPNO is the designated superuser account id.
const SuperuserPNO = "KSI"

// EnvSuperuserPassword overrides the provisioned superuser password on first migration.
const EnvSuperuserPassword = "SUPERUSER_INITIAL_PASSWORD"

const defaultSuperuserPassword = "init1234"

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// autoMigrateModels applies the shared schema for all dialects.
func autoMigrateModels(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.Account{},
		&models.PasswordHistory{},
		&models.PermissionGrant{},
		&models.MenuItem{},
		&models.CommonCode{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureSuperuserAccount(conn); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureBaseMenu(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errShared := autoMigrateModels(conn); errShared != nil {
		return errShared
	}

	_ = conn.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_menu_items_parent_sort",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_menu_items_parent_sort
				ON menu_items (parent_id, sort_order ASC, id ASC)
			`,
		},
		{
			name: "idx_permission_grants_menu_id",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_permission_grants_menu_id
				ON permission_grants (menu_id)
			`,
		},
		{
			name: "idx_common_codes_group_sort",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_common_codes_group_sort
				ON common_codes (group_code, sort_order ASC)
			`,
		},
		{
			name: "idx_accounts_disabled_deleted",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_accounts_disabled_deleted
				ON accounts (disabled, deleted)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	// trgmIndex defines trigram and fallback index statements.
	type trgmIndex struct {
		name     string // Logical index name.
		trgmSQL  string // Trigram index SQL.
		lowerSQL string // Lowercase fallback index SQL.
	}
	trgmIndexes := []trgmIndex{
		{
			name: "idx_accounts_name",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_accounts_name_trgm
				ON accounts USING gin (name gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_accounts_name_lower
				ON accounts (LOWER(name))
			`,
		},
		{
			name: "idx_menu_items_display_name",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_menu_items_display_name_trgm
				ON menu_items USING gin (display_name gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_menu_items_display_name_lower
				ON menu_items (LOWER(display_name))
			`,
		},
	}
	for _, item := range trgmIndexes {
		if errIdx := conn.Exec(item.trgmSQL).Error; errIdx != nil {
			if errLower := conn.Exec(item.lowerSQL).Error; errLower != nil {
				return fmt.Errorf("db: create index %s: %w", item.name, errLower)
			}
		}
	}

	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errShared := autoMigrateModels(conn); errShared != nil {
		return errShared
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_menu_items_parent_sort",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_menu_items_parent_sort
				ON menu_items (parent_id, sort_order ASC, id ASC)
			`,
		},
		{
			name: "idx_permission_grants_menu_id",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_permission_grants_menu_id
				ON permission_grants (menu_id)
			`,
		},
		{
			name: "idx_common_codes_group_sort",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_common_codes_group_sort
				ON common_codes (group_code, sort_order ASC)
			`,
		},
		{
			name: "idx_accounts_disabled_deleted",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_accounts_disabled_deleted
				ON accounts (disabled, deleted)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// ensureSuperuserAccount seeds the superuser account with a provisioned
// default credential and matching history row.
func ensureSuperuserAccount(conn *gorm.DB) error {
	var existing models.Account
	errFind := conn.Where("pno = ?", SuperuserPNO).First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query superuser: %w", errFind)
	}

	password := strings.TrimSpace(os.Getenv(EnvSuperuserPassword))
	if password == "" {
		password = defaultSuperuserPassword
	}
	salt, errSalt := security.NewSalt()
	if errSalt != nil {
		return fmt.Errorf("db: seed superuser: %w", errSalt)
	}
	hash, errHash := security.HashPassword(password, salt)
	if errHash != nil {
		return fmt.Errorf("db: seed superuser: %w", errHash)
	}

	now := time.Now().UTC()
	account := models.Account{
		PNO:          SuperuserPNO,
		Name:         "System Administrator",
		PasswordHash: hash,
		PasswordSalt: salt,
		IsSuperUser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := conn.Create(&account).Error; errCreate != nil {
		return fmt.Errorf("db: create superuser: %w", errCreate)
	}
	history := models.PasswordHistory{
		AccountPNO: SuperuserPNO,
		Hash1:      hash,
		Salt1:      salt,
		UpdatedAt:  now,
	}
	if errCreate := conn.Create(&history).Error; errCreate != nil {
		return fmt.Errorf("db: create superuser history: %w", errCreate)
	}
	return nil
}

// ensureBaseMenu seeds a minimal menu tree when the table is empty.
func ensureBaseMenu(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.MenuItem{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count menu items: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	root := models.MenuItem{
		ParentID:            0,
		Type:                models.MenuTypeDirectory,
		DisplayName:         "System Management",
		SortOrder:           1,
		ClientBuildComplete: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if errCreate := conn.Create(&root).Error; errCreate != nil {
		return fmt.Errorf("db: create root menu: %w", errCreate)
	}

	programs := []models.MenuItem{
		{
			ParentID:            root.ID,
			Type:                models.MenuTypeProgram,
			ProgramCode:         "SYSCOMMI",
			DisplayName:         "Common Codes",
			SortOrder:           1,
			ClientBuildComplete: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ParentID:            root.ID,
			Type:                models.MenuTypeProgram,
			ProgramCode:         "SYSACNT",
			DisplayName:         "Accounts",
			SortOrder:           2,
			ClientBuildComplete: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}
	for i := range programs {
		if errCreate := conn.Create(&programs[i]).Error; errCreate != nil {
			return fmt.Errorf("db: create menu %s: %w", programs[i].ProgramCode, errCreate)
		}
	}
	return nil
}
