package db

import (
	"path/filepath"
	"testing"

	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
)

func TestMigrate_SeedsSuperuser(t *testing.T) {
	t.Setenv(EnvSuperuserPassword, "boot9999")

	conn, err := Open("file:" + filepath.Join(t.TempDir(), "backoffice-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var account models.Account
	if errFind := conn.Where("pno = ?", SuperuserPNO).First(&account).Error; errFind != nil {
		t.Fatalf("find superuser: %v", errFind)
	}
	if !account.IsSuperUser {
		t.Fatalf("expected seeded account flagged superuser")
	}
	if !security.VerifyPassword("boot9999", account.PasswordSalt, account.PasswordHash) {
		t.Fatalf("expected credential from env override")
	}

	var history models.PasswordHistory
	if errFind := conn.Where("account_pno = ?", SuperuserPNO).First(&history).Error; errFind != nil {
		t.Fatalf("find history: %v", errFind)
	}
	if history.Hash1 != account.PasswordHash || history.Salt1 != account.PasswordSalt {
		t.Fatalf("expected provisioned pair in history slot one")
	}
}

func TestMigrate_SeedsBaseMenu(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "backoffice-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	var programs []models.MenuItem
	if errFind := conn.Where("type = ?", models.MenuTypeProgram).Order("sort_order ASC").Find(&programs).Error; errFind != nil {
		t.Fatalf("find programs: %v", errFind)
	}
	if len(programs) != 2 {
		t.Fatalf("expected two seeded programs, got %d", len(programs))
	}
	if programs[0].ProgramCode != "SYSCOMMI" || programs[1].ProgramCode != "SYSACNT" {
		t.Fatalf("expected SYSCOMMI and SYSACNT, got %q and %q", programs[0].ProgramCode, programs[1].ProgramCode)
	}
	for _, program := range programs {
		if program.ParentID == 0 {
			t.Fatalf("expected programs nested under the root directory")
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "backoffice-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("first migrate: %v", errMigrate)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	var count int64
	if errCount := conn.Model(&models.Account{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count accounts: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single seeded account, got %d", count)
	}
}
