package perm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bizdesk/backoffice/internal/db"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/security"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "backoffice-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createGrant(t *testing.T, conn *gorm.DB, grant models.PermissionGrant) {
	t.Helper()
	if errCreate := conn.Create(&grant).Error; errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}
}

func TestResolve_GrantFlags(t *testing.T) {
	conn := openTestDB(t)
	createGrant(t, conn, models.PermissionGrant{
		AccountPNO: "AB1234",
		MenuID:     7,
		CanQuery:   true,
		CanPrint:   true,
	})
	resolver := NewResolver(conn)

	caps, err := resolver.Resolve(context.Background(), security.Identity{PNO: "AB1234"}, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !caps.CanUse || !caps.Query || !caps.Print {
		t.Fatalf("expected granted flags set, got %+v", caps)
	}
	if caps.Insert || caps.Edit || caps.Delete {
		t.Fatalf("expected ungranted flags clear, got %+v", caps)
	}
	if !caps.IsAvailableNow {
		t.Fatalf("expected unrestricted grant available, got %+v", caps)
	}
}

func TestResolve_NoGrantRow(t *testing.T) {
	conn := openTestDB(t)
	resolver := NewResolver(conn)

	caps, err := resolver.Resolve(context.Background(), security.Identity{PNO: "AB1234"}, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if caps != (Capabilities{}) {
		t.Fatalf("expected zero capability set without a grant row, got %+v", caps)
	}
}

func TestResolve_Superuser(t *testing.T) {
	conn := openTestDB(t)
	resolver := NewResolver(conn)

	caps, err := resolver.Resolve(context.Background(), security.Identity{PNO: "KSI", SuperUser: true}, 99999)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if caps != AllCapabilities() {
		t.Fatalf("expected full capability set for superuser, got %+v", caps)
	}
}

func TestResolve_WeekdayScheduleOnSaturday(t *testing.T) {
	conn := openTestDB(t)
	createGrant(t, conn, models.PermissionGrant{
		AccountPNO:      "AB1234",
		MenuID:          7,
		CanQuery:        true,
		AllowedWeekdays: datatypes.JSON([]byte("[1,2,3,4,5]")),
	})
	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	resolver := NewResolver(conn).WithNow(func() time.Time { return saturday })

	caps, err := resolver.Resolve(context.Background(), security.Identity{PNO: "AB1234"}, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !caps.CanUse || !caps.Query {
		t.Fatalf("expected grant flags preserved, got %+v", caps)
	}
	if caps.IsAvailableNow {
		t.Fatalf("expected weekday schedule to block Saturday")
	}
}

func TestGrantedMenuIDs(t *testing.T) {
	conn := openTestDB(t)
	createGrant(t, conn, models.PermissionGrant{AccountPNO: "AB1234", MenuID: 7, CanQuery: true})
	createGrant(t, conn, models.PermissionGrant{AccountPNO: "AB1234", MenuID: 9})
	createGrant(t, conn, models.PermissionGrant{AccountPNO: "CD5678", MenuID: 11})
	resolver := NewResolver(conn)

	granted, err := resolver.GrantedMenuIDs(context.Background(), "AB1234")
	if err != nil {
		t.Fatalf("granted menu ids: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("expected two grants, got %v", granted)
	}
	if _, ok := granted[7]; !ok {
		t.Fatalf("expected menu 7 granted")
	}
	if _, ok := granted[11]; ok {
		t.Fatalf("expected other account's grant excluded")
	}
}

func TestMenuIDForProgram(t *testing.T) {
	conn := openTestDB(t)
	resolver := NewResolver(conn)
	ctx := context.Background()

	// The migration seeds a SYSCOMMI program item.
	var item models.MenuItem
	if errFind := conn.Where("program_code = ?", "SYSCOMMI").First(&item).Error; errFind != nil {
		t.Fatalf("find seeded menu item: %v", errFind)
	}

	// No grant yet.
	_, found, err := resolver.MenuIDForProgram(ctx, "AB1234", "SYSCOMMI")
	if err != nil {
		t.Fatalf("resolve program: %v", err)
	}
	if found {
		t.Fatalf("expected no resolution without a grant row")
	}

	createGrant(t, conn, models.PermissionGrant{AccountPNO: "AB1234", MenuID: item.ID, CanQuery: true})

	menuID, found, err := resolver.MenuIDForProgram(ctx, "AB1234", "SYSCOMMI")
	if err != nil {
		t.Fatalf("resolve program: %v", err)
	}
	if !found || menuID != item.ID {
		t.Fatalf("expected menu id %d, got %d found=%v", item.ID, menuID, found)
	}

	// Unknown program code.
	_, found, err = resolver.MenuIDForProgram(ctx, "AB1234", "NOPE")
	if err != nil {
		t.Fatalf("resolve unknown program: %v", err)
	}
	if found {
		t.Fatalf("expected no resolution for unknown program code")
	}
}
