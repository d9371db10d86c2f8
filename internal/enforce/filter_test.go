package enforce

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bizdesk/backoffice/internal/config"
	"github.com/bizdesk/backoffice/internal/db"
	"github.com/bizdesk/backoffice/internal/models"
	"github.com/bizdesk/backoffice/internal/perm"
	"github.com/bizdesk/backoffice/internal/security"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testSecret = "filter-test-secret"

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

func newTestEnforcer(t *testing.T, conn *gorm.DB, strict bool) *Enforcer {
	t.Helper()
	jwtCfg := config.JWTConfig{Secret: testSecret, Expiry: time.Hour}
	return NewEnforcer(perm.NewResolver(conn), jwtCfg, strict)
}

func sessionToken(t *testing.T, identity security.Identity) string {
	t.Helper()
	token, err := security.IssueSessionToken(testSecret, identity, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func menuItemID(t *testing.T, conn *gorm.DB, programCode string) uint64 {
	t.Helper()
	var item models.MenuItem
	if errFind := conn.Where("program_code = ?", programCode).First(&item).Error; errFind != nil {
		t.Fatalf("find menu item %s: %v", programCode, errFind)
	}
	return item.ID
}

func TestAuthorize_BadToken(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)

	_, err := enforcer.Authorize(context.Background(), "garbage", "apiSYSCOMMI", ActionQuery, "", false)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthorize_MenuBindingMismatch(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	binding, err := security.EncryptMenuBinding(testSecret, "BPT010", 42)
	if err != nil {
		t.Fatalf("encrypt binding: %v", err)
	}

	_, errAuthorize := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionQuery, binding, false)
	if !errors.Is(errAuthorize, ErrIllegalRequest) {
		t.Fatalf("expected ErrIllegalRequest, got %v", errAuthorize)
	}
}

func TestAuthorize_MalformedBindingDegrades(t *testing.T) {
	conn := openTestDB(t)
	menuID := menuItemID(t, conn, "SYSCOMMI")
	if errCreate := conn.Create(&models.PermissionGrant{
		AccountPNO: "AB1234", MenuID: menuID, CanQuery: true,
	}).Error; errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	// An unreadable binding falls back to program-code resolution rather
	// than failing the request.
	decision, err := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionQuery, "!!!not-a-token", false)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !decision.Capabilities.Query {
		t.Fatalf("expected query capability, got %+v", decision.Capabilities)
	}
}

func TestAuthorize_SubWindowSkipsGating(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	decision, err := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionQuery, "", true)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !decision.Capabilities.CanUse || !decision.Capabilities.IsAvailableNow {
		t.Fatalf("expected sub-window pass-through, got %+v", decision.Capabilities)
	}
}

func TestAuthorize_MenuControllerSkipsGating(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	if _, err := enforcer.Authorize(context.Background(), token, MenuControllerName, ActionQuery, "", false); err != nil {
		t.Fatalf("expected menu controller exempt, got %v", err)
	}
}

func TestAuthorize_Superuser(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "KSI", SuperUser: true})

	decision, err := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionDelete, "", false)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if decision.Capabilities != perm.AllCapabilities() {
		t.Fatalf("expected full capability set, got %+v", decision.Capabilities)
	}
}

func TestAuthorize_ActionDenied(t *testing.T) {
	conn := openTestDB(t)
	menuID := menuItemID(t, conn, "SYSCOMMI")
	if errCreate := conn.Create(&models.PermissionGrant{
		AccountPNO: "AB1234", MenuID: menuID, CanQuery: true,
	}).Error; errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})
	ctx := context.Background()

	if _, err := enforcer.Authorize(ctx, token, "apiSYSCOMMI", ActionQuery, "", false); err != nil {
		t.Fatalf("expected query allowed, got %v", err)
	}

	_, err := enforcer.Authorize(ctx, token, "apiSYSCOMMI", ActionDelete, "", false)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) || forbidden.Action != ActionDelete {
		t.Fatalf("expected delete forbidden, got %v", err)
	}
}

func TestAuthorize_ScheduleDenied(t *testing.T) {
	conn := openTestDB(t)
	menuID := menuItemID(t, conn, "SYSCOMMI")
	if errCreate := conn.Create(&models.PermissionGrant{
		AccountPNO:      "AB1234",
		MenuID:          menuID,
		CanQuery:        true,
		AllowedWeekdays: datatypes.JSON([]byte("[1,2,3,4,5]")),
	}).Error; errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}
	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	resolver := perm.NewResolver(conn).WithNow(func() time.Time { return saturday })
	enforcer := NewEnforcer(resolver, config.JWTConfig{Secret: testSecret, Expiry: time.Hour}, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	_, err := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionQuery, "", false)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected schedule denial, got %v", err)
	}
}

func TestAuthorize_UnresolvedMenu_LegacyAllow(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, false)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	// No binding token and no grant row: the menu context cannot be
	// resolved, and the permissive default waves the request through.
	decision, err := enforcer.Authorize(context.Background(), token, "apiBPT999", ActionQuery, "", false)
	if err != nil {
		t.Fatalf("expected legacy allow, got %v", err)
	}
	if !decision.Capabilities.CanUse {
		t.Fatalf("expected pass-through capabilities, got %+v", decision.Capabilities)
	}
}

func TestAuthorize_UnresolvedMenu_StrictDeny(t *testing.T) {
	conn := openTestDB(t)
	enforcer := newTestEnforcer(t, conn, true)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	_, err := enforcer.Authorize(context.Background(), token, "apiBPT999", ActionQuery, "", false)
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected strict denial, got %v", err)
	}
}

func TestAuthorize_BoundMenuAllowed(t *testing.T) {
	conn := openTestDB(t)
	menuID := menuItemID(t, conn, "SYSCOMMI")
	if errCreate := conn.Create(&models.PermissionGrant{
		AccountPNO: "AB1234", MenuID: menuID, CanQuery: true, CanInsert: true,
	}).Error; errCreate != nil {
		t.Fatalf("create grant: %v", errCreate)
	}
	enforcer := newTestEnforcer(t, conn, true)
	token := sessionToken(t, security.Identity{PNO: "AB1234"})

	binding, err := security.EncryptMenuBinding(testSecret, "SYSCOMMI", menuID)
	if err != nil {
		t.Fatalf("encrypt binding: %v", err)
	}

	decision, errAuthorize := enforcer.Authorize(context.Background(), token, "apiSYSCOMMI", ActionInsert, binding, false)
	if errAuthorize != nil {
		t.Fatalf("authorize: %v", errAuthorize)
	}
	if !decision.Capabilities.Insert {
		t.Fatalf("expected insert capability, got %+v", decision.Capabilities)
	}
	if decision.Identity.PNO != "AB1234" {
		t.Fatalf("expected identity propagated, got %+v", decision.Identity)
	}
}

func TestActionForSegment(t *testing.T) {
	cases := map[string]Action{
		"search": ActionQuery,
		"insert": ActionInsert,
		"edit":   ActionEdit,
		"delete": ActionDelete,
	}
	for segment, want := range cases {
		got, ok := ActionForSegment(segment)
		if !ok || got != want {
			t.Fatalf("segment %q: expected %v, got %v ok=%v", segment, want, got, ok)
		}
	}
	if _, ok := ActionForSegment("tree"); ok {
		t.Fatalf("expected unenforced segment to pass through")
	}
}
