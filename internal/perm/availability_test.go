package perm

import (
	"testing"
	"time"

	"github.com/bizdesk/backoffice/internal/models"
	"gorm.io/datatypes"
)

func TestCheckAvailability_NoClausesAlwaysAvailable(t *testing.T) {
	now := time.Date(2026, 9, 5, 23, 59, 0, 0, time.UTC)
	if !CheckAvailability(models.PermissionGrant{}, now) {
		t.Fatalf("expected unrestricted grant to be available")
	}
}

func TestCheckAvailability_Weekdays(t *testing.T) {
	grant := models.PermissionGrant{
		AllowedWeekdays: datatypes.JSON([]byte("[1,2,3,4,5]")),
	}

	wednesday := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	if !CheckAvailability(grant, wednesday) {
		t.Fatalf("expected Wednesday to be inside the weekday set")
	}

	saturday := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	if CheckAvailability(grant, saturday) {
		t.Fatalf("expected Saturday to be outside the weekday set")
	}

	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	if CheckAvailability(grant, sunday) {
		t.Fatalf("expected Sunday to be outside the weekday set")
	}
}

func TestCheckAvailability_SundayIsSeven(t *testing.T) {
	grant := models.PermissionGrant{
		AllowedWeekdays: datatypes.JSON([]byte("[7]")),
	}
	sunday := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	if !CheckAvailability(grant, sunday) {
		t.Fatalf("expected Sunday to map to ISO weekday 7")
	}
	monday := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	if CheckAvailability(grant, monday) {
		t.Fatalf("expected Monday excluded from the Sunday-only set")
	}
}

func TestCheckAvailability_DaysOfMonth(t *testing.T) {
	grant := models.PermissionGrant{
		AllowedDaysOfMonth: datatypes.JSON([]byte("[1,15]")),
	}
	if !CheckAvailability(grant, time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the 15th to be allowed")
	}
	if CheckAvailability(grant, time.Date(2026, 9, 16, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected the 16th to be denied")
	}
}

func TestCheckAvailability_TimeWindowInclusive(t *testing.T) {
	grant := models.PermissionGrant{
		TimeWindowStart: "0900",
		TimeWindowEnd:   "1800",
	}
	cases := []struct {
		hour, minute int
		want         bool
	}{
		{8, 59, false},
		{9, 0, true},
		{12, 30, true},
		{18, 0, true},
		{18, 1, false},
	}
	for _, tc := range cases {
		now := time.Date(2026, 9, 2, tc.hour, tc.minute, 0, 0, time.UTC)
		if got := CheckAvailability(grant, now); got != tc.want {
			t.Fatalf("%02d:%02d: expected %v, got %v", tc.hour, tc.minute, tc.want, got)
		}
	}
}

func TestCheckAvailability_MalformedClausesIgnored(t *testing.T) {
	grant := models.PermissionGrant{
		AllowedWeekdays: datatypes.JSON([]byte("not json")),
		TimeWindowStart: "99x",
		TimeWindowEnd:   "1800",
	}
	now := time.Date(2026, 9, 5, 3, 0, 0, 0, time.UTC)
	if !CheckAvailability(grant, now) {
		t.Fatalf("expected malformed clauses to be treated as unconfigured")
	}
}

func TestCheckAvailability_AllClausesMustPass(t *testing.T) {
	grant := models.PermissionGrant{
		AllowedWeekdays: datatypes.JSON([]byte("[3]")),
		TimeWindowStart: "0900",
		TimeWindowEnd:   "1800",
	}
	// Right weekday, outside the window.
	if CheckAvailability(grant, time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected denial outside the time window")
	}
	// Inside the window, wrong weekday.
	if CheckAvailability(grant, time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected denial on an excluded weekday")
	}
	// Both clauses pass.
	if !CheckAvailability(grant, time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected availability when every clause passes")
	}
}
