package perm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bizdesk/backoffice/internal/models"
)

// CheckAvailability evaluates the grant's schedule clauses against now.
// Each clause applies only when configured and all configured clauses must
// pass; absence of every clause means always available.
func CheckAvailability(grant models.PermissionGrant, now time.Time) bool {
	if days := decodeIntSet(grant.AllowedDaysOfMonth); days != nil {
		if _, ok := days[now.Day()]; !ok {
			return false
		}
	}
	if weekdays := decodeIntSet(grant.AllowedWeekdays); weekdays != nil {
		if _, ok := weekdays[isoWeekday(now)]; !ok {
			return false
		}
	}
	if start, okStart := parseHHMM(grant.TimeWindowStart); okStart {
		if end, okEnd := parseHHMM(grant.TimeWindowEnd); okEnd {
			current := now.Hour()*100 + now.Minute()
			if current < start || current > end {
				return false
			}
		}
	}
	return true
}

// isoWeekday maps Go weekdays to ISO numbering, Monday=1 through Sunday=7.
func isoWeekday(now time.Time) int {
	return (int(now.Weekday())+6)%7 + 1
}

// decodeIntSet parses a JSON integer array into a membership set. A null,
// empty, or malformed column means the clause is not configured.
func decodeIntSet(raw []byte) map[int]struct{} {
	if len(raw) == 0 {
		return nil
	}
	var values []int
	if errUnmarshal := json.Unmarshal(raw, &values); errUnmarshal != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// parseHHMM parses a clock value like "0930" into 930. Empty or malformed
// values leave the window clause unconfigured.
func parseHHMM(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	value, errParse := strconv.Atoi(trimmed)
	if errParse != nil {
		return 0, false
	}
	if value < 0 || value > 2359 || value%100 > 59 {
		return 0, false
	}
	return value, true
}
