package domain

import (
	"strconv"
	"strings"
)

// Role enumerates actor kinds in the approval chain. Admin sits outside the
// chain: it never appears as an expected stage role.
type Role int

const (
	RoleRequester Role = 1
	RoleManager   Role = 2
	RoleDirectorA Role = 3
	RoleDirectorB Role = 4
	RoleAdmin     Role = 5
)

// Label returns the human-facing role name.
func (r Role) Label() string {
	switch r {
	case RoleRequester:
		return "Pemohon"
	case RoleManager:
		return "Manager"
	case RoleDirectorA:
		return "Direktur RS Raffa Majenang"
	case RoleDirectorB:
		return "Direktur RS Wiradadi Husada"
	case RoleAdmin:
		return "Administrator"
	default:
		return "-"
	}
}

// RoleFromMixed parses a role from the mixed representations found in
// historical data: integer codes, numeric strings and legacy text labels.
// The second return value is false for unknown or empty input; callers must
// treat that as "reject with an authorization error", never as a default role.
func RoleFromMixed(value any) (Role, bool) {
	code, text, ok := normalizeMixed(value)
	if !ok {
		return 0, false
	}
	if code != 0 {
		if code >= int(RoleRequester) && code <= int(RoleAdmin) {
			return Role(code), true
		}
		return 0, false
	}
	switch text {
	case "user", "pemohon":
		return RoleRequester, true
	case "manager":
		return RoleManager, true
	case "director_a", "direktura", "direktur_a":
		return RoleDirectorA, true
	case "director_b", "direkturb", "direktur_b":
		return RoleDirectorB, true
	case "admin", "administrator":
		return RoleAdmin, true
	default:
		return 0, false
	}
}

// ManagerCategory partitions the Manager role; a manager acts only on tickets
// mapped to their category.
type ManagerCategory int

const (
	CategoryYanmum  ManagerCategory = 1
	CategoryYanmed  ManagerCategory = 2
	CategoryJangmed ManagerCategory = 3
)

// Label returns the human-facing category name.
func (c ManagerCategory) Label() string {
	switch c {
	case CategoryYanmum:
		return "Manager Yanmum"
	case CategoryYanmed:
		return "Manager Yanmed"
	case CategoryJangmed:
		return "Manager Jangmed"
	default:
		return "-"
	}
}

// CategoryFromMixed parses a manager category from mixed legacy input, with
// the same contract as RoleFromMixed.
func CategoryFromMixed(value any) (ManagerCategory, bool) {
	code, text, ok := normalizeMixed(value)
	if !ok {
		return 0, false
	}
	if code != 0 {
		if code >= int(CategoryYanmum) && code <= int(CategoryJangmed) {
			return ManagerCategory(code), true
		}
		return 0, false
	}
	switch text {
	case "yanmum":
		return CategoryYanmum, true
	case "yanmed":
		return CategoryYanmed, true
	case "jangmed":
		return CategoryJangmed, true
	default:
		return 0, false
	}
}

// normalizeMixed reduces heterogeneous input to either a positive integer
// code or a lowercased text label. Returns ok=false for nil and empty input.
func normalizeMixed(value any) (code int, text string, ok bool) {
	switch v := value.(type) {
	case nil:
		return 0, "", false
	case Role:
		return int(v), "", true
	case ManagerCategory:
		return int(v), "", true
	case int:
		return v, "", v != 0
	case int32:
		return int(v), "", v != 0
	case int64:
		return int(v), "", v != 0
	case float64:
		if v != float64(int(v)) {
			return 0, "", false
		}
		return int(v), "", int(v) != 0
	case *int:
		if v == nil {
			return 0, "", false
		}
		return *v, "", *v != 0
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, "", false
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, "", n != 0
		}
		return 0, strings.ToLower(trimmed), true
	default:
		return 0, "", false
	}
}

// Organization is the two-valued affiliation of requesters and units. It
// decides whether the conditional Raffa director stage applies.
type Organization string

const (
	OrgWiradadi Organization = "wiradadi"
	OrgRaffa    Organization = "raffa"
)

// Valid reports whether the organization is one of the two known values.
func (o Organization) Valid() bool {
	return o == OrgWiradadi || o == OrgRaffa
}
