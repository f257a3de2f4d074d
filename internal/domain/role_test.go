package domain

import "testing"

func TestRoleFromMixed(t *testing.T) {
	three := 3
	tests := []struct {
		name   string
		input  any
		want   Role
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int code", 2, RoleManager, true},
		{"int64 code", int64(4), RoleDirectorB, true},
		{"float from json", float64(5), RoleAdmin, true},
		{"fractional float", 2.5, 0, false},
		{"pointer code", &three, RoleDirectorA, true},
		{"numeric string", "1", RoleRequester, true},
		{"legacy label", "pemohon", RoleRequester, true},
		{"legacy label user", "user", RoleRequester, true},
		{"label mixed case", " Manager ", RoleManager, true},
		{"director a label", "direktur_a", RoleDirectorA, true},
		{"director b label", "director_b", RoleDirectorB, true},
		{"admin label", "administrator", RoleAdmin, true},
		{"out of range", 9, 0, false},
		{"zero", 0, 0, false},
		{"empty string", "", 0, false},
		{"unknown label", "supervisor", 0, false},
		{"typed role", RoleDirectorB, RoleDirectorB, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RoleFromMixed(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RoleFromMixed(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCategoryFromMixed(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   ManagerCategory
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"int code", 3, CategoryJangmed, true},
		{"numeric string", "2", CategoryYanmed, true},
		{"label", "yanmum", CategoryYanmum, true},
		{"label upper", "JANGMED", CategoryJangmed, true},
		{"out of range", 7, 0, false},
		{"unknown label", "umum", 0, false},
		{"typed category", CategoryYanmed, CategoryYanmed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CategoryFromMixed(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CategoryFromMixed(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRoleLabels(t *testing.T) {
	if got := RoleDirectorA.Label(); got != "Direktur RS Raffa Majenang" {
		t.Errorf("RoleDirectorA.Label() = %q", got)
	}
	if got := Role(99).Label(); got != "-" {
		t.Errorf("unknown role label = %q, want -", got)
	}
}

func TestOrganizationValid(t *testing.T) {
	if !OrgWiradadi.Valid() || !OrgRaffa.Valid() {
		t.Error("known organizations must be valid")
	}
	if Organization("other").Valid() {
		t.Error("unknown organization must be invalid")
	}
	if Organization("").Valid() {
		t.Error("empty organization must be invalid")
	}
}
