package domain

import "testing"

func ticketWith(status ApprovalStatus, org Organization) *Ticket {
	return &Ticket{Status: status, RequesterOrg: org}
}

func TestExpectedRole(t *testing.T) {
	skip := WorkflowPolicy{SkipDirectorAForWiradadi: true}
	noSkip := WorkflowPolicy{}

	tests := []struct {
		name   string
		ticket *Ticket
		policy WorkflowPolicy
		want   Role
		wantOK bool
	}{
		{"pending expects manager", ticketWith(StatusPending, OrgRaffa), noSkip, RoleManager, true},
		{"after manager expects director a", ticketWith(StatusApprovedManager, OrgRaffa), noSkip, RoleDirectorA, true},
		{"after director a expects director b", ticketWith(StatusApprovedA, OrgRaffa), noSkip, RoleDirectorB, true},
		{"approved_b is terminal", ticketWith(StatusApprovedB, OrgRaffa), noSkip, 0, false},
		{"done is terminal", ticketWith(StatusDone, OrgRaffa), noSkip, 0, false},
		{"skip flag reroutes wiradadi to director b", ticketWith(StatusApprovedManager, OrgWiradadi), skip, RoleDirectorB, true},
		{"skip flag leaves raffa untouched", ticketWith(StatusApprovedManager, OrgRaffa), skip, RoleDirectorA, true},
		{"flag off keeps director a for wiradadi", ticketWith(StatusApprovedManager, OrgWiradadi), noSkip, RoleDirectorA, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExpectedRole(tt.ticket, tt.policy)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExpectedRole() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNextStatus(t *testing.T) {
	skip := WorkflowPolicy{SkipDirectorAForWiradadi: true}
	noSkip := WorkflowPolicy{}

	tests := []struct {
		name   string
		ticket *Ticket
		role   Role
		policy WorkflowPolicy
		want   ApprovalStatus
		wantOK bool
	}{
		{"manager advances pending", ticketWith(StatusPending, OrgRaffa), RoleManager, noSkip, StatusApprovedManager, true},
		{"manager cannot advance twice", ticketWith(StatusApprovedManager, OrgRaffa), RoleManager, noSkip, "", false},
		{"director a advances", ticketWith(StatusApprovedManager, OrgRaffa), RoleDirectorA, noSkip, StatusApprovedA, true},
		{"director a blocked when skipped", ticketWith(StatusApprovedManager, OrgWiradadi), RoleDirectorA, skip, "", false},
		{"director b after director a", ticketWith(StatusApprovedA, OrgRaffa), RoleDirectorB, noSkip, StatusApprovedB, true},
		{"director b direct when skipped", ticketWith(StatusApprovedManager, OrgWiradadi), RoleDirectorB, skip, StatusApprovedB, true},
		{"director b blocked without skip", ticketWith(StatusApprovedManager, OrgWiradadi), RoleDirectorB, noSkip, "", false},
		{"requester never advances", ticketWith(StatusPending, OrgRaffa), RoleRequester, noSkip, "", false},
		{"admin never advances", ticketWith(StatusPending, OrgRaffa), RoleAdmin, noSkip, "", false},
		{"terminal stays terminal", ticketWith(StatusApprovedB, OrgRaffa), RoleDirectorB, noSkip, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextStatus(tt.ticket, tt.role, tt.policy)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NextStatus() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// The invariant behind terminal handling: the expected role is absent exactly
// when the ticket sits in approved_b or done.
func TestExpectedRoleAbsentOnlyWhenTerminal(t *testing.T) {
	statuses := []ApprovalStatus{
		StatusPending, StatusApprovedManager, StatusApprovedA, StatusApprovedB, StatusDone,
	}
	for _, status := range statuses {
		_, ok := ExpectedRole(ticketWith(status, OrgRaffa), WorkflowPolicy{})
		terminal := status == StatusApprovedB || status == StatusDone
		if ok == terminal {
			t.Errorf("status %s: expected-role presence %v, terminal %v", status, ok, terminal)
		}
	}
}
