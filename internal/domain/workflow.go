package domain

// The approval chain is a fixed sequence with one conditional stage:
//
//	pending -> approved_manager -> [approved_a ->] approved_b (-> done)
//
// approved_a (the Raffa director sign-off) is skipped when the policy flag is
// on and the ticket's snapshotted organization is Wiradadi. approved_b and
// done are terminal for the chain; done is only ever set by the development
// workflow.

// ExpectedRole returns the role whose approval would advance the ticket, or
// (0, false) once the ticket is past the sign-off phase.
func ExpectedRole(t *Ticket, policy WorkflowPolicy) (Role, bool) {
	switch t.Status {
	case StatusPending:
		return RoleManager, true
	case StatusApprovedManager:
		if t.RequiresDirectorA(policy) {
			return RoleDirectorA, true
		}
		return RoleDirectorB, true
	case StatusApprovedA:
		return RoleDirectorB, true
	default:
		return 0, false
	}
}

// NextStatus returns the status the ticket moves to when the given role
// approves it. The role must already have been validated against
// ExpectedRole; unknown combinations return ("", false).
func NextStatus(t *Ticket, role Role, policy WorkflowPolicy) (ApprovalStatus, bool) {
	switch role {
	case RoleManager:
		if t.Status != StatusPending {
			return "", false
		}
		return StatusApprovedManager, true
	case RoleDirectorA:
		if t.Status != StatusApprovedManager || !t.RequiresDirectorA(policy) {
			return "", false
		}
		return StatusApprovedA, true
	case RoleDirectorB:
		if t.Status == StatusApprovedA {
			return StatusApprovedB, true
		}
		if t.Status == StatusApprovedManager && !t.RequiresDirectorA(policy) {
			return StatusApprovedB, true
		}
		return "", false
	default:
		return "", false
	}
}
