package domain

import (
	"strings"
	"time"
)

// ApprovalStatus tracks the position of a ticket in the sign-off chain.
type ApprovalStatus string

const (
	StatusPending         ApprovalStatus = "pending"
	StatusApprovedManager ApprovalStatus = "approved_manager"
	StatusApprovedA       ApprovalStatus = "approved_a"
	StatusApprovedB       ApprovalStatus = "approved_b"
	// StatusDone is set by the development workflow once a released ticket is
	// closed out; it is not reachable through the approval chain itself.
	StatusDone ApprovalStatus = "done"
)

// DevelopmentStatus is the post-approval build-progress axis, independent of
// the approval chain.
type DevelopmentStatus int

const (
	DevStatusAnalysis     DevelopmentStatus = 1
	DevStatusInProgress   DevelopmentStatus = 2
	DevStatusTesting      DevelopmentStatus = 3
	DevStatusReadyRelease DevelopmentStatus = 4
)

var developmentStatusLabels = map[DevelopmentStatus]string{
	DevStatusAnalysis:     "Analisis",
	DevStatusInProgress:   "Pengerjaan",
	DevStatusTesting:      "Testing",
	DevStatusReadyRelease: "Ready Release",
}

// ReleaseStatus records whether a released ticket is in use yet.
type ReleaseStatus int

const (
	ReleaseStatusUnused ReleaseStatus = 1
	ReleaseStatusInUse  ReleaseStatus = 2
)

// TicketPriority enumerates the urgency set by the Jangmed manager.
type TicketPriority string

const (
	PriorityNormal TicketPriority = "biasa"
	PriorityMedium TicketPriority = "sedang"
	PriorityUrgent TicketPriority = "cito"
)

// Label returns the human-facing priority name.
func (p TicketPriority) Label() string {
	switch p {
	case PriorityUrgent:
		return "Prioritas Cito"
	case PriorityMedium:
		return "Prioritas Sedang"
	default:
		return "Prioritas Biasa"
	}
}

// RequestType classifies what the requester asks for.
type RequestType string

const (
	RequestTypeNewFeature  RequestType = "new_feature"
	RequestTypeNewReport   RequestType = "new_report"
	RequestTypeBugFix      RequestType = "bug_fix"
	RequestTypeGitlabIssue RequestType = "gitlab_issue"
)

var requestTypeLabels = map[RequestType]string{
	RequestTypeNewFeature:  "Pembuatan Fitur Baru",
	RequestTypeNewReport:   "Pembuatan Report/Cetakan",
	RequestTypeBugFix:      "Lapor Bug/Error",
	RequestTypeGitlabIssue: "Issue dari GitLab",
}

// WorkflowStage partitions tickets between the sign-off phase and the
// development phase.
type WorkflowStage string

const (
	StageSubmission  WorkflowStage = "submission"
	StageDevelopment WorkflowStage = "development"
)

// WorkflowPolicy carries the routing toggles that business rules consume.
// It is injected per call so in-flight tickets reroute when the toggle
// changes, and so both settings are testable without process-wide state.
type WorkflowPolicy struct {
	// SkipDirectorAForWiradadi removes the Raffa director stage for tickets
	// whose snapshotted organization is Wiradadi Husada.
	SkipDirectorAForWiradadi bool
	// LockCompletedPriority freezes ticket priority once the ticket lands in
	// the completed monitoring bucket.
	LockCompletedPriority bool
}

// GitlabLink stores the external issue-tracker linkage. Purely informational:
// no business rule reads it.
type GitlabLink struct {
	IssueID  *int64
	IssueIID *int64
	URL      *string
	State    *string
	SyncedAt *time.Time
}

// Ticket is the aggregate for feature requests.
type Ticket struct {
	ID           string
	RequesterID  string
	Title        string
	Description  string
	Status       ApprovalStatus
	RequestTypes []RequestType

	// Snapshots captured at submission; never recomputed from the live unit,
	// so approval routing stays fixed even if the requester moves units.
	RequesterOrg    Organization
	RequesterUnitID *string
	ManagerCategory *ManagerCategory

	DevelopmentStatus *DevelopmentStatus
	ReleaseStatus     *ReleaseStatus
	ReleaseDate       *time.Time
	ReleaseSetBy      *string

	Priority TicketPriority

	AttachmentPath *string
	AttachmentName *string

	Gitlab GitlabLink

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequiresDirectorA reports whether the Raffa director stage applies to this
// ticket under the given policy. Recomputed on every decision by design.
func (t *Ticket) RequiresDirectorA(policy WorkflowPolicy) bool {
	if policy.SkipDirectorAForWiradadi && t.RequesterOrg == OrgWiradadi {
		return false
	}
	return true
}

// StatusLabel derives the human-facing status string from stored state.
func (t *Ticket) StatusLabel(policy WorkflowPolicy) string {
	switch t.Status {
	case StatusPending:
		return "Menunggu ACC Manager"
	case StatusApprovedManager:
		if t.RequiresDirectorA(policy) {
			return "Menunggu Direktur RS Raffa Majenang"
		}
		return "Menunggu Direktur RS Wiradadi Husada"
	case StatusApprovedA:
		return "Menunggu Direktur RS Wiradadi Husada"
	case StatusApprovedB, StatusDone:
		return "Selesai"
	default:
		return "Tidak diketahui"
	}
}

// StatusProgress returns the position of the current status within the
// applicable stage sequence: 1..4 with the Raffa director stage, 1..3
// without, 0 for an unknown status. UI-only; never persisted.
func (t *Ticket) StatusProgress(policy WorkflowPolicy) int {
	if t.RequiresDirectorA(policy) {
		switch t.Status {
		case StatusPending:
			return 1
		case StatusApprovedManager:
			return 2
		case StatusApprovedA:
			return 3
		case StatusApprovedB, StatusDone:
			return 4
		}
		return 0
	}
	switch t.Status {
	case StatusPending:
		return 1
	case StatusApprovedManager, StatusApprovedA:
		return 2
	case StatusApprovedB, StatusDone:
		return 3
	}
	return 0
}

// DevelopmentStatusLabel returns the label for the development axis, or ""
// when unset.
func (t *Ticket) DevelopmentStatusLabel() string {
	if t.DevelopmentStatus == nil {
		return ""
	}
	return developmentStatusLabels[*t.DevelopmentStatus]
}

// Stage reports which workflow phase the ticket is in.
func (t *Ticket) Stage() WorkflowStage {
	if t.Status == StatusApprovedB || t.Status == StatusDone {
		return StageDevelopment
	}
	return StageSubmission
}

// StageLabel returns the human-facing phase name.
func (t *Ticket) StageLabel() string {
	if t.Stage() == StageDevelopment {
		return "Tahap Pengerjaan"
	}
	return "Tahap Pengajuan"
}

// RequestTypesLabel joins the request-type labels for display, falling back
// to the title when no types were recorded.
func (t *Ticket) RequestTypesLabel() string {
	if len(t.RequestTypes) == 0 {
		if t.Title != "" {
			return t.Title
		}
		return "-"
	}
	labels := make([]string, 0, len(t.RequestTypes))
	for _, rt := range t.RequestTypes {
		if label, ok := requestTypeLabels[rt]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, string(rt))
		}
	}
	return strings.Join(labels, ", ")
}

// ReadyForRelease reports whether development has reached the release gate.
func (t *Ticket) ReadyForRelease() bool {
	return t.DevelopmentStatus != nil && *t.DevelopmentStatus >= DevStatusReadyRelease
}
