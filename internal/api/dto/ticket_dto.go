package dto

import (
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/repository"
	"github.com/Dwisantra/simpefov2/internal/service"
)

// SubmitTicketRequest carries the non-file fields of a submission. The
// attachment arrives as a multipart file alongside.
type SubmitTicketRequest struct {
	Title        string   `json:"title" form:"title"`
	Description  string   `json:"description" form:"description"`
	RequestTypes []string `json:"request_types" form:"request_types"`
	Priority     string   `json:"priority" form:"priority"`
	SignCode     string   `json:"sign_code" form:"sign_code"`
}

// ApproveRequest carries one stage sign-off.
type ApproveRequest struct {
	SignCode string  `json:"sign_code"`
	Note     *string `json:"note"`
}

// CommentRequest carries a discussion entry.
type CommentRequest struct {
	Body string `json:"body" form:"body"`
}

// UpdateTicketRequest carries admin content edits.
type UpdateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PriorityRequest carries a priority change.
type PriorityRequest struct {
	Priority string `json:"priority"`
}

// DevelopmentStatusRequest carries a build-progress change.
type DevelopmentStatusRequest struct {
	Status int `json:"status"`
}

// ReleaseRequest carries the release outcome.
type ReleaseRequest struct {
	Status int `json:"status"`
}

// TicketResponse is the API shape of a ticket, with all derived labels
// computed at response time so they always reflect the current policy.
type TicketResponse struct {
	ID                 string     `json:"id"`
	RequesterID        string     `json:"requester_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	StatusLabel        string     `json:"status_label"`
	StatusProgress     int        `json:"status_progress"`
	StatusProgressMax  int        `json:"status_progress_max"`
	Stage              string     `json:"stage"`
	StageLabel         string     `json:"stage_label"`
	RequestTypes       []string   `json:"request_types"`
	RequestTypesLabel  string     `json:"request_types_label"`
	Organization       string     `json:"organization"`
	UnitID             *string    `json:"unit_id,omitempty"`
	ManagerCategory    *int       `json:"manager_category,omitempty"`
	DevelopmentStatus  *int       `json:"development_status,omitempty"`
	DevelopmentLabel   string     `json:"development_label,omitempty"`
	ReleaseStatus      *int       `json:"release_status,omitempty"`
	ReleaseDate        *time.Time `json:"release_date,omitempty"`
	Priority           string     `json:"priority"`
	PriorityLabel      string     `json:"priority_label"`
	AttachmentName     *string    `json:"attachment_name,omitempty"`
	HasAttachment      bool       `json:"has_attachment"`
	GitlabIssueIID     *int64     `json:"gitlab_issue_iid,omitempty"`
	GitlabIssueURL     *string    `json:"gitlab_issue_url,omitempty"`
	GitlabIssueState   *string    `json:"gitlab_issue_state,omitempty"`
	GitlabLastSyncedAt *time.Time `json:"gitlab_last_synced_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ApprovalResponse is one audit-trail entry.
type ApprovalResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Role       int       `json:"role"`
	RoleLabel  string    `json:"role_label"`
	Note       *string   `json:"note,omitempty"`
	ApprovedAt time.Time `json:"approved_at"`
}

// CommentResponse is one discussion entry.
type CommentResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	UserRoleLabel  string    `json:"user_role_label"`
	Body           string    `json:"body"`
	AttachmentName *string   `json:"attachment_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TicketDetailResponse bundles a ticket with its trail and discussion.
type TicketDetailResponse struct {
	Ticket    TicketResponse     `json:"ticket"`
	Approvals []ApprovalResponse `json:"approvals"`
	Comments  []CommentResponse  `json:"comments"`
}

// MonitoringResponse holds both monitoring buckets.
type MonitoringResponse struct {
	InProgress []TicketResponse `json:"in_progress"`
	Completed  []TicketResponse `json:"completed"`
}

// FromTicket maps a ticket under the given policy.
func FromTicket(t *domain.Ticket, policy domain.WorkflowPolicy) TicketResponse {
	progressMax := 4
	if !t.RequiresDirectorA(policy) {
		progressMax = 3
	}
	resp := TicketResponse{
		ID:                 t.ID,
		RequesterID:        t.RequesterID,
		Title:              t.Title,
		Description:        t.Description,
		Status:             string(t.Status),
		StatusLabel:        t.StatusLabel(policy),
		StatusProgress:     t.StatusProgress(policy),
		StatusProgressMax:  progressMax,
		Stage:              string(t.Stage()),
		StageLabel:         t.StageLabel(),
		RequestTypes:       requestTypeValues(t.RequestTypes),
		RequestTypesLabel:  t.RequestTypesLabel(),
		Organization:       string(t.RequesterOrg),
		UnitID:             t.RequesterUnitID,
		DevelopmentLabel:   t.DevelopmentStatusLabel(),
		ReleaseDate:        t.ReleaseDate,
		Priority:           string(t.Priority),
		PriorityLabel:      t.Priority.Label(),
		AttachmentName:     t.AttachmentName,
		HasAttachment:      t.AttachmentPath != nil,
		GitlabIssueIID:     t.Gitlab.IssueIID,
		GitlabIssueURL:     t.Gitlab.URL,
		GitlabIssueState:   t.Gitlab.State,
		GitlabLastSyncedAt: t.Gitlab.SyncedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.ManagerCategory != nil {
		category := int(*t.ManagerCategory)
		resp.ManagerCategory = &category
	}
	if t.DevelopmentStatus != nil {
		status := int(*t.DevelopmentStatus)
		resp.DevelopmentStatus = &status
	}
	if t.ReleaseStatus != nil {
		status := int(*t.ReleaseStatus)
		resp.ReleaseStatus = &status
	}
	return resp
}

// FromTickets maps a slice under one policy read.
func FromTickets(tickets []domain.Ticket, policy domain.WorkflowPolicy) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i], policy))
	}
	return out
}

// FromTicketDetail maps a detail aggregate.
func FromTicketDetail(detail *service.TicketDetail, policy domain.WorkflowPolicy) TicketDetailResponse {
	return TicketDetailResponse{
		Ticket:    FromTicket(detail.Ticket, policy),
		Approvals: FromApprovals(detail.Approvals),
		Comments:  FromComments(detail.Comments),
	}
}

// FromApprovals maps the audit trail. Sign-code hashes stay internal.
func FromApprovals(entries []repository.ApprovalWithUser) []ApprovalResponse {
	out := make([]ApprovalResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ApprovalResponse{
			ID:         entry.ID,
			UserID:     entry.UserID,
			UserName:   entry.UserName,
			Role:       int(entry.Role),
			RoleLabel:  entry.Role.Label(),
			Note:       entry.Note,
			ApprovedAt: entry.ApprovedAt,
		})
	}
	return out
}

// FromComments maps the discussion.
func FromComments(entries []repository.CommentWithUser) []CommentResponse {
	out := make([]CommentResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, CommentResponse{
			ID:             entry.ID,
			UserID:         entry.UserID,
			UserName:       entry.UserName,
			UserRoleLabel:  entry.UserRole.Label(),
			Body:           entry.Body,
			AttachmentName: entry.AttachmentName,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return out
}

func requestTypeValues(types []domain.RequestType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
