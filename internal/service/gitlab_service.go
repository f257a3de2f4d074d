package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Dwisantra/simpefov2/internal/config"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// GitlabService mirrors tickets into a GitLab project and keeps the inert
// issue metadata on tickets fresh. No business rule depends on this data.
type GitlabService struct {
	cfg     config.GitlabConfig
	client  *http.Client
	tickets repository.TicketRepository
	users   repository.UserRepository
	logger  *zap.Logger
}

// NewGitlabService constructs the service.
func NewGitlabService(cfg config.GitlabConfig, tickets repository.TicketRepository, users repository.UserRepository, logger *zap.Logger) *GitlabService {
	return &GitlabService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		tickets: tickets,
		users:   users,
		logger:  logger,
	}
}

// Enabled reports whether the integration is configured.
func (s *GitlabService) Enabled() bool {
	return s.cfg.BaseURL != "" && s.cfg.Token != "" && s.cfg.ProjectID != ""
}

type gitlabIssue struct {
	ID     int64  `json:"id"`
	IID    int64  `json:"iid"`
	WebURL string `json:"web_url"`
	State  string `json:"state"`
}

// WebhookIssue is the issue fragment of a GitLab webhook payload.
type WebhookIssue struct {
	ObjectKind string `json:"object_kind"`
	Attributes struct {
		ID          int64  `json:"id"`
		IID         int64  `json:"iid"`
		Title       string `json:"title"`
		Description string `json:"description"`
		State       string `json:"state"`
		URL         string `json:"url"`
		Action      string `json:"action"`
	} `json:"object_attributes"`
}

// CreateIssueForTicket opens a GitLab issue mirroring the ticket and stores
// the linkage. Admin-triggered; a no-op error when the integration is off.
func (s *GitlabService) CreateIssueForTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if !isAdmin(actor) {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	if !s.Enabled() {
		return nil, apperrors.NewValidationError("integrasi GitLab tidak aktif", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Gitlab.IssueIID != nil {
		return nil, apperrors.NewConflict("pengajuan sudah terhubung ke issue GitLab", nil)
	}

	body := map[string]string{
		"title":       ticket.Title,
		"description": ticket.Description,
	}
	if s.cfg.DefaultLabels != "" {
		body["labels"] = s.cfg.DefaultLabels
	}

	var issue gitlabIssue
	path := fmt.Sprintf("/api/v4/projects/%s/issues", s.cfg.ProjectID)
	if err := s.do(ctx, http.MethodPost, path, body, &issue); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	link := linkFromIssue(issue)
	if err := s.tickets.UpdateGitlabLink(ctx, ticket.ID, link); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Gitlab = link
	return ticket, nil
}

// RefreshTicket re-reads the linked issue and updates the stored state.
func (s *GitlabService) RefreshTicket(ctx context.Context, ticket *domain.Ticket) error {
	if !s.Enabled() || ticket.Gitlab.IssueIID == nil {
		return nil
	}
	var issue gitlabIssue
	path := fmt.Sprintf("/api/v4/projects/%s/issues/%d", s.cfg.ProjectID, *ticket.Gitlab.IssueIID)
	if err := s.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return err
	}
	link := linkFromIssue(issue)
	if err := s.tickets.UpdateGitlabLink(ctx, ticket.ID, link); err != nil {
		return err
	}
	ticket.Gitlab = link
	return nil
}

// RefreshLinked walks all open-linked tickets. Used by the periodic sync.
func (s *GitlabService) RefreshLinked(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	tickets, err := s.tickets.ListGitlabLinked(ctx, 100)
	if err != nil {
		return err
	}
	for i := range tickets {
		if err := s.RefreshTicket(ctx, &tickets[i]); err != nil {
			s.logger.Warn("gitlab refresh failed",
				zap.String("ticket_id", tickets[i].ID), zap.Error(err))
		}
	}
	return nil
}

// HandleWebhook ingests an issue event. Known issues get their state updated;
// unknown opened issues become development-stage tickets owned by the oldest
// admin account.
func (s *GitlabService) HandleWebhook(ctx context.Context, token string, payload WebhookIssue) error {
	if s.cfg.WebhookToken == "" || token != s.cfg.WebhookToken {
		return apperrors.NewUnauthorized("invalid webhook token")
	}
	if payload.ObjectKind != "issue" {
		return nil
	}
	attrs := payload.Attributes

	ticket, err := s.tickets.GetByGitlabIssue(ctx, attrs.ID, attrs.IID)
	if err == nil {
		link := ticket.Gitlab
		link.IssueID = &attrs.ID
		link.IssueIID = &attrs.IID
		if attrs.URL != "" {
			url := attrs.URL
			link.URL = &url
		}
		state := attrs.State
		link.State = &state
		now := time.Now()
		link.SyncedAt = &now
		if err := s.tickets.UpdateGitlabLink(ctx, ticket.ID, link); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	if attrs.Action != "open" {
		return nil
	}

	owner, err := s.users.GetDefaultGitlabOwner(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	now := time.Now()
	state := attrs.State
	url := attrs.URL
	created := &domain.Ticket{
		RequesterID:  owner.ID,
		Title:        strings.TrimSpace(attrs.Title),
		Description:  attrs.Description,
		Status:       domain.StatusApprovedB,
		RequestTypes: []domain.RequestType{domain.RequestTypeGitlabIssue},
		RequesterOrg: owner.Organization,
		Priority:     domain.PriorityNormal,
		Gitlab: domain.GitlabLink{
			IssueID:  &attrs.ID,
			IssueIID: &attrs.IID,
			URL:      &url,
			State:    &state,
			SyncedAt: &now,
		},
	}
	if err := s.tickets.Create(ctx, created); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tickets.UpdateGitlabLink(ctx, created.ID, created.Gitlab); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("ticket created from gitlab issue",
		zap.String("ticket_id", created.ID), zap.Int64("issue_iid", attrs.IID))
	return nil
}

func (s *GitlabService) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", s.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gitlab: %s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func linkFromIssue(issue gitlabIssue) domain.GitlabLink {
	now := time.Now()
	url := issue.WebURL
	state := issue.State
	return domain.GitlabLink{
		IssueID:  &issue.ID,
		IssueIID: &issue.IID,
		URL:      &url,
		State:    &state,
		SyncedAt: &now,
	}
}
