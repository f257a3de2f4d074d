package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

type fakeUnitRepo struct {
	units map[string]*domain.Unit
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{units: map[string]*domain.Unit{}}
}

func (r *fakeUnitRepo) Create(_ context.Context, unit *domain.Unit) error {
	if unit.ID == "" {
		unit.ID = fmt.Sprintf("unit-%d", len(r.units)+1)
	}
	unit.CreatedAt = time.Now()
	unit.UpdatedAt = unit.CreatedAt
	copied := *unit
	r.units[unit.ID] = &copied
	return nil
}

func (r *fakeUnitRepo) Update(_ context.Context, unit *domain.Unit) error {
	if _, ok := r.units[unit.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *unit
	r.units[unit.ID] = &copied
	return nil
}

func (r *fakeUnitRepo) GetByID(_ context.Context, id string) (*domain.Unit, error) {
	unit, ok := r.units[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *unit
	return &copied, nil
}

func (r *fakeUnitRepo) List(_ context.Context, _, _ int) ([]domain.Unit, error) {
	out := make([]domain.Unit, 0, len(r.units))
	for _, unit := range r.units {
		out = append(out, *unit)
	}
	return out, nil
}

func (r *fakeUnitRepo) ListActive(ctx context.Context) ([]domain.Unit, error) {
	all, _ := r.List(ctx, 0, 0)
	out := make([]domain.Unit, 0, len(all))
	for _, unit := range all {
		if unit.IsActive {
			out = append(out, unit)
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) HasUsers(_ context.Context, _ string) (bool, error) { return false, nil }

func (r *fakeUnitRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.units[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.units, id)
	return nil
}

type fakeTicketRepo struct {
	units   *fakeUnitRepo
	tickets map[string]*domain.Ticket
	seq     int
}

func newFakeTicketRepo(units *fakeUnitRepo) *fakeTicketRepo {
	return &fakeTicketRepo{units: units, tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) MarkDone(_ context.Context, id string) error {
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != domain.StatusApprovedB {
		return pgx.ErrNoRows
	}
	ticket.Status = domain.StatusDone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByGitlabIssue(_ context.Context, issueID, issueIID int64) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.Gitlab.IssueID != nil && *ticket.Gitlab.IssueID == issueID {
			copied := *ticket
			return &copied, nil
		}
		if ticket.Gitlab.IssueIID != nil && *ticket.Gitlab.IssueIID == issueIID {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListGitlabLinked(_ context.Context, _ int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Gitlab.IssueIID != nil {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

// ListWithFilter mirrors the SQL predicates, including the unit fallback for
// null-category tickets.
func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.ManagerCategory != nil {
			category := ticket.ManagerCategory
			if category == nil && ticket.RequesterUnitID != nil {
				if unit, err := r.units.GetByID(ctx, *ticket.RequesterUnitID); err == nil {
					category = unit.ManagerCategory
				}
			}
			if category == nil || *category != *filter.ManagerCategory {
				continue
			}
		}
		if filter.ExcludeOrganization != nil && ticket.RequesterOrg == *filter.ExcludeOrganization {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.ActiveDevelopment {
			if ticket.Status != domain.StatusApprovedB {
				continue
			}
			if ticket.DevelopmentStatus != nil && *ticket.DevelopmentStatus >= domain.DevStatusReadyRelease {
				continue
			}
		}
		if filter.CompletedDevelopment {
			completed := ticket.Status == domain.StatusDone ||
				(ticket.Status == domain.StatusApprovedB &&
					ticket.DevelopmentStatus != nil &&
					*ticket.DevelopmentStatus >= domain.DevStatusReadyRelease)
			if !completed {
				continue
			}
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdatePriority(_ context.Context, id string, priority domain.TicketPriority) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Priority = priority
	return nil
}

func (r *fakeTicketRepo) UpdateDevelopmentStatus(_ context.Context, id string, status domain.DevelopmentStatus) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.DevelopmentStatus = &status
	return nil
}

func (r *fakeTicketRepo) UpdateRelease(_ context.Context, id string, status domain.ReleaseStatus, date time.Time, setBy string) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.ReleaseStatus = &status
	ticket.ReleaseDate = &date
	ticket.ReleaseSetBy = &setBy
	return nil
}

func (r *fakeTicketRepo) UpdateGitlabLink(_ context.Context, id string, link domain.GitlabLink) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Gitlab = link
	return nil
}

func (r *fakeTicketRepo) UpdateContent(_ context.Context, id, title, description string) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Title = title
	ticket.Description = description
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type fakeApprovalRepo struct {
	tickets *fakeTicketRepo
	records []domain.Approval
	seq     int
}

func newFakeApprovalRepo(tickets *fakeTicketRepo) *fakeApprovalRepo {
	return &fakeApprovalRepo{tickets: tickets}
}

func (r *fakeApprovalRepo) RecordAndAdvance(ctx context.Context, approval *domain.Approval, fromStatus, toStatus domain.ApprovalStatus) error {
	for _, record := range r.records {
		if record.TicketID == approval.TicketID && record.Role == approval.Role {
			return repository.ErrDuplicateApproval
		}
	}
	ticket, ok := r.tickets.tickets[approval.TicketID]
	if !ok || ticket.Status != fromStatus {
		return repository.ErrStageConflict
	}
	if err := r.Create(ctx, approval); err != nil {
		return err
	}
	ticket.Status = toStatus
	return nil
}

func (r *fakeApprovalRepo) Create(_ context.Context, approval *domain.Approval) error {
	for _, record := range r.records {
		if record.TicketID == approval.TicketID && record.Role == approval.Role {
			return repository.ErrDuplicateApproval
		}
	}
	r.seq++
	approval.ID = fmt.Sprintf("approval-%d", r.seq)
	approval.ApprovedAt = time.Now()
	r.records = append(r.records, *approval)
	return nil
}

func (r *fakeApprovalRepo) ExistsForRole(_ context.Context, ticketID string, role domain.Role) (bool, error) {
	for _, record := range r.records {
		if record.TicketID == ticketID && record.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeApprovalRepo) ListByTicket(_ context.Context, ticketID string) ([]repository.ApprovalWithUser, error) {
	var out []repository.ApprovalWithUser
	for _, record := range r.records {
		if record.TicketID == ticketID {
			out = append(out, repository.ApprovalWithUser{Approval: record})
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) countForTicket(ticketID string, role domain.Role) int {
	count := 0
	for _, record := range r.records {
		if record.TicketID == ticketID && record.Role == role {
			count++
		}
	}
	return count
}

type fakeCommentRepo struct {
	comments []domain.Comment
	seq      int
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]repository.CommentWithUser, error) {
	var out []repository.CommentWithUser
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			out = append(out, repository.CommentWithUser{Comment: comment})
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) AttachmentPaths(_ context.Context, ticketID string) ([]string, error) {
	var out []string
	for _, comment := range r.comments {
		if comment.TicketID == ticketID && comment.AttachmentPath != nil {
			out = append(out, *comment.AttachmentPath)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateSignCode(_ context.Context, id, signCodeHash string) error {
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.SignCodeHash = &signCodeHash
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.InitialPassword = nil
	return nil
}

func (r *fakeUserRepo) ClearInitialPassword(_ context.Context, id string) error {
	if user, ok := r.users[id]; ok {
		user.InitialPassword = nil
	}
	return nil
}

func (r *fakeUserRepo) GetDefaultGitlabOwner(_ context.Context) (*domain.User, error) {
	var oldest *domain.User
	for _, user := range r.users {
		if user.Role != domain.RoleAdmin {
			continue
		}
		if oldest == nil || user.CreatedAt.Before(oldest.CreatedAt) {
			oldest = user
		}
	}
	if oldest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *oldest
	return &copied, nil
}

type fakeRemover struct {
	removed []string
}

func (r *fakeRemover) Remove(relPath string) error {
	r.removed = append(r.removed, relPath)
	return nil
}

func staticPolicy(policy domain.WorkflowPolicy) PolicyProvider {
	return func() domain.WorkflowPolicy { return policy }
}

func signCodeHash(t *testing.T, code string) *string {
	t.Helper()
	hash, err := auth.HashSignCode(code, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash sign code: %v", err)
	}
	return &hash
}

func testUser(id string, role domain.Role, opts ...func(*domain.User)) *domain.User {
	user := &domain.User{
		ID:           id,
		Name:         id,
		Email:        id + "@example.test",
		Role:         role,
		Organization: domain.OrgRaffa,
	}
	for _, opt := range opts {
		opt(user)
	}
	return user
}

func withCategory(category domain.ManagerCategory) func(*domain.User) {
	return func(u *domain.User) { u.ManagerCategory = &category }
}

func withOrganization(org domain.Organization) func(*domain.User) {
	return func(u *domain.User) { u.Organization = org }
}

func withUnit(unitID string) func(*domain.User) {
	return func(u *domain.User) { u.UnitID = &unitID }
}

func withSignCode(hash *string) func(*domain.User) {
	return func(u *domain.User) { u.SignCodeHash = hash }
}

func withVerified() func(*domain.User) {
	return func(u *domain.User) {
		now := time.Now()
		u.VerifiedAt = &now
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr.Code
}

func noopDispatcher() events.Dispatcher {
	return events.NewInMemoryDispatcher()
}
