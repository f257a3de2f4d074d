package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// TicketFilter captures list predicates. The visibility rules in the service
// layer compile down to combinations of these fields.
type TicketFilter struct {
	// RequesterID restricts to tickets authored by one user.
	RequesterID *string
	// ManagerCategory restricts to tickets whose own category matches, or
	// whose category is unset and the requester unit's category matches.
	ManagerCategory *domain.ManagerCategory
	// ExcludeOrganization drops tickets snapshotted to the given org. Used
	// for a Raffa director while the Wiradadi skip toggle is on.
	ExcludeOrganization *domain.Organization
	Statuses            []domain.ApprovalStatus
	// ActiveDevelopment selects approved_b tickets not yet at the release
	// gate; CompletedDevelopment selects done tickets plus approved_b tickets
	// at or past it. The two are the monitoring buckets.
	ActiveDevelopment    bool
	CompletedDevelopment bool
	Limit                int
	Offset               int
}

// TicketRepository encapsulates ticket persistence. Approval-chain writes are
// deliberately absent here: they only happen through
// ApprovalRepository.RecordAndAdvance. MarkDone is the one exception, the
// development workflow's terminal transition out of approved_b.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// MarkDone conditionally moves an approved_b ticket to done. Returns
	// pgx.ErrNoRows when the ticket is missing or not at approved_b.
	MarkDone(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByGitlabIssue(ctx context.Context, issueID, issueIID int64) (*domain.Ticket, error)
	// ListGitlabLinked returns tickets carrying an issue link whose remote
	// state is not terminal, oldest sync first.
	ListGitlabLinked(ctx context.Context, limit int) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error
	UpdateDevelopmentStatus(ctx context.Context, id string, status domain.DevelopmentStatus) error
	UpdateRelease(ctx context.Context, id string, status domain.ReleaseStatus, date time.Time, setBy string) error
	UpdateGitlabLink(ctx context.Context, id string, link domain.GitlabLink) error
	UpdateContent(ctx context.Context, id, title, description string) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, requester_user_id, title, description, status, request_types,
       requester_organization, requester_unit_id, manager_category_id,
       development_status, release_status, release_date, release_set_by,
       priority, attachment_path, attachment_name,
       gitlab_issue_id, gitlab_issue_iid, gitlab_issue_url, gitlab_issue_state, gitlab_synced_at,
       created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (requester_user_id, title, description, status, request_types,
            requester_organization, requester_unit_id, manager_category_id,
            development_status, priority, attachment_path, attachment_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.RequesterID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		requestTypeStrings(ticket.RequestTypes),
		ticket.RequesterOrg,
		ticket.RequesterUnitID,
		categoryValue(ticket.ManagerCategory),
		devStatusValue(ticket.DevelopmentStatus),
		ticket.Priority,
		ticket.AttachmentPath,
		ticket.AttachmentName,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) GetByGitlabIssue(ctx context.Context, issueID, issueIID int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE gitlab_issue_id=$1 OR gitlab_issue_iid=$2
        ORDER BY created_at LIMIT 1`
	row := r.pool.QueryRow(ctx, query, issueID, issueIID)
	return scanTicketRow(row)
}

func (r *ticketRepository) ListGitlabLinked(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE gitlab_issue_iid IS NOT NULL
          AND (gitlab_issue_state IS NULL OR gitlab_issue_state <> 'closed')
        ORDER BY gitlab_synced_at NULLS FIRST
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + prefixColumns("t", ticketColumns) + ` FROM tickets t`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ManagerCategory != nil {
		// Null-category tickets fall back to the requester unit's mapping.
		base += ` LEFT JOIN units u ON u.id = t.requester_unit_id`
		args = append(args, int(*filter.ManagerCategory))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(t.manager_category_id = %s OR (t.manager_category_id IS NULL AND u.manager_category_id = %s))",
			placeholder, placeholder))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("t.requester_user_id = $%d", len(args)))
	}
	if filter.ExcludeOrganization != nil {
		args = append(args, string(*filter.ExcludeOrganization))
		clauses = append(clauses, fmt.Sprintf("t.requester_organization <> $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ActiveDevelopment {
		clauses = append(clauses,
			"t.status = 'approved_b' AND (t.development_status IS NULL OR t.development_status < 4)")
	}
	if filter.CompletedDevelopment {
		clauses = append(clauses,
			"(t.status = 'done' OR (t.status = 'approved_b' AND t.development_status >= 4))")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkDone(ctx context.Context, id string) error {
	return r.execSingle(ctx,
		`UPDATE tickets SET status='done', updated_at=NOW() WHERE id=$1 AND status='approved_b'`, id)
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, id string, priority domain.TicketPriority) error {
	return r.execSingle(ctx,
		`UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id=$2`, priority, id)
}

func (r *ticketRepository) UpdateDevelopmentStatus(ctx context.Context, id string, status domain.DevelopmentStatus) error {
	return r.execSingle(ctx,
		`UPDATE tickets SET development_status=$1, updated_at=NOW() WHERE id=$2`, int(status), id)
}

func (r *ticketRepository) UpdateRelease(ctx context.Context, id string, status domain.ReleaseStatus, date time.Time, setBy string) error {
	return r.execSingle(ctx,
		`UPDATE tickets SET release_status=$1, release_date=$2, release_set_by=$3, updated_at=NOW() WHERE id=$4`,
		int(status), date, setBy, id)
}

func (r *ticketRepository) UpdateGitlabLink(ctx context.Context, id string, link domain.GitlabLink) error {
	return r.execSingle(ctx, `
        UPDATE tickets SET gitlab_issue_id=$1, gitlab_issue_iid=$2, gitlab_issue_url=$3,
            gitlab_issue_state=$4, gitlab_synced_at=$5, updated_at=NOW()
        WHERE id=$6`,
		link.IssueID, link.IssueIID, link.URL, link.State, link.SyncedAt, id)
}

func (r *ticketRepository) UpdateContent(ctx context.Context, id, title, description string) error {
	return r.execSingle(ctx,
		`UPDATE tickets SET title=$1, description=$2, updated_at=NOW() WHERE id=$3`,
		title, description, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return r.execSingle(ctx, `DELETE FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) execSingle(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		requestTypes []string
		categoryID   *int16
		devStatus    *int16
		relStatus    *int16
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&requestTypes,
		&ticket.RequesterOrg,
		&ticket.RequesterUnitID,
		&categoryID,
		&devStatus,
		&relStatus,
		&ticket.ReleaseDate,
		&ticket.ReleaseSetBy,
		&ticket.Priority,
		&ticket.AttachmentPath,
		&ticket.AttachmentName,
		&ticket.Gitlab.IssueID,
		&ticket.Gitlab.IssueIID,
		&ticket.Gitlab.URL,
		&ticket.Gitlab.State,
		&ticket.Gitlab.SyncedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.RequestTypes = toRequestTypes(requestTypes)
	if categoryID != nil {
		category := domain.ManagerCategory(*categoryID)
		ticket.ManagerCategory = &category
	}
	if devStatus != nil {
		status := domain.DevelopmentStatus(*devStatus)
		ticket.DevelopmentStatus = &status
	}
	if relStatus != nil {
		status := domain.ReleaseStatus(*relStatus)
		ticket.ReleaseStatus = &status
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func requestTypeStrings(types []domain.RequestType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func toRequestTypes(values []string) []domain.RequestType {
	out := make([]domain.RequestType, 0, len(values))
	for _, v := range values {
		out = append(out, domain.RequestType(v))
	}
	return out
}

func categoryValue(category *domain.ManagerCategory) *int16 {
	if category == nil {
		return nil
	}
	v := int16(*category)
	return &v
}

func devStatusValue(status *domain.DevelopmentStatus) *int16 {
	if status == nil {
		return nil
	}
	v := int16(*status)
	return &v
}
