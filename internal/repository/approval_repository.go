package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// ErrDuplicateApproval signals the (ticket, role) unique index fired: the
// stage was already recorded, likely a double submit.
var ErrDuplicateApproval = errors.New("approval already recorded for role")

// ErrStageConflict signals the conditional status update matched no row: a
// concurrent approval advanced the ticket first.
var ErrStageConflict = errors.New("ticket status changed concurrently")

// ApprovalWithUser decorates an approval with the approver's display fields.
type ApprovalWithUser struct {
	domain.Approval
	UserName string
	UserRole domain.Role
}

// ApprovalRepository persists the append-only approval audit trail and owns
// the only write path for ticket approval status.
type ApprovalRepository interface {
	// RecordAndAdvance atomically inserts the approval record and moves the
	// ticket from fromStatus to toStatus. Returns ErrDuplicateApproval when
	// the stage was already recorded and ErrStageConflict when the ticket is
	// no longer in fromStatus.
	RecordAndAdvance(ctx context.Context, approval *domain.Approval, fromStatus, toStatus domain.ApprovalStatus) error
	// Create inserts a bare approval record without touching ticket status.
	// Used for the requester's own submission signature.
	Create(ctx context.Context, approval *domain.Approval) error
	ExistsForRole(ctx context.Context, ticketID string, role domain.Role) (bool, error)
	ListByTicket(ctx context.Context, ticketID string) ([]ApprovalWithUser, error)
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository builds the repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

const insertApprovalQuery = `
    INSERT INTO approvals (ticket_id, user_id, role, sign_code_hash, note)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, approved_at`

func (r *approvalRepository) RecordAndAdvance(ctx context.Context, approval *domain.Approval, fromStatus, toStatus domain.ApprovalStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx, insertApprovalQuery,
		approval.TicketID,
		approval.UserID,
		int(approval.Role),
		approval.SignCodeHash,
		approval.Note,
	).Scan(&approval.ID, &approval.ApprovedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateApproval
		}
		return err
	}

	// Conditional update: losing a race to another approval leaves zero rows.
	cmd, err := tx.Exec(ctx,
		`UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		string(toStatus), approval.TicketID, string(fromStatus))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStageConflict
	}

	return tx.Commit(ctx)
}

func (r *approvalRepository) Create(ctx context.Context, approval *domain.Approval) error {
	err := r.pool.QueryRow(ctx, insertApprovalQuery,
		approval.TicketID,
		approval.UserID,
		int(approval.Role),
		approval.SignCodeHash,
		approval.Note,
	).Scan(&approval.ID, &approval.ApprovedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateApproval
	}
	return err
}

func (r *approvalRepository) ExistsForRole(ctx context.Context, ticketID string, role domain.Role) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM approvals WHERE ticket_id=$1 AND role=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID, int(role)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *approvalRepository) ListByTicket(ctx context.Context, ticketID string) ([]ApprovalWithUser, error) {
	const query = `
        SELECT a.id, a.ticket_id, a.user_id, a.role, a.sign_code_hash, a.note, a.approved_at,
               u.name, u.role
        FROM approvals a
        JOIN users u ON u.id = a.user_id
        WHERE a.ticket_id = $1
        ORDER BY a.approved_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ApprovalWithUser
	for rows.Next() {
		var (
			entry    ApprovalWithUser
			role     int16
			userRole int16
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&role,
			&entry.SignCodeHash,
			&entry.Note,
			&entry.ApprovedAt,
			&entry.UserName,
			&userRole,
		); err != nil {
			return nil, err
		}
		entry.Role = domain.Role(role)
		entry.UserRole = domain.Role(userRole)
		result = append(result, entry)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
