package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// CommentWithUser decorates a comment with author display fields.
type CommentWithUser struct {
	domain.Comment
	UserName string
	UserRole domain.Role
}

// CommentRepository persists ticket discussion entries.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]CommentWithUser, error)
	// AttachmentPaths returns the stored paths for a ticket's comment
	// attachments so ticket deletion can clean up files.
	AttachmentPaths(ctx context.Context, ticketID string) ([]string, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds the repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, body, attachment_path, attachment_name)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Body,
		comment.AttachmentPath,
		comment.AttachmentName,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]CommentWithUser, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.user_id, c.body, c.attachment_path, c.attachment_name, c.created_at,
               u.name, u.role
        FROM ticket_comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.ticket_id = $1
        ORDER BY c.created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CommentWithUser
	for rows.Next() {
		var (
			entry CommentWithUser
			role  int16
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Body,
			&entry.AttachmentPath,
			&entry.AttachmentName,
			&entry.CreatedAt,
			&entry.UserName,
			&role,
		); err != nil {
			return nil, err
		}
		entry.UserRole = domain.Role(role)
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *commentRepository) AttachmentPaths(ctx context.Context, ticketID string) ([]string, error) {
	const query = `
        SELECT attachment_path FROM ticket_comments
        WHERE ticket_id = $1 AND attachment_path IS NOT NULL`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
