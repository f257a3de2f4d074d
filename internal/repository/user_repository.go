package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateSignCode(ctx context.Context, id, signCodeHash string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ClearInitialPassword(ctx context.Context, id string) error
	GetDefaultGitlabOwner(ctx context.Context) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, phone, password_hash, initial_password, sign_code_hash,
       role, manager_category_id, organization, unit_id, verified_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, initial_password, role,
            manager_category_id, organization, unit_id, verified_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.InitialPassword,
		int(user.Role),
		categoryValue(user.ManagerCategory),
		user.Organization,
		user.UnitID,
		user.VerifiedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, phone=$3, role=$4, manager_category_id=$5,
            organization=$6, unit_id=$7, verified_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		int(user.Role),
		categoryValue(user.ManagerCategory),
		user.Organization,
		user.UnitID,
		user.VerifiedAt,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

// GetDefaultGitlabOwner returns the oldest admin account, which owns tickets
// created from inbound GitLab issues.
func (r *userRepository) GetDefaultGitlabOwner(ctx context.Context) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY created_at LIMIT 1`
	return r.fetchSingle(ctx, query, int(domain.RoleAdmin))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanUserRow(row)
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) UpdateSignCode(ctx context.Context, id, signCodeHash string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET sign_code_hash=$1, updated_at=NOW() WHERE id=$2`, signCodeHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash=$1, initial_password=NULL, updated_at=NOW() WHERE id=$2`,
		passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) ClearInitialPassword(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET initial_password=NULL, updated_at=NOW() WHERE id=$1`, id)
	return err
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		role       int16
		categoryID *int16
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.InitialPassword,
		&user.SignCodeHash,
		&role,
		&categoryID,
		&user.Organization,
		&user.UnitID,
		&user.VerifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	if categoryID != nil {
		category := domain.ManagerCategory(*categoryID)
		user.ManagerCategory = &category
	}
	return &user, nil
}
