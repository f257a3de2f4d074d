package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// UnitRepository manages unit persistence.
type UnitRepository interface {
	Create(ctx context.Context, unit *domain.Unit) error
	Update(ctx context.Context, unit *domain.Unit) error
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	List(ctx context.Context, limit, offset int) ([]domain.Unit, error)
	ListActive(ctx context.Context) ([]domain.Unit, error)
	HasUsers(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type unitRepository struct {
	pool *pgxpool.Pool
}

// NewUnitRepository builds the repository.
func NewUnitRepository(pool *pgxpool.Pool) UnitRepository {
	return &unitRepository{pool: pool}
}

const unitColumns = `id, name, organization, manager_category_id, is_active, created_at, updated_at`

func (r *unitRepository) Create(ctx context.Context, unit *domain.Unit) error {
	const query = `
        INSERT INTO units (name, organization, manager_category_id, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		unit.Name,
		unit.Organization,
		categoryValue(unit.ManagerCategory),
		unit.IsActive,
	).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
}

func (r *unitRepository) Update(ctx context.Context, unit *domain.Unit) error {
	const query = `
        UPDATE units SET name=$1, organization=$2, manager_category_id=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		unit.Name,
		unit.Organization,
		categoryValue(unit.ManagerCategory),
		unit.IsActive,
		unit.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanUnitRow(row)
}

func (r *unitRepository) List(ctx context.Context, limit, offset int) ([]domain.Unit, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + unitColumns + ` FROM units ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepository) ListActive(ctx context.Context) ([]domain.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE is_active = TRUE ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepository) HasUsers(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE unit_id=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *unitRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM units WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUnitRow(row rowScanner) (*domain.Unit, error) {
	var (
		unit       domain.Unit
		categoryID *int16
	)
	if err := row.Scan(
		&unit.ID,
		&unit.Name,
		&unit.Organization,
		&categoryID,
		&unit.IsActive,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if categoryID != nil {
		category := domain.ManagerCategory(*categoryID)
		unit.ManagerCategory = &category
	}
	return &unit, nil
}

func scanUnits(rows pgx.Rows) ([]domain.Unit, error) {
	var result []domain.Unit
	for rows.Next() {
		unit, err := scanUnitRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *unit)
	}
	return result, rows.Err()
}
