package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SchoolRepository interface {
	List(ctx context.Context) ([]domain.School, error)
	GetByID(ctx context.Context, id int64) (*domain.School, error)
}

type PGSchoolRepository struct {
	db *pgxpool.Pool
}

func NewSchoolRepository(db *pgxpool.Pool) SchoolRepository {
	return &PGSchoolRepository{db: db}
}

func (r *PGSchoolRepository) List(ctx context.Context) ([]domain.School, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, address, image_name, land_area, created_at, updated_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := make([]domain.School, 0)
	for rows.Next() {
		var s domain.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.ImageName, &s.LandArea, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *PGSchoolRepository) GetByID(ctx context.Context, id int64) (*domain.School, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, address, image_name, land_area, created_at, updated_at FROM schools WHERE id=$1`, id)
	var s domain.School
	if err := row.Scan(&s.ID, &s.Name, &s.Address, &s.ImageName, &s.LandArea, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("school %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

var _ SchoolRepository = (*PGSchoolRepository)(nil)
