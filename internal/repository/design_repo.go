package repository

import (
	"context"
	"errors"
	"fmt"

	"designmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DesignRepository persists uploaded designs.
type DesignRepository interface {
	CreateDesign(ctx context.Context, d *model.Design) error
	GetDesignByID(ctx context.Context, id string) (*model.Design, error)
	UpdateDesign(ctx context.Context, d *model.Design) error
	DeleteDesign(ctx context.Context, id string) error
	// ListApproved returns approved designs, optionally filtered by
	// category, newest first.
	ListApproved(ctx context.Context, category string, limit, offset int) ([]model.Design, error)
	// IncrementDownloads bumps the download counter after a successful
	// credit debit.
	IncrementDownloads(ctx context.Context, id string) error
}

type designRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDesignRepo creates a new DesignRepository.
func NewDesignRepo(pool *pgxpool.Pool, logger zerolog.Logger) DesignRepository {
	return &designRepo{pool: pool, logger: logger}
}

const designColumns = `id, designer_id, title, category, storage_path, status, downloads, created_at, updated_at`

func (r *designRepo) CreateDesign(ctx context.Context, d *model.Design) error {
	const q = `
        INSERT INTO designs (designer_id, title, category, storage_path, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + designColumns
	err := r.pool.QueryRow(ctx, q, d.DesignerID, d.Title, d.Category, d.StoragePath, d.Status).
		Scan(&d.ID, &d.DesignerID, &d.Title, &d.Category, &d.StoragePath, &d.Status, &d.Downloads, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating design for designer %s: %w", d.DesignerID, err)
	}
	return nil
}

func (r *designRepo) GetDesignByID(ctx context.Context, id string) (*model.Design, error) {
	const q = `SELECT ` + designColumns + ` FROM designs WHERE id = $1`
	var d model.Design
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&d.ID, &d.DesignerID, &d.Title, &d.Category, &d.StoragePath, &d.Status, &d.Downloads, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching design %s: %w", id, err)
	}
	return &d, nil
}

func (r *designRepo) UpdateDesign(ctx context.Context, d *model.Design) error {
	const q = `
        UPDATE designs
        SET title = $2, category = $3, storage_path = $4, status = $5, updated_at = NOW()
        WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, d.ID, d.Title, d.Category, d.StoragePath, d.Status)
	if err != nil {
		return fmt.Errorf("updating design %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating design %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

func (r *designRepo) DeleteDesign(ctx context.Context, id string) error {
	const q = `DELETE FROM designs WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("deleting design %s: %w", id, err)
	}
	return nil
}

func (r *designRepo) ListApproved(ctx context.Context, category string, limit, offset int) ([]model.Design, error) {
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
        SELECT ` + designColumns + `
        FROM designs
        WHERE status = 'approved' AND ($1 = '' OR category = $1)
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing approved designs: %w", err)
	}
	defer rows.Close()
	var designs []model.Design
	for rows.Next() {
		var d model.Design
		if err := rows.Scan(&d.ID, &d.DesignerID, &d.Title, &d.Category, &d.StoragePath, &d.Status, &d.Downloads, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning design: %w", err)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating designs: %w", err)
	}
	return designs, nil
}

func (r *designRepo) IncrementDownloads(ctx context.Context, id string) error {
	const q = `UPDATE designs SET downloads = downloads + 1, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		r.logger.Error().Err(err).Str("design_id", id).Msg("Failed to increment download counter")
		return fmt.Errorf("incrementing downloads for design %s: %w", id, err)
	}
	return nil
}
