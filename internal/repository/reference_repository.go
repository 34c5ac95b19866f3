package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tanroads/rrs-api/internal/models"
)

// ReferenceRepository reads the administrative lookup tables.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a new instance of ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Regions returns all regions ordered by name.
func (r *ReferenceRepository) Regions(ctx context.Context) ([]models.Region, error) {
	const query = `SELECT id, code, name FROM regions ORDER BY name ASC`
	var regions []models.Region
	if err := r.db.SelectContext(ctx, &regions, query); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// RegionByID returns a single region.
func (r *ReferenceRepository) RegionByID(ctx context.Context, id int64) (*models.Region, error) {
	const query = `SELECT id, code, name FROM regions WHERE id = $1`
	var region models.Region
	if err := r.db.GetContext(ctx, &region, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get region %d: %w", id, err)
	}
	return &region, nil
}

// Districts returns districts, optionally limited to a region.
func (r *ReferenceRepository) Districts(ctx context.Context, regionID *int64) ([]models.District, error) {
	query := `SELECT id, region_id, code, name FROM districts`
	var args []interface{}
	if regionID != nil {
		query += ` WHERE region_id = $1`
		args = append(args, *regionID)
	}
	query += ` ORDER BY name ASC`

	var districts []models.District
	if err := r.db.SelectContext(ctx, &districts, query, args...); err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}

// DistrictByID returns a single district.
func (r *ReferenceRepository) DistrictByID(ctx context.Context, id int64) (*models.District, error) {
	const query = `SELECT id, region_id, code, name FROM districts WHERE id = $1`
	var district models.District
	if err := r.db.GetContext(ctx, &district, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get district %d: %w", id, err)
	}
	return &district, nil
}

// Organizations returns all known applicant and government bodies.
func (r *ReferenceRepository) Organizations(ctx context.Context) ([]models.Organization, error) {
	const query = `SELECT id, code, name, organization_type, region_id FROM organizations ORDER BY name ASC`
	var orgs []models.Organization
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}
