package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/pkg/config"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
)

type referenceStore interface {
	Regions(ctx context.Context) ([]models.Region, error)
	RegionByID(ctx context.Context, id int64) (*models.Region, error)
	Districts(ctx context.Context, regionID *int64) ([]models.District, error)
	DistrictByID(ctx context.Context, id int64) (*models.District, error)
	Organizations(ctx context.Context) ([]models.Organization, error)
}

// ReferenceService serves the administrative lookup tables behind a
// cache. The data changes rarely; a short TTL keeps edits visible
// without hammering the database.
type ReferenceService struct {
	repo   referenceStore
	cache  *CacheService
	cfg    config.ReferenceConfig
	logger *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(repo referenceStore, cache *CacheService, cfg config.ReferenceConfig, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// Regions returns every region.
func (s *ReferenceService) Regions(ctx context.Context) ([]models.Region, error) {
	const key = "reference:regions"
	var regions []models.Region
	if hit, _ := s.cache.Get(ctx, key, &regions); hit {
		return regions, nil
	}
	regions, err := s.repo.Regions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load regions")
	}
	if err := s.cache.Set(ctx, key, regions, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("failed to cache regions", zap.Error(err))
	}
	return regions, nil
}

// Districts returns districts, optionally narrowed to a region.
func (s *ReferenceService) Districts(ctx context.Context, regionID *int64) ([]models.District, error) {
	key := "reference:districts"
	if regionID != nil {
		key = fmt.Sprintf("reference:districts:%d", *regionID)
	}
	var districts []models.District
	if hit, _ := s.cache.Get(ctx, key, &districts); hit {
		return districts, nil
	}
	districts, err := s.repo.Districts(ctx, regionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load districts")
	}
	if err := s.cache.Set(ctx, key, districts, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("failed to cache districts", zap.Error(err))
	}
	return districts, nil
}

// Organizations returns the known applicant and government bodies.
func (s *ReferenceService) Organizations(ctx context.Context) ([]models.Organization, error) {
	const key = "reference:organizations"
	var orgs []models.Organization
	if hit, _ := s.cache.Get(ctx, key, &orgs); hit {
		return orgs, nil
	}
	orgs, err := s.repo.Organizations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organizations")
	}
	if err := s.cache.Set(ctx, key, orgs, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("failed to cache organizations", zap.Error(err))
	}
	return orgs, nil
}

// Enrich resolves a user's region and district names for display.
func (s *ReferenceService) Enrich(ctx context.Context, user *models.User) map[string]string {
	enrichment := make(map[string]string)
	if user == nil {
		return enrichment
	}
	if user.RegionID != nil {
		if region, err := s.repo.RegionByID(ctx, *user.RegionID); err == nil {
			enrichment["region"] = region.Name
		} else if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("failed to resolve region", zap.Int64("region_id", *user.RegionID), zap.Error(err))
		}
	}
	if user.DistrictID != nil {
		if district, err := s.repo.DistrictByID(ctx, *user.DistrictID); err == nil {
			enrichment["district"] = district.Name
		} else if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("failed to resolve district", zap.Int64("district_id", *user.DistrictID), zap.Error(err))
		}
	}
	return enrichment
}
