package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/pkg/config"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// decisionLogReader reads the append-only audit ledger.
type decisionLogReader interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.DecisionLogEntry, error)
}

// ApplicationService serves the read model: cached application views and
// the decision ledger.
type ApplicationService struct {
	repo      applicationReader
	decisions decisionLogReader
	cache     *CacheService
	logger    *zap.Logger
	cfg       config.WorkflowConfig
}

// NewApplicationService constructs the service.
func NewApplicationService(repo applicationReader, decisions decisionLogReader, cache *CacheService, logger *zap.Logger, cfg config.WorkflowConfig) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, decisions: decisions, cache: cache, logger: logger, cfg: cfg}
}

// Get returns the application view, served from cache when possible. The
// overdue flag is derived at read time and never persisted.
func (s *ApplicationService) Get(ctx context.Context, applicationID string, actor models.Actor) (*dto.ApplicationView, error) {
	key := applicationCacheKey(applicationID)
	if s.cache != nil {
		var cached dto.ApplicationView
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			if err := s.authorizeView(&cached, actor); err != nil {
				return nil, err
			}
			return &cached, nil
		}
	}

	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	view := dto.NewApplicationView(app, time.Now().UTC(), s.cfg.OverdueAfter)
	if err := s.authorizeView(&view, actor); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, view)
	}
	return &view, nil
}

// ListDecisions returns the full audit trail for an application, oldest
// entry first.
func (s *ApplicationService) ListDecisions(ctx context.Context, applicationID string, actor models.Actor) ([]models.DecisionLogEntry, error) {
	if _, err := s.Get(ctx, applicationID, actor); err != nil {
		return nil, err
	}
	entries, err := s.decisions.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load decision log")
	}
	return entries, nil
}

func (s *ApplicationService) authorizeView(view *dto.ApplicationView, actor models.Actor) error {
	switch actor.Role {
	case models.RoleInstituteAdmin:
		if actor.InstituteID != view.InstituteID {
			return appErrors.Clone(appErrors.ErrForbidden, "application belongs to another institute")
		}
	case models.RoleDepartmentAdmin:
		if actor.DepartmentID != view.DepartmentID {
			return appErrors.Clone(appErrors.ErrForbidden, "application belongs to another department")
		}
	}
	return nil
}
