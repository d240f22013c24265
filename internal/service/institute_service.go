package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/internal/notifier"
	"github.com/noah-isme/ssp-workflow-api/internal/repository"
	"github.com/noah-isme/ssp-workflow-api/pkg/config"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// applicationStore is the narrow persistence surface the gatekeepers need.
type applicationStore interface {
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
	CommitWorkflow(ctx context.Context, app *models.Application, expected models.ApplicationStatus, guards repository.WorkflowGuards, entries []models.DecisionLogEntry) error
}

// instituteReviewable is the stage-1 entry precondition.
var instituteReviewable = map[models.ApplicationStatus]bool{
	models.StatusSubmitted:            true,
	models.StatusUnderReview:          true,
	models.StatusDocumentVerification: true,
	models.StatusEligibilityCheck:     true,
}

// InstituteService is the stage-1 gatekeeper: it drives the lifecycle
// machine for institute reviewers and records the InstituteDecision.
type InstituteService struct {
	repo    applicationStore
	cache   *CacheService
	metrics *MetricsService
	events  notifier.Events
	logger  *zap.Logger
	cfg     config.WorkflowConfig
}

// NewInstituteService constructs the service.
func NewInstituteService(repo applicationStore, cache *CacheService, metrics *MetricsService, events notifier.Events, logger *zap.Logger, cfg config.WorkflowConfig) *InstituteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstituteService{repo: repo, cache: cache, metrics: metrics, events: events, logger: logger, cfg: cfg}
}

// Review applies one institute action to one application. The status
// write, stage columns and log entries commit in a single atomic unit; a
// concurrent reviewer loses with ALREADY_PROCESSED.
func (s *InstituteService) Review(ctx context.Context, applicationID string, req dto.InstituteReviewRequest, actor models.Actor) (*models.Application, error) {
	target, logAction, err := instituteTarget(req.Action)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if actor.Role == models.RoleInstituteAdmin && actor.InstituteID != app.InstituteID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another institute")
	}
	if !instituteReviewable[app.Status] {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "application cannot be reviewed in status "+string(app.Status))
	}

	now := time.Now().UTC()
	expected := app.Status
	remarks := req.Remarks

	var amount *decimal.Decimal
	switch req.Action {
	case dto.ActionApprove:
		approved := app.AmountRequested
		if req.ApprovedAmount != nil {
			approved = *req.ApprovedAmount
		}
		if !approved.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approved amount must be positive")
		}
		if s.cfg.EnforceApprovedCap && approved.GreaterThan(app.AmountRequested) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approved amount exceeds requested amount")
		}
		if approved.LessThan(app.AmountRequested) {
			target = models.StatusPartiallyApproved
		}
		amount = &approved
		app.AmountApproved = &approved
		app.InstituteDecided = true
		app.InstituteApproved = true
		app.InstituteActorID = &actor.UserID
		app.InstituteRemarks = &remarks
		app.InstituteDecidedAt = &now
	case dto.ActionReject:
		app.InstituteDecided = true
		app.InstituteApproved = false
		app.InstituteActorID = &actor.UserID
		app.InstituteRemarks = &remarks
		app.InstituteDecidedAt = &now
	}

	path, err := models.PathTo(app.Status, target)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, err.Error())
	}

	entries := make([]models.DecisionLogEntry, 0, len(path))
	for _, hop := range path {
		app.StampStatus(hop, now)
		entry := models.DecisionLogEntry{
			ApplicationID: app.ApplicationID,
			Stage:         models.StageInstitute,
			ActorID:       actor.UserID,
			CreatedAt:     now,
		}
		if hop == target {
			entry.Action = logAction
			entry.Remarks = &remarks
			entry.Amount = amount
		} else {
			entry.Action = models.ActionStartReview
		}
		entries = append(entries, entry)
	}

	if err := s.repo.CommitWorkflow(ctx, app, expected, repository.WorkflowGuards{}, entries); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "application was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit review")
	}

	s.afterCommit(ctx, app, logAction, path)
	return app, nil
}

// BulkReview applies one action across many applications. Each item is its
// own atomic unit; one failure never aborts the rest.
func (s *InstituteService) BulkReview(ctx context.Context, req dto.BulkInstituteReviewRequest, actor models.Actor) models.BatchResult {
	var result models.BatchResult
	single := dto.InstituteReviewRequest{
		Action:         req.Action,
		Remarks:        req.Remarks,
		ApprovedAmount: req.ApprovedAmount,
	}
	for _, id := range req.ApplicationIDs {
		app, err := s.Review(ctx, id, single, actor)
		if err != nil {
			appErr := appErrors.FromError(err)
			result.Append(models.BatchItem{
				ID:        id,
				Status:    models.BatchItemFailed,
				ErrorCode: appErr.Code,
				Message:   appErr.Message,
			})
			continue
		}
		result.Append(models.BatchItem{
			ID:     id,
			Status: models.BatchItemSuccess,
			Amount: app.AmountApproved,
		})
	}
	return result
}

func (s *InstituteService) afterCommit(ctx context.Context, app *models.Application, action string, path []models.ApplicationStatus) {
	if s.metrics != nil {
		s.metrics.RecordDecision(string(models.StageInstitute), action)
		for _, hop := range path {
			s.metrics.RecordTransition(string(hop))
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, applicationCacheKey(app.ApplicationID))
	}
	if s.events != nil {
		switch app.Status {
		case models.StatusApproved, models.StatusPartiallyApproved:
			s.events.ApplicationApproved(ctx, app)
		case models.StatusRejected:
			s.events.ApplicationRejected(ctx, app)
		}
	}
	s.logger.Info("institute review committed",
		zap.String("application_id", app.ApplicationID),
		zap.String("action", action),
		zap.String("status", string(app.Status)),
	)
}

func instituteTarget(action string) (models.ApplicationStatus, string, error) {
	switch action {
	case dto.ActionApprove:
		return models.StatusApproved, models.ActionApprove, nil
	case dto.ActionReject:
		return models.StatusRejected, models.ActionReject, nil
	case dto.ActionRequestDocuments:
		return models.StatusDocumentVerification, models.ActionRequestDocuments, nil
	case dto.ActionHold:
		return models.StatusOnHold, models.ActionHold, nil
	default:
		return "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported review action: "+action)
	}
}

func applicationCacheKey(applicationID string) string {
	return "application:view:" + applicationID
}
