package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/internal/notifier"
	"github.com/noah-isme/ssp-workflow-api/internal/repository"
	"github.com/noah-isme/ssp-workflow-api/pkg/config"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// DepartmentService is the stage-2 gatekeeper. It only ever sees
// applications the institute already approved, records the
// DepartmentDecision exactly once, and hands approved batches to finance.
type DepartmentService struct {
	repo    applicationStore
	cache   *CacheService
	metrics *MetricsService
	events  notifier.Events
	logger  *zap.Logger
	cfg     config.WorkflowConfig
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo applicationStore, cache *CacheService, metrics *MetricsService, events notifier.Events, logger *zap.Logger, cfg config.WorkflowConfig) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, cache: cache, metrics: metrics, events: events, logger: logger, cfg: cfg}
}

// Review records the department decision. dept_approve keeps the lifecycle
// status and may revise the amount; dept_reject overrides the application
// to rejected. A second decision on the same application fails with
// ALREADY_PROCESSED regardless of interleaving: the commit carries a
// department_decided = false guard.
func (s *DepartmentService) Review(ctx context.Context, applicationID string, req dto.DepartmentReviewRequest, actor models.Actor) (*models.Application, error) {
	if req.Action != dto.ActionDeptApprove && req.Action != dto.ActionDeptReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported department action: "+req.Action)
	}

	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if actor.Role == models.RoleDepartmentAdmin && actor.DepartmentID != app.DepartmentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another department")
	}
	if app.Status != models.StatusApproved && app.Status != models.StatusPartiallyApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application is not institute-approved")
	}
	if !app.InstituteDecided || !app.InstituteApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "institute approval is missing")
	}
	if app.DepartmentDecided {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "department decision already recorded")
	}

	now := time.Now().UTC()
	expected := app.Status
	remarks := req.Remarks

	app.DepartmentDecided = true
	app.DepartmentActorID = &actor.UserID
	app.DepartmentRemarks = &remarks
	app.DepartmentDecidedAt = &now

	entry := models.DecisionLogEntry{
		ApplicationID: app.ApplicationID,
		Stage:         models.StageDepartment,
		ActorID:       actor.UserID,
		Remarks:       &remarks,
		CreatedAt:     now,
	}

	switch req.Action {
	case dto.ActionDeptApprove:
		final := app.EffectiveAmount()
		if req.FinalAmount != nil {
			final = *req.FinalAmount
		}
		if !final.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "final amount must be positive")
		}
		if s.cfg.EnforceApprovedCap && final.GreaterThan(app.AmountRequested) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "final amount exceeds requested amount")
		}
		app.DepartmentApproved = true
		app.DepartmentFinalAmount = &final
		app.AmountApproved = &final
		app.UpdatedAt = now
		entry.Action = models.ActionDeptApprove
		entry.Amount = &final
	case dto.ActionDeptReject:
		app.DepartmentApproved = false
		// Stage-gate override: an institute-approved application drops back
		// to rejected when the department declines it.
		app.StampStatus(models.StatusRejected, now)
		entry.Action = models.ActionDeptReject
	}

	guards := repository.WorkflowGuards{DepartmentUndecided: true}
	if err := s.repo.CommitWorkflow(ctx, app, expected, guards, []models.DecisionLogEntry{entry}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "department decision already recorded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit department decision")
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(string(models.StageDepartment), entry.Action)
		if req.Action == dto.ActionDeptReject {
			s.metrics.RecordTransition(string(models.StatusRejected))
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, applicationCacheKey(app.ApplicationID))
	}
	if s.events != nil && req.Action == dto.ActionDeptReject {
		s.events.ApplicationRejected(ctx, app)
	}
	s.logger.Info("department decision committed",
		zap.String("application_id", app.ApplicationID),
		zap.String("action", entry.Action),
		zap.String("status", string(app.Status)),
	)
	return app, nil
}

// ForwardToFinance hands department-approved applications to finance under
// a fresh batch identifier. Items commit independently; forwarding the same
// application twice fails that item with ALREADY_PROCESSED while the rest
// of the batch proceeds.
func (s *DepartmentService) ForwardToFinance(ctx context.Context, req dto.ForwardRequest, actor models.Actor) models.BatchResult {
	now := time.Now().UTC()
	result := models.BatchResult{BatchID: models.NewBatchID("FWD", now)}

	for _, id := range req.ApplicationIDs {
		app, err := s.forwardOne(ctx, id, result.BatchID, req, actor, now)
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

	if s.events != nil && result.Processed > 0 {
		s.events.BatchForwarded(ctx, result.BatchID, result.Processed)
	}
	s.logger.Info("finance forwarding batch completed",
		zap.String("batch_id", result.BatchID),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (s *DepartmentService) forwardOne(ctx context.Context, applicationID, batchID string, req dto.ForwardRequest, actor models.Actor, now time.Time) (*models.Application, error) {
	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if actor.Role == models.RoleDepartmentAdmin && actor.DepartmentID != app.DepartmentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application belongs to another department")
	}
	if !app.DepartmentDecided || !app.DepartmentApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application is not department-approved")
	}
	if app.Status != models.StatusApproved && app.Status != models.StatusPartiallyApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application is not in an approved status")
	}
	if app.FinanceForwarded {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "application already forwarded to finance")
	}

	priority := req.Priority
	if priority == "" {
		priority = string(app.Priority)
	}
	remarks := req.Remarks
	expected := app.Status

	app.FinanceForwarded = true
	app.FinanceForwardedBy = &actor.UserID
	app.FinanceBatchID = &batchID
	app.FinancePriority = &priority
	app.FinanceRemarks = &remarks
	app.FinanceForwardedAt = &now
	app.UpdatedAt = now

	entry := models.DecisionLogEntry{
		ApplicationID: app.ApplicationID,
		Stage:         models.StageDepartment,
		Action:        models.ActionForward,
		ActorID:       actor.UserID,
		Remarks:       &remarks,
		Amount:        app.AmountApproved,
		CreatedAt:     now,
	}

	guards := repository.WorkflowGuards{NotForwarded: true}
	if err := s.repo.CommitWorkflow(ctx, app, expected, guards, []models.DecisionLogEntry{entry}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "application already forwarded to finance")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit forwarding")
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(string(models.StageDepartment), models.ActionForward)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, applicationCacheKey(app.ApplicationID))
	}
	return app, nil
}
