package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/gateway"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/internal/notifier"
	"github.com/noah-isme/ssp-workflow-api/internal/repository"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// disbursementStore is the persistence surface of the payment processor.
type disbursementStore interface {
	Create(ctx context.Context, d *models.Disbursement) error
	GetByDisbursementID(ctx context.Context, disbursementID string) (*models.Disbursement, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Disbursement, error)
	MarkProcessing(ctx context.Context, disbursementID, batchID string) error
	Finalize(ctx context.Context, params repository.FinalizeParams) error
	MarkFailed(ctx context.Context, disbursementID, reason string) error
}

// DisbursementService is the payment processor: it creates disbursement
// records for finance-forwarded applications and executes transfers through
// the external DBT gateway. Failed transfers stay failed until a human
// retries them; nothing in here retries on its own.
type DisbursementService struct {
	apps      applicationReader
	disb      disbursementStore
	gw        gateway.Gateway
	validator *validator.Validate
	cache     *CacheService
	metrics   *MetricsService
	events    notifier.Events
	logger    *zap.Logger
}

// NewDisbursementService constructs the service.
func NewDisbursementService(apps applicationReader, disb disbursementStore, gw gateway.Gateway, validate *validator.Validate, cache *CacheService, metrics *MetricsService, events notifier.Events, logger *zap.Logger) *DisbursementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DisbursementService{apps: apps, disb: disb, gw: gw, validator: validate, cache: cache, metrics: metrics, events: events, logger: logger}
	svc.validator.RegisterValidation("payout_method", func(fl validator.FieldLevel) bool {
		return models.ValidDisbursementMethod(models.DisbursementMethod(fl.Field().String()))
	})
	return svc
}

// Create records a pending disbursement for a finance-forwarded application.
// The insert is guarded so a second live disbursement can never appear, no
// matter how requests interleave.
func (s *DisbursementService) Create(ctx context.Context, applicationID string, req dto.CreateDisbursementRequest, actor models.Actor) (*models.Disbursement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disbursement payload")
	}
	method := models.DisbursementMethod(req.Method)

	app, err := s.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if app.Status != models.StatusApproved && app.Status != models.StatusPartiallyApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application is not in an approved status")
	}
	if !app.FinanceForwarded {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application has not been forwarded to finance")
	}
	if app.AmountApproved == nil || !app.AmountApproved.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "application has no approved amount")
	}

	now := time.Now().UTC()
	var remarks *string
	if req.Remarks != "" {
		remarks = &req.Remarks
	}
	d := &models.Disbursement{
		DisbursementID:    models.NewDisbursementID(now),
		ApplicationID:     app.ApplicationID,
		Amount:            *app.AmountApproved,
		Method:            method,
		Status:            models.DisbursementPending,
		BankAccountNumber: app.BankAccountNumber,
		BankIFSC:          app.BankIFSC,
		Remarks:           remarks,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.disb.Create(ctx, d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyDisbursed, "a live disbursement already exists for this application")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create disbursement")
	}

	s.logger.Info("disbursement created",
		zap.String("disbursement_id", d.DisbursementID),
		zap.String("application_id", d.ApplicationID),
		zap.String("amount", d.Amount.String()),
		zap.String("account", d.MaskedAccount()),
	)
	return d, nil
}

// GetForApplication returns the live disbursement for an application.
func (s *DisbursementService) GetForApplication(ctx context.Context, applicationID string) (*models.Disbursement, error) {
	d, err := s.disb.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disbursement")
	}
	return d, nil
}

// ExecuteTransfer pushes one disbursement through the DBT gateway. Missing
// bank details fail before any state changes, leaving the record pending. A
// gateway decline marks the record failed with the decline reason while the
// application keeps its approved status for a manual retry.
func (s *DisbursementService) ExecuteTransfer(ctx context.Context, disbursementID string, req dto.ExecuteTransferRequest, actor models.Actor) (*models.Disbursement, error) {
	d, err := s.disb.GetByDisbursementID(ctx, disbursementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disbursement")
	}

	if d.Status == models.DisbursementDisbursed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyDisbursed, "disbursement already completed")
	}
	if d.Status == models.DisbursementProcessing || d.Status == models.DisbursementCancelled {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "disbursement is not transferable in status "+string(d.Status))
	}
	if !d.HasBankDetails() {
		return nil, appErrors.Clone(appErrors.ErrIncompleteBankDetails, "bank account number or IFSC code missing")
	}

	batchID := req.BatchID
	if batchID == "" && d.BatchID != nil {
		batchID = *d.BatchID
	}
	if batchID == "" {
		batchID = models.NewBatchID("DBT", time.Now().UTC())
	}

	if err := s.disb.MarkProcessing(ctx, d.DisbursementID, batchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "disbursement was picked up concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transfer")
	}
	d.Status = models.DisbursementProcessing
	d.BatchID = &batchID

	result, err := s.gw.Transfer(ctx, gateway.TransferRequest{
		AccountNumber: *d.BankAccountNumber,
		IFSC:          *d.BankIFSC,
		Amount:        d.Amount,
		Reference:     d.DisbursementID,
	})
	if err != nil {
		return s.recordFailure(ctx, d, err)
	}

	now := time.Now().UTC()
	entry := models.DecisionLogEntry{
		ApplicationID: d.ApplicationID,
		Stage:         models.StageFinance,
		Action:        models.ActionDisburse,
		ActorID:       actor.UserID,
		Amount:        &d.Amount,
		CreatedAt:     now,
	}
	err = s.disb.Finalize(ctx, repository.FinalizeParams{
		DisbursementID:       d.DisbursementID,
		ApplicationID:        d.ApplicationID,
		TransactionReference: result.TransactionReference,
		DisbursedBy:          actor.UserID,
		DisbursedAt:          now,
		Entry:                entry,
	})
	if err != nil {
		// The bank moved the money but the commit lost its race or the
		// application left its approved status. This needs an operator.
		s.logger.Error("transfer succeeded but finalize failed",
			zap.String("disbursement_id", d.DisbursementID),
			zap.String("transaction_reference", result.TransactionReference),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "transfer completed but could not be recorded")
	}

	d.Status = models.DisbursementDisbursed
	d.TransactionReference = &result.TransactionReference
	d.DisbursedBy = &actor.UserID
	d.DisbursementDate = &now
	d.UpdatedAt = now

	if s.metrics != nil {
		s.metrics.RecordTransfer("success")
		s.metrics.RecordTransition(string(models.StatusDisbursed))
		s.metrics.RecordDecision(string(models.StageFinance), models.ActionDisburse)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, applicationCacheKey(d.ApplicationID))
	}
	if s.events != nil {
		s.events.DisbursementCompleted(ctx, d)
	}
	s.logger.Info("transfer completed",
		zap.String("disbursement_id", d.DisbursementID),
		zap.String("transaction_reference", result.TransactionReference),
	)
	return d, nil
}

func (s *DisbursementService) recordFailure(ctx context.Context, d *models.Disbursement, transferErr error) (*models.Disbursement, error) {
	reason := "gateway unreachable"
	var decline *gateway.TransferError
	if errors.As(transferErr, &decline) {
		reason = decline.Reason
	}

	if err := s.disb.MarkFailed(ctx, d.DisbursementID, reason); err != nil {
		s.logger.Error("failed to record transfer failure",
			zap.String("disbursement_id", d.DisbursementID),
			zap.Error(err),
		)
	} else {
		d.Status = models.DisbursementFailed
		d.FailureReason = &reason
	}

	if s.metrics != nil {
		s.metrics.RecordTransfer("failure")
	}
	if s.events != nil {
		s.events.DisbursementFailed(ctx, d, reason)
	}
	s.logger.Warn("transfer failed",
		zap.String("disbursement_id", d.DisbursementID),
		zap.String("reason", reason),
		zap.Error(transferErr),
	)
	return nil, appErrors.Clone(appErrors.ErrTransferFailed, "funds transfer failed: "+reason)
}

// BulkCreateAndTransfer runs the full payout flow for a set of forwarded
// applications under one DBT batch. Items commit independently: one missing
// bank account or one gateway decline never blocks the rest, and the report
// carries every per-item outcome plus the successfully transferred total.
func (s *DisbursementService) BulkCreateAndTransfer(ctx context.Context, req dto.BulkDisbursementRequest, actor models.Actor) models.BatchResult {
	now := time.Now().UTC()
	result := models.BatchResult{BatchID: models.NewBatchID("DBT", now)}
	total := decimal.Zero

	for _, applicationID := range req.ApplicationIDs {
		d, err := s.processOne(ctx, applicationID, result.BatchID, req, actor)
		if err != nil {
			appErr := appErrors.FromError(err)
			result.Append(models.BatchItem{
				ID:        applicationID,
				Status:    models.BatchItemFailed,
				ErrorCode: appErr.Code,
				Message:   appErr.Message,
			})
			continue
		}
		total = total.Add(d.Amount)
		result.Append(models.BatchItem{
			ID:     applicationID,
			Status: models.BatchItemSuccess,
			Amount: &d.Amount,
		})
	}

	if result.Processed > 0 {
		result.TotalAmount = &total
	}
	s.logger.Info("disbursement batch completed",
		zap.String("batch_id", result.BatchID),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.String("total_amount", total.String()),
	)
	return result
}

func (s *DisbursementService) processOne(ctx context.Context, applicationID, batchID string, req dto.BulkDisbursementRequest, actor models.Actor) (*models.Disbursement, error) {
	d, err := s.Create(ctx, applicationID, dto.CreateDisbursementRequest{Method: req.Method, Remarks: req.Remarks}, actor)
	if err != nil {
		return nil, err
	}
	return s.ExecuteTransfer(ctx, d.DisbursementID, dto.ExecuteTransferRequest{BatchID: batchID}, actor)
}
