package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
)

const disbursementColumns = `id, disbursement_id, application_id, amount, method, status,
	bank_account_number, bank_ifsc, transaction_reference, failure_reason, batch_id, remarks,
	disbursed_by, disbursement_date, created_at, updated_at`

// DisbursementRepository persists disbursement records. Creation is guarded
// so at most one non-cancelled disbursement exists per application, and
// finalisation commits the payment outcome together with the owning
// application's status flip and audit entry.
type DisbursementRepository struct {
	db *sqlx.DB
}

// NewDisbursementRepository constructs the repository.
func NewDisbursementRepository(db *sqlx.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

// Create inserts a disbursement unless a live one already exists for the
// application. Returns sql.ErrNoRows when the guard rejects the insert.
func (r *DisbursementRepository) Create(ctx context.Context, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
		d.UpdatedAt = now
	}
	if d.Status == "" {
		d.Status = models.DisbursementPending
	}
	const query = `INSERT INTO disbursements
	(id, disbursement_id, application_id, amount, method, status,
	 bank_account_number, bank_ifsc, transaction_reference, failure_reason, batch_id, remarks,
	 disbursed_by, disbursement_date, created_at, updated_at)
	SELECT :id, :disbursement_id, :application_id, :amount, :method, :status,
	 :bank_account_number, :bank_ifsc, :transaction_reference, :failure_reason, :batch_id, :remarks,
	 :disbursed_by, :disbursement_date, :created_at, :updated_at
	WHERE NOT EXISTS (
		SELECT 1 FROM disbursements
		WHERE application_id = :application_id AND status <> 'cancelled'
	)`
	result, err := r.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return fmt.Errorf("create disbursement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check disbursement insert rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByDisbursementID fetches a disbursement by its external identifier.
func (r *DisbursementRepository) GetByDisbursementID(ctx context.Context, disbursementID string) (*models.Disbursement, error) {
	query := fmt.Sprintf(`SELECT %s FROM disbursements WHERE disbursement_id = $1`, disbursementColumns)
	var d models.Disbursement
	if err := r.db.GetContext(ctx, &d, query, disbursementID); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByApplicationID fetches the live disbursement for an application.
func (r *DisbursementRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.Disbursement, error) {
	query := fmt.Sprintf(`SELECT %s FROM disbursements WHERE application_id = $1 AND status <> 'cancelled'`, disbursementColumns)
	var d models.Disbursement
	if err := r.db.GetContext(ctx, &d, query, applicationID); err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkProcessing moves a pending or failed disbursement into processing.
// The failed path is the manual retry; nothing retries automatically.
func (r *DisbursementRepository) MarkProcessing(ctx context.Context, disbursementID, batchID string) error {
	const query = `UPDATE disbursements
	SET status = 'processing', batch_id = $2, failure_reason = NULL, updated_at = $3
	WHERE disbursement_id = $1 AND status IN ('pending', 'failed')`
	result, err := r.db.ExecContext(ctx, query, disbursementID, batchID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark disbursement processing: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check processing update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FinalizeParams carries the successful-transfer outcome.
type FinalizeParams struct {
	DisbursementID       string
	ApplicationID        string
	TransactionReference string
	DisbursedBy          string
	DisbursedAt          time.Time
	Entry                models.DecisionLogEntry
}

// Finalize commits a successful transfer: the disbursement becomes
// disbursed, the owning application flips to disbursed, and the audit entry
// is appended, all in one transaction.
func (r *DisbursementRepository) Finalize(ctx context.Context, params FinalizeParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const disburseQuery = `UPDATE disbursements
	SET status = 'disbursed', transaction_reference = $2, disbursed_by = $3,
	    disbursement_date = $4, updated_at = $4
	WHERE disbursement_id = $1 AND status = 'processing'`
	result, err := tx.ExecContext(ctx, disburseQuery, params.DisbursementID,
		params.TransactionReference, params.DisbursedBy, params.DisbursedAt)
	if err != nil {
		return fmt.Errorf("finalize disbursement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check finalize rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const appQuery = `UPDATE applications
	SET status = 'disbursed', disbursed_at = $2, updated_at = $2
	WHERE application_id = $1 AND status IN ('approved', 'partially_approved')`
	result, err = tx.ExecContext(ctx, appQuery, params.ApplicationID, params.DisbursedAt)
	if err != nil {
		return fmt.Errorf("flip application to disbursed: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application flip rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	entry := params.Entry
	if err := insertDecisionEntry(ctx, tx, &entry); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkFailed records a gateway decline. The owning application is left
// untouched so a manual retry stays possible.
func (r *DisbursementRepository) MarkFailed(ctx context.Context, disbursementID, reason string) error {
	const query = `UPDATE disbursements
	SET status = 'failed', failure_reason = $2, updated_at = $3
	WHERE disbursement_id = $1 AND status = 'processing'`
	result, err := r.db.ExecContext(ctx, query, disbursementID, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark disbursement failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check failed update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
