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

const applicationColumns = `id, application_id, student_id, institute_id, department_id,
	scholarship_type, scholarship_name, scheme_reference, academic_year,
	amount_requested, amount_approved, status, priority,
	eligibility_score, document_completeness_score, student_cgpa, course_level,
	bank_account_number, bank_ifsc,
	submitted_at, review_started_at, review_completed_at, approved_at, rejected_at, disbursed_at,
	institute_decided, institute_approved, institute_actor_id, institute_remarks, institute_decided_at,
	department_decided, department_approved, department_actor_id, department_remarks, department_final_amount, department_decided_at,
	finance_forwarded, finance_forwarded_by, finance_batch_id, finance_priority, finance_remarks, finance_forwarded_at,
	created_at, updated_at`

// ApplicationRepository persists scholarship applications and their
// workflow state. Every mutation goes through CommitWorkflow so the status
// write, stage columns and decision-log entries land in one transaction.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// GetByApplicationID fetches an application by its external identifier.
func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE application_id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, applicationID); err != nil {
		return nil, err
	}
	return &app, nil
}

// WorkflowGuards narrows the optimistic predicate beyond the status check.
// The zero value guards on status alone.
type WorkflowGuards struct {
	// DepartmentUndecided requires department_decided = false, serialising
	// concurrent department reviewers.
	DepartmentUndecided bool
	// NotForwarded requires finance_forwarded = false, making forwarding
	// idempotent under races.
	NotForwarded bool
}

// CommitWorkflow writes the application's full workflow column set guarded
// by the status the caller read, and appends the decision-log entries, all
// in one transaction. A zero-row update means another actor won the race;
// sql.ErrNoRows is returned and nothing is written.
func (r *ApplicationRepository) CommitWorkflow(ctx context.Context, app *models.Application, expected models.ApplicationStatus, guards WorkflowGuards, entries []models.DecisionLogEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workflow tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `UPDATE applications SET
		status = :status,
		amount_approved = :amount_approved,
		submitted_at = :submitted_at,
		review_started_at = :review_started_at,
		review_completed_at = :review_completed_at,
		approved_at = :approved_at,
		rejected_at = :rejected_at,
		disbursed_at = :disbursed_at,
		institute_decided = :institute_decided,
		institute_approved = :institute_approved,
		institute_actor_id = :institute_actor_id,
		institute_remarks = :institute_remarks,
		institute_decided_at = :institute_decided_at,
		department_decided = :department_decided,
		department_approved = :department_approved,
		department_actor_id = :department_actor_id,
		department_remarks = :department_remarks,
		department_final_amount = :department_final_amount,
		department_decided_at = :department_decided_at,
		finance_forwarded = :finance_forwarded,
		finance_forwarded_by = :finance_forwarded_by,
		finance_batch_id = :finance_batch_id,
		finance_priority = :finance_priority,
		finance_remarks = :finance_remarks,
		finance_forwarded_at = :finance_forwarded_at,
		updated_at = :updated_at
	WHERE application_id = :application_id AND status = '` + string(expected) + `'`
	if guards.DepartmentUndecided {
		query += ` AND department_decided = false`
	}
	if guards.NotForwarded {
		query += ` AND finance_forwarded = false`
	}

	result, err := tx.NamedExecContext(ctx, query, app)
	if err != nil {
		return fmt.Errorf("update application workflow: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check workflow update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	for i := range entries {
		if err := insertDecisionEntry(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// insertDecisionEntry appends one immutable log record. There is no update
// or delete counterpart anywhere in the repository layer.
func insertDecisionEntry(ctx context.Context, ext sqlx.ExtContext, entry *models.DecisionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO decision_log
	(id, application_id, stage, action, actor_id, remarks, amount, created_at)
	VALUES (:id, :application_id, :stage, :action, :actor_id, :remarks, :amount, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, entry); err != nil {
		return fmt.Errorf("append decision log: %w", err)
	}
	return nil
}
