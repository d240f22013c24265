package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
)

// DecisionLogRepository reads the append-only audit ledger. Writes happen
// only through the workflow and disbursement transactions.
type DecisionLogRepository struct {
	db *sqlx.DB
}

// NewDecisionLogRepository constructs the repository.
func NewDecisionLogRepository(db *sqlx.DB) *DecisionLogRepository {
	return &DecisionLogRepository{db: db}
}

// ListByApplication returns every entry for an application, oldest first,
// which is the replay order for reconstructing stage state.
func (r *DecisionLogRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.DecisionLogEntry, error) {
	const query = `SELECT id, application_id, stage, action, actor_id, remarks, amount, created_at
	FROM decision_log WHERE application_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.DecisionLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, applicationID); err != nil {
		return nil, fmt.Errorf("list decision log: %w", err)
	}
	return entries, nil
}

// CountByApplication returns the number of entries for an application.
func (r *DecisionLogRepository) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM decision_log WHERE application_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, applicationID); err != nil {
		return 0, fmt.Errorf("count decision log: %w", err)
	}
	return count, nil
}
