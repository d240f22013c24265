// Package notifier delivers read-only workflow events to downstream
// notification and reporting services. Delivery is fire-and-forget: a
// failed notification never affects engine state.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
)

// Events receives workflow milestones.
type Events interface {
	ApplicationApproved(ctx context.Context, app *models.Application)
	ApplicationRejected(ctx context.Context, app *models.Application)
	BatchForwarded(ctx context.Context, batchID string, count int)
	DisbursementCompleted(ctx context.Context, d *models.Disbursement)
	DisbursementFailed(ctx context.Context, d *models.Disbursement, reason string)
}

// LogNotifier emits events as structured log lines. Downstream delivery
// (email, dashboards) subscribes to these out of process.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the default notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ApplicationApproved(ctx context.Context, app *models.Application) {
	n.logger.Info("event_application_approved",
		zap.String("application_id", app.ApplicationID),
		zap.String("status", string(app.Status)),
	)
}

func (n *LogNotifier) ApplicationRejected(ctx context.Context, app *models.Application) {
	n.logger.Info("event_application_rejected",
		zap.String("application_id", app.ApplicationID),
	)
}

func (n *LogNotifier) BatchForwarded(ctx context.Context, batchID string, count int) {
	n.logger.Info("event_batch_forwarded",
		zap.String("batch_id", batchID),
		zap.Int("count", count),
	)
}

func (n *LogNotifier) DisbursementCompleted(ctx context.Context, d *models.Disbursement) {
	n.logger.Info("event_disbursement_completed",
		zap.String("disbursement_id", d.DisbursementID),
		zap.String("application_id", d.ApplicationID),
		zap.String("amount", d.Amount.String()),
	)
}

func (n *LogNotifier) DisbursementFailed(ctx context.Context, d *models.Disbursement, reason string) {
	n.logger.Warn("event_disbursement_failed",
		zap.String("disbursement_id", d.DisbursementID),
		zap.String("application_id", d.ApplicationID),
		zap.String("reason", reason),
	)
}
