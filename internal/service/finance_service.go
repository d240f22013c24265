package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/ssp-workflow-api/internal/calculation"
	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// applicationReader is the read-only surface the calculation flow needs.
type applicationReader interface {
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
}

// FinanceService resolves calculation inputs from the stored application and
// runs the pure amount engine. It never mutates workflow state.
type FinanceService struct {
	repo   applicationReader
	logger *zap.Logger
}

// NewFinanceService constructs the service.
func NewFinanceService(repo applicationReader, logger *zap.Logger) *FinanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{repo: repo, logger: logger}
}

// Calculate runs the selected strategy against the application's stored
// academic snapshot plus any caller-supplied custom factors. The result is
// deterministic: the same application and request always produce the same
// lines and amounts.
func (s *FinanceService) Calculate(ctx context.Context, applicationID string, req dto.CalculateRequest) (*dto.CalculationResponse, error) {
	if !calculation.ValidStrategy(req.Strategy) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown calculation strategy: "+string(req.Strategy))
	}

	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	factors := calculation.Factors{
		BaseAmount:      app.EffectiveAmount(),
		CGPA:            app.StudentCGPA,
		CourseLevel:     app.CourseLevel,
		ScholarshipType: app.ScholarshipType,
	}
	if cf := req.CustomFactors; cf != nil {
		if cf.FamilyIncome != nil {
			factors.FamilyIncome = *cf.FamilyIncome
		}
		factors.StateCategory = cf.StateCategory
		factors.RuralUrban = cf.RuralUrban
		factors.Multipliers = cf.Multipliers
		factors.Adjustments = cf.Adjustments
	}
	if req.Strategy == calculation.StrategyNeedBased && (req.CustomFactors == nil || req.CustomFactors.FamilyIncome == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "family income is required for need_based calculation")
	}

	result, err := calculation.Calculate(req.Strategy, factors)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("calculation completed",
		zap.String("application_id", app.ApplicationID),
		zap.String("strategy", string(req.Strategy)),
		zap.String("final_amount", result.FinalAmount.String()),
	)
	return &dto.CalculationResponse{ApplicationID: app.ApplicationID, Result: result}, nil
}
