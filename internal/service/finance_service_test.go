package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ssp-workflow-api/internal/calculation"
	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

func TestFinanceCalculateStandard(t *testing.T) {
	app := submittedApplication()
	app.StudentCGPA = decimal.RequireFromString("9.2")
	store := newStubStore(app)
	svc := NewFinanceService(store, nil)

	resp, err := svc.Calculate(context.Background(), app.ApplicationID, dto.CalculateRequest{
		Strategy: calculation.StrategyStandard,
	})
	require.NoError(t, err)

	assert.Equal(t, app.ApplicationID, resp.ApplicationID)
	assert.True(t, resp.Result.FinalAmount.Equal(decimal.NewFromInt(60000)), resp.Result.FinalAmount.String())
	sum := resp.Result.Breakdown.Tuition.
		Add(resp.Result.Breakdown.Maintenance).
		Add(resp.Result.Breakdown.Books)
	assert.True(t, sum.Equal(resp.Result.FinalAmount))
}

func TestFinanceCalculateUsesApprovedAmountAsBase(t *testing.T) {
	app := submittedApplication()
	app.StudentCGPA = decimal.RequireFromString("7.5")
	approved := decimal.NewFromInt(40000)
	app.AmountApproved = &approved
	store := newStubStore(app)
	svc := NewFinanceService(store, nil)

	resp, err := svc.Calculate(context.Background(), app.ApplicationID, dto.CalculateRequest{
		Strategy: calculation.StrategyStandard,
	})
	require.NoError(t, err)
	assert.True(t, resp.Result.BaseAmount.Equal(approved))
}

func TestFinanceCalculateNeedBasedRequiresIncome(t *testing.T) {
	store := newStubStore(submittedApplication())
	svc := NewFinanceService(store, nil)

	_, err := svc.Calculate(context.Background(), "APP2026AAAA1111", dto.CalculateRequest{
		Strategy: calculation.StrategyNeedBased,
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	income := decimal.NewFromInt(95000)
	resp, err := svc.Calculate(context.Background(), "APP2026AAAA1111", dto.CalculateRequest{
		Strategy:      calculation.StrategyNeedBased,
		CustomFactors: &dto.CustomFactors{FamilyIncome: &income},
	})
	require.NoError(t, err)
	// 50000 * 1.5 * 1.0
	assert.True(t, resp.Result.FinalAmount.Equal(decimal.NewFromInt(75000)))
}

func TestFinanceCalculateUnknownStrategy(t *testing.T) {
	store := newStubStore(submittedApplication())
	svc := NewFinanceService(store, nil)

	_, err := svc.Calculate(context.Background(), "APP2026AAAA1111", dto.CalculateRequest{
		Strategy: calculation.Strategy("lottery"),
	})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFinanceCalculateNotFound(t *testing.T) {
	store := newStubStore()
	svc := NewFinanceService(store, nil)

	_, err := svc.Calculate(context.Background(), "APP2026MISSING0", dto.CalculateRequest{
		Strategy: calculation.StrategyStandard,
	})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFinanceCalculateDeterministic(t *testing.T) {
	store := newStubStore(submittedApplication())
	svc := NewFinanceService(store, nil)

	req := dto.CalculateRequest{
		Strategy: calculation.StrategyCustom,
		CustomFactors: &dto.CustomFactors{
			Multipliers: map[string]decimal.Decimal{
				"merit": decimal.RequireFromString("1.2"),
				"rural": decimal.RequireFromString("1.1"),
			},
			Adjustments: map[string]decimal.Decimal{
				"hostel": decimal.NewFromInt(5000),
			},
		},
	}

	first, err := svc.Calculate(context.Background(), "APP2026AAAA1111", req)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := svc.Calculate(context.Background(), "APP2026AAAA1111", req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
