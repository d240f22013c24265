package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/ssp-workflow-api/internal/calculation"
)

// CustomFactors are the caller-supplied calculation inputs that do not
// live on the application record.
type CustomFactors struct {
	FamilyIncome  *decimal.Decimal           `json:"familyIncome,omitempty"`
	StateCategory string                     `json:"stateCategory,omitempty"`
	RuralUrban    string                     `json:"ruralUrban,omitempty"`
	Multipliers   map[string]decimal.Decimal `json:"multipliers,omitempty"`
	Adjustments   map[string]decimal.Decimal `json:"adjustments,omitempty"`
}

// CalculateRequest selects a strategy for an application.
type CalculateRequest struct {
	Strategy      calculation.Strategy `json:"strategy" binding:"required"`
	CustomFactors *CustomFactors       `json:"customFactors,omitempty"`
}

// CalculationResponse pairs a calculation result with its application.
type CalculationResponse struct {
	ApplicationID string             `json:"applicationId"`
	Result        calculation.Result `json:"result"`
}

// CreateDisbursementRequest creates a single disbursement record.
type CreateDisbursementRequest struct {
	Method  string `json:"method" binding:"required" validate:"required,payout_method"`
	Remarks string `json:"remarks"`
}

// BulkDisbursementRequest creates and transfers disbursements for a set of
// forwarded applications.
type BulkDisbursementRequest struct {
	ApplicationIDs []string `json:"applicationIds" binding:"required,min=1" validate:"required,min=1"`
	Method         string   `json:"method" binding:"required" validate:"required,payout_method"`
	Remarks        string   `json:"remarks"`
}

// ExecuteTransferRequest triggers (or manually retries) one transfer.
type ExecuteTransferRequest struct {
	BatchID string `json:"batchId"`
}
