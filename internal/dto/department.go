package dto

import "github.com/shopspring/decimal"

// Department review actions.
const (
	ActionDeptApprove = "dept_approve"
	ActionDeptReject  = "dept_reject"
)

// DepartmentReviewRequest is the stage-2 decision payload.
type DepartmentReviewRequest struct {
	Action      string           `json:"action" binding:"required"`
	Remarks     string           `json:"remarks" binding:"required"`
	FinalAmount *decimal.Decimal `json:"finalAmount,omitempty"`
}

// ForwardRequest hands department-approved applications to finance.
type ForwardRequest struct {
	ApplicationIDs []string `json:"applicationIds" binding:"required,min=1"`
	Remarks        string   `json:"remarks"`
	Priority       string   `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}
