package dto

import "github.com/shopspring/decimal"

// Institute review actions.
const (
	ActionApprove          = "approve"
	ActionReject           = "reject"
	ActionRequestDocuments = "request_documents"
	ActionHold             = "hold"
)

// InstituteReviewRequest is the stage-1 decision payload.
type InstituteReviewRequest struct {
	Action         string           `json:"action" binding:"required"`
	Remarks        string           `json:"remarks" binding:"required"`
	ApprovedAmount *decimal.Decimal `json:"approvedAmount,omitempty"`
}

// BulkInstituteReviewRequest applies one action to many applications.
// Items commit independently; partial failure is reported per item.
type BulkInstituteReviewRequest struct {
	ApplicationIDs []string         `json:"applicationIds" binding:"required,min=1"`
	Action         string           `json:"action" binding:"required"`
	Remarks        string           `json:"remarks" binding:"required"`
	ApprovedAmount *decimal.Decimal `json:"approvedAmount,omitempty"`
}
