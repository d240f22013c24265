package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stage identifies which gatekeeper produced a decision entry.
type Stage string

const (
	StageInstitute  Stage = "institute"
	StageDepartment Stage = "department"
	StageFinance    Stage = "finance"
)

// Decision actions recorded in the log. One constant per gatekeeper verb.
const (
	ActionSubmit           = "SUBMIT"
	ActionStartReview      = "START_REVIEW"
	ActionApprove          = "APPROVE"
	ActionReject           = "REJECT"
	ActionRequestDocuments = "REQUEST_DOCUMENTS"
	ActionHold             = "HOLD"
	ActionDeptApprove      = "DEPT_APPROVE"
	ActionDeptReject       = "DEPT_REJECT"
	ActionForward          = "FORWARD_TO_FINANCE"
	ActionDisburse         = "DISBURSE"
	ActionComplete         = "COMPLETE"
)

// DecisionLogEntry is one immutable record of a stage action. Entries are
// appended, never edited or removed; replaying an application's entries
// reconstructs its per-stage decision state.
type DecisionLogEntry struct {
	ID            string           `db:"id" json:"id"`
	ApplicationID string           `db:"application_id" json:"applicationId"`
	Stage         Stage            `db:"stage" json:"stage"`
	Action        string           `db:"action" json:"action"`
	ActorID       string           `db:"actor_id" json:"actorId"`
	Remarks       *string          `db:"remarks" json:"remarks,omitempty"`
	Amount        *decimal.Decimal `db:"amount" json:"amount,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}
