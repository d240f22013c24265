package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus enumerates the closed set of lifecycle states.
type ApplicationStatus string

const (
	StatusDraft                ApplicationStatus = "draft"
	StatusSubmitted            ApplicationStatus = "submitted"
	StatusUnderReview          ApplicationStatus = "under_review"
	StatusDocumentVerification ApplicationStatus = "document_verification"
	StatusEligibilityCheck     ApplicationStatus = "eligibility_check"
	StatusApproved             ApplicationStatus = "approved"
	StatusPartiallyApproved    ApplicationStatus = "partially_approved"
	StatusRejected             ApplicationStatus = "rejected"
	StatusOnHold               ApplicationStatus = "on_hold"
	StatusCancelled            ApplicationStatus = "cancelled"
	StatusDisbursed            ApplicationStatus = "disbursed"
	StatusCompleted            ApplicationStatus = "completed"
)

// Priority levels mirror the intake form.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// transitions is the authoritative edge set of the lifecycle machine.
// approved/partially_approved -> disbursed is reachable only through the
// disbursement processor; dept reject is a stage-gate override, not an edge.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusDraft:                {StatusSubmitted},
	StatusSubmitted:            {StatusUnderReview, StatusRejected},
	StatusUnderReview:          {StatusDocumentVerification, StatusEligibilityCheck, StatusApproved, StatusRejected, StatusOnHold},
	StatusDocumentVerification: {StatusEligibilityCheck, StatusUnderReview, StatusRejected},
	StatusEligibilityCheck:     {StatusApproved, StatusPartiallyApproved, StatusRejected, StatusUnderReview},
	StatusOnHold:               {StatusUnderReview, StatusRejected},
	StatusApproved:             {StatusDisbursed},
	StatusPartiallyApproved:    {StatusDisbursed},
	StatusDisbursed:            {StatusCompleted},
}

// AllStatuses lists every lifecycle state, useful for exhaustive checks.
var AllStatuses = []ApplicationStatus{
	StatusDraft, StatusSubmitted, StatusUnderReview, StatusDocumentVerification,
	StatusEligibilityCheck, StatusApproved, StatusPartiallyApproved, StatusRejected,
	StatusOnHold, StatusCancelled, StatusDisbursed, StatusCompleted,
}

// CanTransitionTo reports whether target is an allowed successor.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further reviewer action.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Valid reports whether s belongs to the closed enumeration.
func (s ApplicationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if known == s {
			return true
		}
	}
	return false
}

// PathTo resolves the shortest legal path from one state to another,
// excluding the current state itself. Paths never route through disbursed
// or completed as intermediates; those hops belong to the payment
// processor. Returns an error when the target is unreachable.
func PathTo(from, to ApplicationStatus) ([]ApplicationStatus, error) {
	if from == to {
		return nil, fmt.Errorf("already in state %s", from)
	}
	type node struct {
		state ApplicationStatus
		path  []ApplicationStatus
	}
	visited := map[ApplicationStatus]bool{from: true}
	queue := []node{{state: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range transitions[cur.state] {
			if visited[next] {
				continue
			}
			path := append(append([]ApplicationStatus{}, cur.path...), next)
			if next == to {
				return path, nil
			}
			if next == StatusDisbursed || next == StatusCompleted {
				continue
			}
			visited[next] = true
			queue = append(queue, node{state: next, path: path})
		}
	}
	return nil, fmt.Errorf("no path from %s to %s", from, to)
}

// StageDecision is the structured view of one stage's recorded outcome.
type StageDecision struct {
	Decided   bool       `json:"decided"`
	Approved  bool       `json:"approved"`
	ActorID   *string    `json:"actorId,omitempty"`
	Remarks   *string    `json:"remarks,omitempty"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

// FinanceForward is the structured view of the forwarding hand-off.
type FinanceForward struct {
	Forwarded   bool       `json:"forwarded"`
	ForwardedBy *string    `json:"forwardedBy,omitempty"`
	BatchID     *string    `json:"batchId,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Remarks     *string    `json:"remarks,omitempty"`
	ForwardedAt *time.Time `json:"forwardedAt,omitempty"`
}

// Application is one scholarship request moving through the pipeline.
// Stage sub-records are flattened to columns for sqlx mapping and indexable
// optimistic guards; the accessor methods expose them structurally.
type Application struct {
	ID            string `db:"id" json:"-"`
	ApplicationID string `db:"application_id" json:"applicationId"`
	StudentID     string `db:"student_id" json:"studentId"`
	InstituteID   string `db:"institute_id" json:"instituteId"`
	DepartmentID  string `db:"department_id" json:"departmentId"`

	ScholarshipType string  `db:"scholarship_type" json:"scholarshipType"`
	ScholarshipName string  `db:"scholarship_name" json:"scholarshipName"`
	SchemeReference *string `db:"scheme_reference" json:"schemeReference,omitempty"`
	AcademicYear    string  `db:"academic_year" json:"academicYear"`

	AmountRequested decimal.Decimal  `db:"amount_requested" json:"amountRequested"`
	AmountApproved  *decimal.Decimal `db:"amount_approved" json:"amountApproved,omitempty"`

	Status   ApplicationStatus `db:"status" json:"status"`
	Priority Priority          `db:"priority" json:"priority"`

	EligibilityScore          int `db:"eligibility_score" json:"eligibilityScore"`
	DocumentCompletenessScore int `db:"document_completeness_score" json:"documentCompletenessScore"`

	// Academic snapshot taken from the student record at submission; the
	// student master data itself lives outside this service.
	StudentCGPA decimal.Decimal `db:"student_cgpa" json:"studentCgpa"`
	CourseLevel string          `db:"course_level" json:"courseLevel"`

	// Bank details snapshotted from the student record at submission.
	BankAccountNumber *string `db:"bank_account_number" json:"-"`
	BankIFSC          *string `db:"bank_ifsc" json:"-"`

	SubmittedAt       *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewStartedAt   *time.Time `db:"review_started_at" json:"reviewStartedAt,omitempty"`
	ReviewCompletedAt *time.Time `db:"review_completed_at" json:"reviewCompletedAt,omitempty"`
	ApprovedAt        *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	RejectedAt        *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	DisbursedAt       *time.Time `db:"disbursed_at" json:"disbursedAt,omitempty"`

	InstituteDecided   bool       `db:"institute_decided" json:"-"`
	InstituteApproved  bool       `db:"institute_approved" json:"-"`
	InstituteActorID   *string    `db:"institute_actor_id" json:"-"`
	InstituteRemarks   *string    `db:"institute_remarks" json:"-"`
	InstituteDecidedAt *time.Time `db:"institute_decided_at" json:"-"`

	DepartmentDecided     bool             `db:"department_decided" json:"-"`
	DepartmentApproved    bool             `db:"department_approved" json:"-"`
	DepartmentActorID     *string          `db:"department_actor_id" json:"-"`
	DepartmentRemarks     *string          `db:"department_remarks" json:"-"`
	DepartmentFinalAmount *decimal.Decimal `db:"department_final_amount" json:"-"`
	DepartmentDecidedAt   *time.Time       `db:"department_decided_at" json:"-"`

	FinanceForwarded   bool       `db:"finance_forwarded" json:"-"`
	FinanceForwardedBy *string    `db:"finance_forwarded_by" json:"-"`
	FinanceBatchID     *string    `db:"finance_batch_id" json:"-"`
	FinancePriority    *string    `db:"finance_priority" json:"-"`
	FinanceRemarks     *string    `db:"finance_remarks" json:"-"`
	FinanceForwardedAt *time.Time `db:"finance_forwarded_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// InstituteDecision returns the stage-1 decision view.
func (a *Application) InstituteDecision() StageDecision {
	return StageDecision{
		Decided:   a.InstituteDecided,
		Approved:  a.InstituteApproved,
		ActorID:   a.InstituteActorID,
		Remarks:   a.InstituteRemarks,
		DecidedAt: a.InstituteDecidedAt,
	}
}

// DepartmentDecision returns the stage-2 decision view.
func (a *Application) DepartmentDecision() StageDecision {
	return StageDecision{
		Decided:   a.DepartmentDecided,
		Approved:  a.DepartmentApproved,
		ActorID:   a.DepartmentActorID,
		Remarks:   a.DepartmentRemarks,
		DecidedAt: a.DepartmentDecidedAt,
	}
}

// FinanceForwardState returns the forwarding hand-off view.
func (a *Application) FinanceForwardState() FinanceForward {
	return FinanceForward{
		Forwarded:   a.FinanceForwarded,
		ForwardedBy: a.FinanceForwardedBy,
		BatchID:     a.FinanceBatchID,
		Priority:    a.FinancePriority,
		Remarks:     a.FinanceRemarks,
		ForwardedAt: a.FinanceForwardedAt,
	}
}

// EffectiveAmount is the amount finance operates on: the approved amount
// when set, otherwise the requested amount.
func (a *Application) EffectiveAmount() decimal.Decimal {
	if a.AmountApproved != nil {
		return *a.AmountApproved
	}
	return a.AmountRequested
}

// IsOverdue reports whether the application has waited past the SLA window.
// Derived read-only; never a state transition.
func (a *Application) IsOverdue(now time.Time, window time.Duration) bool {
	if a.SubmittedAt == nil {
		return false
	}
	switch a.Status {
	case StatusSubmitted, StatusUnderReview, StatusDocumentVerification, StatusEligibilityCheck:
		return now.Sub(*a.SubmittedAt) > window
	}
	return false
}

// StampStatus applies the timestamp bookkeeping for a status change.
func (a *Application) StampStatus(status ApplicationStatus, now time.Time) {
	a.Status = status
	switch status {
	case StatusSubmitted:
		if a.SubmittedAt == nil {
			a.SubmittedAt = &now
		}
	case StatusUnderReview:
		if a.ReviewStartedAt == nil {
			a.ReviewStartedAt = &now
		}
	case StatusApproved, StatusPartiallyApproved:
		if a.ReviewCompletedAt == nil {
			a.ReviewCompletedAt = &now
		}
		if a.ApprovedAt == nil {
			a.ApprovedAt = &now
		}
	case StatusRejected:
		if a.ReviewCompletedAt == nil {
			a.ReviewCompletedAt = &now
		}
		if a.RejectedAt == nil {
			a.RejectedAt = &now
		}
	case StatusDisbursed:
		if a.DisbursedAt == nil {
			a.DisbursedAt = &now
		}
	}
	a.UpdatedAt = now
}

// NewApplicationID generates an APP<year><8 hex> identifier.
func NewApplicationID(now time.Time) string {
	return fmt.Sprintf("APP%d%s", now.Year(), strings.ToUpper(uuid.NewString()[:8]))
}
