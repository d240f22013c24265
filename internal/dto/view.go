package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
)

// ApplicationView is the read model returned by the API: lifecycle state,
// structured per-stage decisions and the derived overdue flag.
type ApplicationView struct {
	ApplicationID   string                   `json:"applicationId"`
	StudentID       string                   `json:"studentId"`
	InstituteID     string                   `json:"instituteId"`
	DepartmentID    string                   `json:"departmentId"`
	ScholarshipType string                   `json:"scholarshipType"`
	ScholarshipName string                   `json:"scholarshipName"`
	SchemeReference *string                  `json:"schemeReference,omitempty"`
	AcademicYear    string                   `json:"academicYear"`
	AmountRequested decimal.Decimal          `json:"amountRequested"`
	AmountApproved  *decimal.Decimal         `json:"amountApproved,omitempty"`
	Status          models.ApplicationStatus `json:"status"`
	Priority        models.Priority          `json:"priority"`

	EligibilityScore          int `json:"eligibilityScore"`
	DocumentCompletenessScore int `json:"documentCompletenessScore"`

	Institute  models.StageDecision  `json:"instituteDecision"`
	Department models.StageDecision  `json:"departmentDecision"`
	Finance    models.FinanceForward `json:"financeForward"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
	DisbursedAt *time.Time `json:"disbursedAt,omitempty"`

	Overdue bool `json:"overdue"`
}

// NewApplicationView projects the stored entity into the API read model.
func NewApplicationView(app *models.Application, now time.Time, overdueWindow time.Duration) ApplicationView {
	return ApplicationView{
		ApplicationID:             app.ApplicationID,
		StudentID:                 app.StudentID,
		InstituteID:               app.InstituteID,
		DepartmentID:              app.DepartmentID,
		ScholarshipType:           app.ScholarshipType,
		ScholarshipName:           app.ScholarshipName,
		SchemeReference:           app.SchemeReference,
		AcademicYear:              app.AcademicYear,
		AmountRequested:           app.AmountRequested,
		AmountApproved:            app.AmountApproved,
		Status:                    app.Status,
		Priority:                  app.Priority,
		EligibilityScore:          app.EligibilityScore,
		DocumentCompletenessScore: app.DocumentCompletenessScore,
		Institute:                 app.InstituteDecision(),
		Department:                app.DepartmentDecision(),
		Finance:                   app.FinanceForwardState(),
		SubmittedAt:               app.SubmittedAt,
		ApprovedAt:                app.ApprovedAt,
		RejectedAt:                app.RejectedAt,
		DisbursedAt:               app.DisbursedAt,
		Overdue:                   app.IsOverdue(now, overdueWindow),
	}
}
