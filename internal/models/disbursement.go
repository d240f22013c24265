package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisbursementStatus enumerates payment-processor states.
type DisbursementStatus string

const (
	DisbursementPending    DisbursementStatus = "pending"
	DisbursementProcessing DisbursementStatus = "processing"
	DisbursementDisbursed  DisbursementStatus = "disbursed"
	DisbursementFailed     DisbursementStatus = "failed"
	DisbursementCancelled  DisbursementStatus = "cancelled"
)

// Immutable reports whether the record admits no further mutation.
func (s DisbursementStatus) Immutable() bool {
	return s == DisbursementDisbursed || s == DisbursementCancelled
}

// DisbursementMethod enumerates supported payout channels.
type DisbursementMethod string

const (
	MethodBankTransfer  DisbursementMethod = "bank_transfer"
	MethodCheque        DisbursementMethod = "cheque"
	MethodCash          DisbursementMethod = "cash"
	MethodFeeAdjustment DisbursementMethod = "fee_adjustment"
)

// ValidDisbursementMethod reports whether m is a known payout channel.
func ValidDisbursementMethod(m DisbursementMethod) bool {
	switch m {
	case MethodBankTransfer, MethodCheque, MethodCash, MethodFeeAdjustment:
		return true
	}
	return false
}

// Disbursement tracks the actual fund transfer for an approved application.
// At most one non-cancelled row exists per application.
type Disbursement struct {
	ID             string `db:"id" json:"-"`
	DisbursementID string `db:"disbursement_id" json:"disbursementId"`
	ApplicationID  string `db:"application_id" json:"applicationId"`

	Amount decimal.Decimal    `db:"amount" json:"amount"`
	Method DisbursementMethod `db:"method" json:"method"`
	Status DisbursementStatus `db:"status" json:"status"`

	BankAccountNumber    *string `db:"bank_account_number" json:"-"`
	BankIFSC             *string `db:"bank_ifsc" json:"-"`
	TransactionReference *string `db:"transaction_reference" json:"transactionReference,omitempty"`
	FailureReason        *string `db:"failure_reason" json:"failureReason,omitempty"`
	BatchID              *string `db:"batch_id" json:"batchId,omitempty"`
	Remarks              *string `db:"remarks" json:"remarks,omitempty"`

	DisbursedBy      *string    `db:"disbursed_by" json:"disbursedBy,omitempty"`
	DisbursementDate *time.Time `db:"disbursement_date" json:"disbursementDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// HasBankDetails reports whether both account number and IFSC are present.
func (d *Disbursement) HasBankDetails() bool {
	return d.BankAccountNumber != nil && strings.TrimSpace(*d.BankAccountNumber) != "" &&
		d.BankIFSC != nil && strings.TrimSpace(*d.BankIFSC) != ""
}

// MaskedAccount renders the account number for logs and responses.
func (d *Disbursement) MaskedAccount() string {
	if d.BankAccountNumber == nil {
		return ""
	}
	acct := *d.BankAccountNumber
	if len(acct) <= 4 {
		return "****"
	}
	return "****" + acct[len(acct)-4:]
}

// NewDisbursementID generates a DISB<yyyymmdd><8 hex> identifier.
func NewDisbursementID(now time.Time) string {
	return fmt.Sprintf("DISB%s%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// NewBatchID generates a prefixed batch identifier, e.g. DBT or FWD.
func NewBatchID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%s%s", prefix, now.Format("200601021504"), strings.ToUpper(uuid.NewString()[:6]))
}
