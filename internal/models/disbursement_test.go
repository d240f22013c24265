package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestDisbursementStatusImmutable(t *testing.T) {
	assert.True(t, DisbursementDisbursed.Immutable())
	assert.True(t, DisbursementCancelled.Immutable())
	assert.False(t, DisbursementPending.Immutable())
	assert.False(t, DisbursementProcessing.Immutable())
	assert.False(t, DisbursementFailed.Immutable())
}

func TestValidDisbursementMethod(t *testing.T) {
	for _, m := range []DisbursementMethod{MethodBankTransfer, MethodCheque, MethodCash, MethodFeeAdjustment} {
		assert.True(t, ValidDisbursementMethod(m), string(m))
	}
	assert.False(t, ValidDisbursementMethod("wire"))
}

func TestHasBankDetails(t *testing.T) {
	acct := "123456789012"
	ifsc := "SBIN0001234"
	empty := "  "

	d := &Disbursement{BankAccountNumber: &acct, BankIFSC: &ifsc}
	assert.True(t, d.HasBankDetails())

	d = &Disbursement{BankAccountNumber: &acct}
	assert.False(t, d.HasBankDetails())

	d = &Disbursement{BankAccountNumber: &empty, BankIFSC: &ifsc}
	assert.False(t, d.HasBankDetails())

	d = &Disbursement{}
	assert.False(t, d.HasBankDetails())
}

func TestMaskedAccount(t *testing.T) {
	acct := "123456789012"
	d := &Disbursement{BankAccountNumber: &acct}
	assert.Equal(t, "****9012", d.MaskedAccount())

	short := "123"
	d.BankAccountNumber = &short
	assert.Equal(t, "****", d.MaskedAccount())

	d.BankAccountNumber = nil
	assert.Equal(t, "", d.MaskedAccount())
}

func TestNewDisbursementID(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	id := NewDisbursementID(now)
	assert.True(t, strings.HasPrefix(id, "DISB20260305"))
	assert.Len(t, id, len("DISB20260305")+8)
}

func TestNewBatchID(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	id := NewBatchID("DBT", now)
	assert.True(t, strings.HasPrefix(id, "DBT202603051030"))
	assert.Len(t, id, len("DBT202603051030")+6)

	fwd := NewBatchID("FWD", now)
	assert.True(t, strings.HasPrefix(fwd, "FWD"))
}

func TestBatchResultAppend(t *testing.T) {
	var r BatchResult
	amount := mustDecimal(t, "42000")
	r.Append(BatchItem{ID: "a", Status: BatchItemSuccess, Amount: &amount})
	r.Append(BatchItem{ID: "b", Status: BatchItemFailed, ErrorCode: "NOT_ELIGIBLE"})
	r.Append(BatchItem{ID: "c", Status: BatchItemSuccess})

	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 1, r.Failed)
	assert.Len(t, r.Items, 3)
}
