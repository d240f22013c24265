package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/gateway"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
	"github.com/noah-isme/ssp-workflow-api/internal/repository"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// stubDisbursementStore mirrors the real repository's guards in memory:
// one live disbursement per application, status-checked state moves, and a
// finalize that also flips the owning application.
type stubDisbursementStore struct {
	byID map[string]*models.Disbursement
	apps *stubApplicationStore
}

func newStubDisbStore(apps *stubApplicationStore) *stubDisbursementStore {
	return &stubDisbursementStore{byID: map[string]*models.Disbursement{}, apps: apps}
}

func (s *stubDisbursementStore) live(applicationID string) *models.Disbursement {
	for _, d := range s.byID {
		if d.ApplicationID == applicationID && d.Status != models.DisbursementCancelled {
			return d
		}
	}
	return nil
}

func (s *stubDisbursementStore) Create(_ context.Context, d *models.Disbursement) error {
	if s.live(d.ApplicationID) != nil {
		return sql.ErrNoRows
	}
	copied := *d
	s.byID[d.DisbursementID] = &copied
	return nil
}

func (s *stubDisbursementStore) GetByDisbursementID(_ context.Context, disbursementID string) (*models.Disbursement, error) {
	stored, ok := s.byID[disbursementID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (s *stubDisbursementStore) GetByApplicationID(_ context.Context, applicationID string) (*models.Disbursement, error) {
	if d := s.live(applicationID); d != nil {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubDisbursementStore) MarkProcessing(_ context.Context, disbursementID, batchID string) error {
	stored, ok := s.byID[disbursementID]
	if !ok || (stored.Status != models.DisbursementPending && stored.Status != models.DisbursementFailed) {
		return sql.ErrNoRows
	}
	stored.Status = models.DisbursementProcessing
	stored.BatchID = &batchID
	stored.FailureReason = nil
	return nil
}

func (s *stubDisbursementStore) Finalize(_ context.Context, params repository.FinalizeParams) error {
	stored, ok := s.byID[params.DisbursementID]
	if !ok || stored.Status != models.DisbursementProcessing {
		return sql.ErrNoRows
	}
	app, ok := s.apps.apps[params.ApplicationID]
	if !ok || (app.Status != models.StatusApproved && app.Status != models.StatusPartiallyApproved) {
		return sql.ErrNoRows
	}
	stored.Status = models.DisbursementDisbursed
	ref := params.TransactionReference
	stored.TransactionReference = &ref
	by := params.DisbursedBy
	stored.DisbursedBy = &by
	at := params.DisbursedAt
	stored.DisbursementDate = &at
	app.StampStatus(models.StatusDisbursed, params.DisbursedAt)
	s.apps.ledger = append(s.apps.ledger, params.Entry)
	return nil
}

func (s *stubDisbursementStore) MarkFailed(_ context.Context, disbursementID, reason string) error {
	stored, ok := s.byID[disbursementID]
	if !ok || stored.Status != models.DisbursementProcessing {
		return sql.ErrNoRows
	}
	stored.Status = models.DisbursementFailed
	stored.FailureReason = &reason
	return nil
}

type stubGateway struct {
	declineReason string
	transportErr  error
	calls         int
}

func (g *stubGateway) Transfer(_ context.Context, req gateway.TransferRequest) (gateway.TransferResult, error) {
	g.calls++
	if g.transportErr != nil {
		return gateway.TransferResult{}, g.transportErr
	}
	if g.declineReason != "" {
		return gateway.TransferResult{}, &gateway.TransferError{Reason: g.declineReason}
	}
	return gateway.TransferResult{TransactionReference: "TXN-" + req.Reference}, nil
}

func forwardedApplication(id string) *models.Application {
	app := deptApprovedApplication(id)
	now := time.Now().UTC()
	batch := "FWD202603011030AB12CD"
	by := "dept-head-1"
	acct := "123456789012"
	ifsc := "SBIN0001234"
	app.FinanceForwarded = true
	app.FinanceForwardedBy = &by
	app.FinanceBatchID = &batch
	app.FinanceForwardedAt = &now
	app.BankAccountNumber = &acct
	app.BankIFSC = &ifsc
	return app
}

func financeActor() models.Actor {
	return models.Actor{UserID: "finance-1", Role: models.RoleFinanceAdmin}
}

func newDisbursementFixture(apps ...*models.Application) (*stubApplicationStore, *stubDisbursementStore, *stubGateway, *DisbursementService) {
	appStore := newStubStore(apps...)
	disbStore := newStubDisbStore(appStore)
	gw := &stubGateway{}
	svc := NewDisbursementService(appStore, disbStore, gw, nil, nil, nil, nil, nil)
	return appStore, disbStore, gw, svc
}

func TestDisbursementCreate(t *testing.T) {
	_, disbStore, _, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))

	d, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{
		Method: "bank_transfer",
	}, financeActor())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d.DisbursementID, "DISB"))
	assert.Equal(t, models.DisbursementPending, d.Status)
	assert.True(t, d.Amount.Equal(decimal.NewFromInt(45000)))
	require.NotNil(t, d.BankAccountNumber)
	assert.Len(t, disbStore.byID, 1)
}

func TestDisbursementCreateNotEligible(t *testing.T) {
	notForwarded := deptApprovedApplication("APP2026AAAA1111")
	inReview := submittedApplication()
	inReview.ApplicationID = "APP2026BBBB2222"
	_, _, _, svc := newDisbursementFixture(notForwarded, inReview)

	_, err := svc.Create(context.Background(), notForwarded.ApplicationID, dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrNotEligible)

	_, err = svc.Create(context.Background(), inReview.ApplicationID, dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrNotEligible)
}

func TestDisbursementCreateInvalidMethod(t *testing.T) {
	_, _, _, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))

	_, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "wire"}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDisbursementAtMostOneLive(t *testing.T) {
	_, _, _, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))

	_, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrAlreadyDisbursed)
}

func TestExecuteTransferSuccess(t *testing.T) {
	appStore, disbStore, gw, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	d, err := svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.NoError(t, err)

	assert.Equal(t, models.DisbursementDisbursed, d.Status)
	require.NotNil(t, d.TransactionReference)
	assert.Equal(t, "TXN-"+created.DisbursementID, *d.TransactionReference)
	assert.Equal(t, 1, gw.calls)

	// The owning application flipped and the payout landed in the ledger.
	assert.Equal(t, models.StatusDisbursed, appStore.apps["APP2026AAAA1111"].Status)
	require.Len(t, appStore.ledger, 1)
	assert.Equal(t, models.ActionDisburse, appStore.ledger[0].Action)
	assert.Equal(t, models.StageFinance, appStore.ledger[0].Stage)

	assert.Equal(t, models.DisbursementDisbursed, disbStore.byID[created.DisbursementID].Status)
}

func TestExecuteTransferIncompleteBankDetails(t *testing.T) {
	app := forwardedApplication("APP2026AAAA1111")
	app.BankAccountNumber = nil
	appStore, disbStore, gw, svc := newDisbursementFixture(app)

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrIncompleteBankDetails)

	// Nothing moved: no gateway call, disbursement still pending, the
	// application untouched, the ledger unchanged.
	assert.Zero(t, gw.calls)
	assert.Equal(t, models.DisbursementPending, disbStore.byID[created.DisbursementID].Status)
	assert.Equal(t, models.StatusApproved, appStore.apps["APP2026AAAA1111"].Status)
	assert.Empty(t, appStore.ledger)
}

func TestExecuteTransferDecline(t *testing.T) {
	appStore, disbStore, gw, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))
	gw.declineReason = "account closed"

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrTransferFailed)

	stored := disbStore.byID[created.DisbursementID]
	assert.Equal(t, models.DisbursementFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "account closed", *stored.FailureReason)

	// The application keeps its approved status for a manual retry.
	assert.Equal(t, models.StatusApproved, appStore.apps["APP2026AAAA1111"].Status)
	assert.Empty(t, appStore.ledger)
}

func TestExecuteTransferManualRetryAfterFailure(t *testing.T) {
	_, disbStore, gw, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))
	gw.declineReason = "account closed"

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrTransferFailed)

	gw.declineReason = ""
	d, err := svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.NoError(t, err)
	assert.Equal(t, models.DisbursementDisbursed, d.Status)
	assert.Nil(t, disbStore.byID[created.DisbursementID].FailureReason)
}

func TestExecuteTransferAlreadyDisbursed(t *testing.T) {
	_, _, _, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrAlreadyDisbursed)
}

func TestBulkCreateAndTransfer(t *testing.T) {
	apps := []*models.Application{
		forwardedApplication("APP2026AAAA0001"),
		forwardedApplication("APP2026AAAA0002"),
		forwardedApplication("APP2026AAAA0003"),
	}
	noBank := forwardedApplication("APP2026AAAA0004")
	noBank.BankAccountNumber = nil
	notForwarded := deptApprovedApplication("APP2026AAAA0005")
	apps = append(apps, noBank, notForwarded)

	_, _, _, svc := newDisbursementFixture(apps...)

	result := svc.BulkCreateAndTransfer(context.Background(), dto.BulkDisbursementRequest{
		ApplicationIDs: []string{
			"APP2026AAAA0001", "APP2026AAAA0002", "APP2026AAAA0003",
			"APP2026AAAA0004", "APP2026AAAA0005",
		},
		Method: "bank_transfer",
	}, financeActor())

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Failed)
	assert.True(t, strings.HasPrefix(result.BatchID, "DBT"))
	require.NotNil(t, result.TotalAmount)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(135000)), result.TotalAmount.String())

	require.Len(t, result.Items, 5)
	assert.Equal(t, appErrors.ErrIncompleteBankDetails.Code, result.Items[3].ErrorCode)
	assert.Equal(t, appErrors.ErrNotEligible.Code, result.Items[4].ErrorCode)
}

func TestBulkCreateAndTransferAllFailed(t *testing.T) {
	_, _, _, svc := newDisbursementFixture()

	result := svc.BulkCreateAndTransfer(context.Background(), dto.BulkDisbursementRequest{
		ApplicationIDs: []string{"APP2026MISSING0"},
		Method:         "bank_transfer",
	}, financeActor())

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Nil(t, result.TotalAmount)
}

func TestExecuteTransferTransportFailure(t *testing.T) {
	_, disbStore, gw, svc := newDisbursementFixture(forwardedApplication("APP2026AAAA1111"))
	gw.transportErr = fmt.Errorf("dial tcp: connection refused")

	created, err := svc.Create(context.Background(), "APP2026AAAA1111", dto.CreateDisbursementRequest{Method: "bank_transfer"}, financeActor())
	require.NoError(t, err)

	_, err = svc.ExecuteTransfer(context.Background(), created.DisbursementID, dto.ExecuteTransferRequest{}, financeActor())
	require.ErrorIs(t, err, appErrors.ErrTransferFailed)

	stored := disbStore.byID[created.DisbursementID]
	assert.Equal(t, models.DisbursementFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "gateway unreachable", *stored.FailureReason)
}
