package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/service"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
	"github.com/noah-isme/ssp-workflow-api/pkg/response"
)

// FinanceHandler exposes the calculation and disbursement endpoints.
type FinanceHandler struct {
	finance       *service.FinanceService
	disbursements *service.DisbursementService
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService, disbursements *service.DisbursementService) *FinanceHandler {
	return &FinanceHandler{finance: finance, disbursements: disbursements}
}

// Calculate godoc
// @Summary Calculate the scholarship amount for an application
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CalculateRequest true "Calculation payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/calculate [post]
func (h *FinanceHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.finance.Calculate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// CreateDisbursement godoc
// @Summary Create a disbursement for a forwarded application
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.CreateDisbursementRequest true "Disbursement payload"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/disbursements [post]
func (h *FinanceHandler) CreateDisbursement(c *gin.Context) {
	var req dto.CreateDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	d, err := h.disbursements.Create(c.Request.Context(), c.Param("id"), req, currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, d)
}

// GetDisbursement godoc
// @Summary Get the live disbursement for an application
// @Tags Finance
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/disbursements [get]
func (h *FinanceHandler) GetDisbursement(c *gin.Context) {
	d, err := h.disbursements.GetForApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// ExecuteTransfer godoc
// @Summary Execute (or manually retry) the funds transfer
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Disbursement ID"
// @Param payload body dto.ExecuteTransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /disbursements/{id}/transfer [post]
func (h *FinanceHandler) ExecuteTransfer(c *gin.Context) {
	var req dto.ExecuteTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	d, err := h.disbursements.ExecuteTransfer(c.Request.Context(), c.Param("id"), req, currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d)
}

// BulkDisburse godoc
// @Summary Create and transfer disbursements for a batch of applications
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body dto.BulkDisbursementRequest true "Bulk payout payload"
// @Success 200 {object} response.Envelope
// @Router /disbursements/bulk [post]
func (h *FinanceHandler) BulkDisburse(c *gin.Context) {
	var req dto.BulkDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.disbursements.BulkCreateAndTransfer(c.Request.Context(), req, currentActor(c))
	response.JSON(c, http.StatusOK, result)
}
