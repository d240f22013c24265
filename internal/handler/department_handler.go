package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/service"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
	"github.com/noah-isme/ssp-workflow-api/pkg/response"
)

// DepartmentHandler exposes the stage-2 decision and forwarding endpoints.
type DepartmentHandler struct {
	department *service.DepartmentService
}

// NewDepartmentHandler constructs DepartmentHandler.
func NewDepartmentHandler(department *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{department: department}
}

// Review godoc
// @Summary Record the department decision
// @Tags Department
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.DepartmentReviewRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/department-review [post]
func (h *DepartmentHandler) Review(c *gin.Context) {
	var req dto.DepartmentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.department.Review(c.Request.Context(), c.Param("id"), req, currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// Forward godoc
// @Summary Forward department-approved applications to finance
// @Tags Department
// @Accept json
// @Produce json
// @Param payload body dto.ForwardRequest true "Forwarding payload"
// @Success 200 {object} response.Envelope
// @Router /applications/forward-to-finance [post]
func (h *DepartmentHandler) Forward(c *gin.Context) {
	var req dto.ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.department.ForwardToFinance(c.Request.Context(), req, currentActor(c))
	response.JSON(c, http.StatusOK, result)
}
