package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ssp-workflow-api/internal/dto"
	"github.com/noah-isme/ssp-workflow-api/internal/service"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
	"github.com/noah-isme/ssp-workflow-api/pkg/response"
)

// ApplicationHandler exposes application views, the decision ledger and the
// institute review endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
	institute    *service.InstituteService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService, institute *service.InstituteService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, institute: institute}
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	view, err := h.applications.Get(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// ListDecisions godoc
// @Summary List the decision ledger for an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/decisions [get]
func (h *ApplicationHandler) ListDecisions(c *gin.Context) {
	entries, err := h.applications.ListDecisions(c.Request.Context(), c.Param("id"), currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"count": len(entries)})
}

// Review godoc
// @Summary Apply an institute review action
// @Tags Institute
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.InstituteReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/review [post]
func (h *ApplicationHandler) Review(c *gin.Context) {
	var req dto.InstituteReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.institute.Review(c.Request.Context(), c.Param("id"), req, currentActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app)
}

// BulkReview godoc
// @Summary Apply one institute action to many applications
// @Tags Institute
// @Accept json
// @Produce json
// @Param payload body dto.BulkInstituteReviewRequest true "Bulk review payload"
// @Success 200 {object} response.Envelope
// @Router /applications/bulk-review [patch]
func (h *ApplicationHandler) BulkReview(c *gin.Context) {
	var req dto.BulkInstituteReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.institute.BulkReview(c.Request.Context(), req, currentActor(c))
	response.JSON(c, http.StatusOK, result)
}
