package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/internal/service"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
	"github.com/tutorlink/tutorlink-api/pkg/response"
)

// AvailabilityHandler wires availability management to HTTP routes.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs a new AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// GetWeekly godoc
// @Summary Get a teacher's recurring weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/weekly [get]
func (h *AvailabilityHandler) GetWeekly(c *gin.Context) {
	rules, err := h.availability.GetWeeklySettings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// SaveWeekly godoc
// @Summary Replace a teacher's full weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.SaveWeeklySettingsRequest true "Weekly windows"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/weekly [put]
func (h *AvailabilityHandler) SaveWeekly(c *gin.Context) {
	var req service.SaveWeeklySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weekly settings payload"))
		return
	}
	rules, err := h.availability.SaveWeeklySettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// ListOverrides godoc
// @Summary List date overrides within a range
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start query string true "Range start (YYYY-MM-DD)"
// @Param end query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/overrides [get]
func (h *AvailabilityHandler) ListOverrides(c *gin.Context) {
	from, err := time.Parse(models.DateLayout, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse(models.DateLayout, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be YYYY-MM-DD"))
		return
	}

	overrides, err := h.availability.ListOverrides(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, nil)
}

// UpsertOverride godoc
// @Summary Create or replace the override for a date
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpsertOverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/overrides [post]
func (h *AvailabilityHandler) UpsertOverride(c *gin.Context) {
	var req service.UpsertOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.availability.UpsertOverride(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// DeleteOverride godoc
// @Summary Delete the override for a date
// @Tags Availability
// @Param id path string true "Teacher ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 204
// @Router /teachers/{id}/availability/overrides/{date} [delete]
func (h *AvailabilityHandler) DeleteOverride(c *gin.Context) {
	if err := h.availability.DeleteOverride(c.Request.Context(), c.Param("id"), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
