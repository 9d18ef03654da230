package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorlink/tutorlink-api/internal/models"
	"github.com/tutorlink/tutorlink-api/internal/service"
	appErrors "github.com/tutorlink/tutorlink-api/pkg/errors"
	"github.com/tutorlink/tutorlink-api/pkg/response"
)

// SlotHandler exposes the available-slots computation.
type SlotHandler struct {
	slots           *service.SlotService
	defaultDuration int
	defaultBuffer   int
}

// NewSlotHandler constructs a new SlotHandler.
func NewSlotHandler(slots *service.SlotService, defaultDuration, defaultBuffer int) *SlotHandler {
	if defaultDuration <= 0 {
		defaultDuration = 60
	}
	if defaultBuffer < 0 {
		defaultBuffer = 0
	}
	return &SlotHandler{slots: slots, defaultDuration: defaultDuration, defaultBuffer: defaultBuffer}
}

// GetAvailableSlots godoc
// @Summary Compute bookable slots for a teacher over a date range
// @Tags Slots
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start query string true "Range start (YYYY-MM-DD), inclusive"
// @Param end query string true "Range end (YYYY-MM-DD), inclusive"
// @Param duration query int false "Session length in minutes"
// @Param buffer query int false "Gap between consecutive slots in minutes"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/slots [get]
func (h *SlotHandler) GetAvailableSlots(c *gin.Context) {
	start, err := time.Parse(models.DateLayout, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be YYYY-MM-DD"))
		return
	}
	end, err := time.Parse(models.DateLayout, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be YYYY-MM-DD"))
		return
	}

	duration := h.defaultDuration
	if raw := c.Query("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be an integer"))
			return
		}
	}

	buffer := h.defaultBuffer
	if raw := c.Query("buffer"); raw != "" {
		buffer, err = strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "buffer must be an integer"))
			return
		}
	}

	slots, err := h.slots.GetAvailableSlots(c.Request.Context(), service.AvailableSlotsQuery{
		TeacherID:       c.Param("id"),
		StartDate:       start,
		EndDate:         end,
		DurationMinutes: duration,
		BufferMinutes:   buffer,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
