package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
	"github.com/noah-isme/oncall-roster-api/pkg/response"
)

type rosterService interface {
	Save(ctx context.Context, req *dto.SaveRosterRequest) (*dto.SaveRosterResponse, error)
	Get(ctx context.Context, year, month int) ([]dto.ScheduleEntry, error)
}

// RosterHandler exposes roster persistence endpoints.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler builds a new handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// Save godoc
// @Summary Persist an accepted monthly roster
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.SaveRosterRequest true "Accepted schedule"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/save/ [post]
func (h *RosterHandler) Save(c *gin.Context) {
	var req dto.SaveRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster payload"))
		return
	}

	resp, err := h.service.Save(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Get godoc
// @Summary Retrieve the stored roster for a month
// @Tags Schedule
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/{year}/{month} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be an integer"))
		return
	}

	schedule, err := h.service.Get(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, map[string]interface{}{
		"year":  year,
		"month": month,
	})
}
