package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/oncall-roster-api/internal/dto"
	appErrors "github.com/noah-isme/oncall-roster-api/pkg/errors"
	"github.com/noah-isme/oncall-roster-api/pkg/response"
)

type optimizeService interface {
	Solve(ctx context.Context, req *dto.OptimizeRequest) (*dto.OptimizeResponse, error)
}

// OptimizeHandler exposes the roster solve endpoint. It keeps the original
// flat request/response contract: the schedule and scores come back as a
// bare object and every error is a {detail} body.
type OptimizeHandler struct {
	service optimizeService
}

// NewOptimizeHandler builds a new handler.
func NewOptimizeHandler(service optimizeService) *OptimizeHandler {
	return &OptimizeHandler{service: service}
}

// Optimize godoc
// @Summary Solve a monthly on-call roster
// @Tags Optimize
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Roster constraints"
// @Success 200 {object} dto.OptimizeResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /optimize/ [post]
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}

	resp, err := h.service.Solve(c.Request.Context(), &req)
	if err != nil {
		response.Detail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}
