package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/service"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
	"github.com/shiftwise/volunteer-api/pkg/response"
)

// MatchingHandler exposes matching run endpoints.
type MatchingHandler struct {
	matching *service.MatchingService
}

// NewMatchingHandler constructs MatchingHandler.
func NewMatchingHandler(matching *service.MatchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

// Run godoc
// @Summary Execute a matching run and materialize shifts
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.RunMatchingRequest true "Date window"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matching/run [post]
func (h *MatchingHandler) Run(c *gin.Context) {
	var req dto.RunMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.matching.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assignments godoc
// @Summary List a matching run's assignments
// @Tags Matching
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matching/runs/{runId}/assignments [get]
func (h *MatchingHandler) Assignments(c *gin.Context) {
	assignments, err := h.matching.Assignments(c.Request.Context(), c.Param("runId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
