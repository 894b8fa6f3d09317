package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/service"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
	"github.com/shiftwise/volunteer-api/pkg/response"
)

// AbsenceHandler exposes the absence and cover-shift workflow.
type AbsenceHandler struct {
	coverage *service.CoverageService
}

// NewAbsenceHandler constructs AbsenceHandler.
func NewAbsenceHandler(coverage *service.CoverageService) *AbsenceHandler {
	return &AbsenceHandler{coverage: coverage}
}

// RequestAbsence godoc
// @Summary Open an absence request for one of your shifts
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body dto.RequestAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /absences [post]
func (h *AbsenceHandler) RequestAbsence(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.VolunteerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "volunteer account required"))
		return
	}
	var req dto.RequestAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.coverage.RequestAbsence(c.Request.Context(), claims.VolunteerID, req.ShiftID, req.Category, req.Details, req.Comments)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get an absence request with derived status and offers
// @Tags Coverage
// @Produce json
// @Param id path string true "Absence request ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /absences/{id} [get]
func (h *AbsenceHandler) Get(c *gin.Context) {
	view, err := h.coverage.GetAbsenceRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Withdraw godoc
// @Summary Withdraw your own absence request
// @Tags Coverage
// @Param id path string true "Absence request ID"
// @Success 204
// @Security BearerAuth
// @Router /absences/{id} [delete]
func (h *AbsenceHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.VolunteerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "volunteer account required"))
		return
	}
	if err := h.coverage.WithdrawAbsenceRequest(c.Request.Context(), c.Param("id"), claims.VolunteerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approve godoc
// @Summary Approve an absence request
// @Tags Coverage
// @Param id path string true "Absence request ID"
// @Success 204
// @Security BearerAuth
// @Router /absences/{id}/approve [post]
func (h *AbsenceHandler) Approve(c *gin.Context) {
	if err := h.coverage.ApproveAbsenceRequest(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reject godoc
// @Summary Reject an absence request
// @Tags Coverage
// @Param id path string true "Absence request ID"
// @Success 204
// @Security BearerAuth
// @Router /absences/{id}/reject [post]
func (h *AbsenceHandler) Reject(c *gin.Context) {
	if err := h.coverage.RejectAbsenceRequest(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RequestCover godoc
// @Summary Offer to cover an absent shift
// @Tags Coverage
// @Accept json
// @Produce json
// @Param id path string true "Absence request ID"
// @Param payload body dto.RequestCoverageRequest true "Offer payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /absences/{id}/cover [post]
func (h *AbsenceHandler) RequestCover(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.VolunteerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "volunteer account required"))
		return
	}
	var req dto.RequestCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offer, err := h.coverage.RequestCoverShift(c.Request.Context(), c.Param("id"), claims.VolunteerID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// WithdrawCover godoc
// @Summary Withdraw your own coverage offer
// @Tags Coverage
// @Param id path string true "Coverage request ID"
// @Success 204
// @Security BearerAuth
// @Router /coverage/{id} [delete]
func (h *AbsenceHandler) WithdrawCover(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.VolunteerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "volunteer account required"))
		return
	}
	if err := h.coverage.WithdrawCoverShift(c.Request.Context(), c.Param("id"), claims.VolunteerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ApproveCover godoc
// @Summary Accept one volunteer's coverage offer
// @Tags Coverage
// @Accept json
// @Produce json
// @Param id path string true "Absence request ID"
// @Param payload body dto.CoverageDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /absences/{id}/cover/approve [post]
func (h *AbsenceHandler) ApproveCover(c *gin.Context) {
	var req dto.CoverageDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shift, err := h.coverage.ApproveCoverShift(c.Request.Context(), c.Param("id"), req.VolunteerID, req.Signoff)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// RejectCover godoc
// @Summary Decline one volunteer's coverage offer
// @Tags Coverage
// @Accept json
// @Param id path string true "Absence request ID"
// @Param payload body dto.CoverageDecisionRequest true "Decision payload"
// @Success 204
// @Security BearerAuth
// @Router /absences/{id}/cover/reject [post]
func (h *AbsenceHandler) RejectCover(c *gin.Context) {
	var req dto.CoverageDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.coverage.RejectCoverShift(c.Request.Context(), c.Param("id"), req.VolunteerID, req.Signoff); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Board godoc
// @Summary List approved, uncovered absences needing coverage
// @Tags Coverage
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /coverage/board [get]
func (h *AbsenceHandler) Board(c *gin.Context) {
	needs, err := h.coverage.ListCoverageBoard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, needs, nil)
}

// CheckIn godoc
// @Summary Mark a shift's volunteer as present
// @Tags Coverage
// @Param id path string true "Shift ID"
// @Success 204
// @Security BearerAuth
// @Router /shifts/{id}/checkin [post]
func (h *AbsenceHandler) CheckIn(c *gin.Context) {
	if err := h.coverage.CheckInShift(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
