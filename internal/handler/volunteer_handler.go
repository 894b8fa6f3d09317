package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/models"
	"github.com/shiftwise/volunteer-api/internal/service"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
	"github.com/shiftwise/volunteer-api/pkg/response"
)

// VolunteerHandler exposes roster, availability and preference endpoints.
type VolunteerHandler struct {
	volunteers *service.VolunteerService
}

// NewVolunteerHandler constructs VolunteerHandler.
func NewVolunteerHandler(volunteers *service.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteers: volunteers}
}

// List godoc
// @Summary List volunteers
// @Tags Volunteers
// @Produce json
// @Param search query string false "Search by name or email"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers [get]
func (h *VolunteerHandler) List(c *gin.Context) {
	var filter models.VolunteerFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.Active = &v
		} else if active == "false" {
			v := false
			filter.Active = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	volunteers, err := h.volunteers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteers, nil)
}

// Get godoc
// @Summary Get volunteer detail
// @Tags Volunteers
// @Produce json
// @Param id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id} [get]
func (h *VolunteerHandler) Get(c *gin.Context) {
	vol, err := h.volunteers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vol, nil)
}

// Create godoc
// @Summary Register a volunteer
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param payload body dto.CreateVolunteerRequest true "Volunteer payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers [post]
func (h *VolunteerHandler) Create(c *gin.Context) {
	var req dto.CreateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vol, err := h.volunteers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vol)
}

// Update godoc
// @Summary Update a volunteer
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param id path string true "Volunteer ID"
// @Param payload body dto.UpdateVolunteerRequest true "Volunteer payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id} [put]
func (h *VolunteerHandler) Update(c *gin.Context) {
	var req dto.UpdateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	vol, err := h.volunteers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vol, nil)
}

// Availability godoc
// @Summary Get a volunteer's weekly availability
// @Tags Volunteers
// @Produce json
// @Param id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id}/availability [get]
func (h *VolunteerHandler) Availability(c *gin.Context) {
	intervals, err := h.volunteers.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intervals, nil)
}

// ReplaceAvailability godoc
// @Summary Replace a volunteer's weekly availability
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param id path string true "Volunteer ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Availability windows"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id}/availability [put]
func (h *VolunteerHandler) ReplaceAvailability(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	intervals, err := h.volunteers.ReplaceAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intervals, nil)
}

// Preferences godoc
// @Summary Get a volunteer's class preferences
// @Tags Volunteers
// @Produce json
// @Param id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id}/preferences [get]
func (h *VolunteerHandler) Preferences(c *gin.Context) {
	prefs, err := h.volunteers.Preferences(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// UpsertPreference godoc
// @Summary Set a volunteer's rank for a class
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param id path string true "Volunteer ID"
// @Param payload body dto.UpsertPreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id}/preferences [put]
func (h *VolunteerHandler) UpsertPreference(c *gin.Context) {
	var req dto.UpsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pref, err := h.volunteers.UpsertPreference(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// DeletePreference godoc
// @Summary Remove a volunteer's rank for a class
// @Tags Volunteers
// @Param id path string true "Volunteer ID"
// @Param classId path string true "Class ID"
// @Success 204
// @Security BearerAuth
// @Router /volunteers/{id}/preferences/{classId} [delete]
func (h *VolunteerHandler) DeletePreference(c *gin.Context) {
	if err := h.volunteers.DeletePreference(c.Request.Context(), c.Param("id"), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
