package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadsuite/campus-core/internal/models"
	"github.com/acadsuite/campus-core/internal/service"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
	"github.com/acadsuite/campus-core/pkg/response"
)

// SectionHandler exposes course section endpoints.
type SectionHandler struct {
	sections *service.SectionService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections *service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// Get godoc
// @Summary Get section detail
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Schedule a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update godoc
// @Summary Update a section
// @Description Fields omitted from the payload are left unchanged.
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body models.SectionUpdate true "Section fields"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [patch]
func (h *SectionHandler) Update(c *gin.Context) {
	var update models.SectionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Availability godoc
// @Summary List open sections with seats left
// @Tags Sections
// @Produce json
// @Param semester query string true "Semester, e.g. Fall 2026"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /sections/availability [get]
func (h *SectionHandler) Availability(c *gin.Context) {
	semester := c.Query("semester")
	year, err := strconv.Atoi(c.Query("year"))
	if semester == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester and year query parameters are required"))
		return
	}
	sections, err := h.sections.Availability(c.Request.Context(), semester, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}
