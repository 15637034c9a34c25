package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsuite/campus-core/internal/service"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
	"github.com/acadsuite/campus-core/pkg/response"
)

// FacultyHandler exposes faculty endpoints.
type FacultyHandler struct {
	faculty *service.FacultyService
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(faculty *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty}
}

// Get godoc
// @Summary Get faculty detail
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	faculty, err := h.faculty.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// Create godoc
// @Summary Onboard a faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req service.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faculty, err := h.faculty.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// RecomputeSalary godoc
// @Summary Rebuild a faculty member's salary
// @Description Manual repair endpoint; the rebuild is idempotent.
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/salary/recompute [post]
func (h *FacultyHandler) RecomputeSalary(c *gin.Context) {
	if err := h.faculty.Recompute(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	faculty, err := h.faculty.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}
