package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsuite/campus-core/internal/service"
	appErrors "github.com/acadsuite/campus-core/pkg/errors"
	"github.com/acadsuite/campus-core/pkg/response"
)

// FeeHandler exposes the fee ledger endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// ListByStudent godoc
// @Summary List a student's fee ledger
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) ListByStudent(c *gin.Context) {
	fees, err := h.fees.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// MarkPaid godoc
// @Summary Settle a fee record
// @Description Sets amount paid to the amount due and rebuilds the student's balance.
// @Tags Fees
// @Produce json
// @Param id path string true "Fee record ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/pay [post]
func (h *FeeHandler) MarkPaid(c *gin.Context) {
	if err := h.fees.MarkPaid(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "paid"}, nil)
}

type recomputeFeeRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Semester  string `json:"semester" binding:"required"`
}

// Recompute godoc
// @Summary Rebuild a student's fees for a semester
// @Description Manual repair endpoint; the rebuild is idempotent.
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body recomputeFeeRequest true "Recompute target"
// @Success 200 {object} response.Envelope
// @Router /fees/recompute [post]
func (h *FeeHandler) Recompute(c *gin.Context) {
	var req recomputeFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.fees.Recompute(c.Request.Context(), req.StudentID, req.Semester); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "recomputed"}, nil)
}
