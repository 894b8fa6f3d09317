package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shiftwise/volunteer-api/internal/service"
	"github.com/shiftwise/volunteer-api/pkg/response"
)

// ExportHandler exposes rota download endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RotaCSV godoc
// @Summary Download the shift rota as CSV
// @Tags Exports
// @Produce text/csv
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/rota.csv [get]
func (h *ExportHandler) RotaCSV(c *gin.Context) {
	from, to, err := dateWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.RotaCSV(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

// RotaPDF godoc
// @Summary Download the shift rota as PDF
// @Tags Exports
// @Produce application/pdf
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/rota.pdf [get]
func (h *ExportHandler) RotaPDF(c *gin.Context) {
	from, to, err := dateWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.RotaPDF(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

func serveExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(200, result.ContentType, result.Content)
}
