package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"swap-corner/internal/dto"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	enabled   bool
}

// NewExportHandler 创建 ExportHandler；enabled 对应 feature.export_enabled
func NewExportHandler(exportSvc service.ExportService, enabled bool) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, enabled: enabled}
}

// ExportPending 导出待配对申请
// GET /api/v1/export/pending?semester=3&department=CS
func (h *ExportHandler) ExportPending(c *gin.Context) {
	if !h.enabled {
		response.NotFound(c, 24001, "导出功能未开启")
		return
	}

	var req dto.ExportPendingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportPending(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoItems):
		response.NotFound(c, 24002, "暂无待配对申请")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c, service.ErrStoreUnavailable.Error())
	default:
		response.InternalError(c)
	}
}
