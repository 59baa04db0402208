package handler

import (
	"github.com/gin-gonic/gin"

	"swap-corner/internal/dto"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
)

// SwapHandler 换班申请 HTTP 处理器
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler 创建 SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// Submit 提交换班申请并立即尝试配对
// POST /api/v1/swap-requests
func (h *SwapHandler) Submit(c *gin.Context) {
	var req dto.SubmitSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.swapSvc.Submit(c.Request.Context(), &req)
	if err != nil {
		if !handleSwapError(c, err) {
			response.InternalError(c)
		}
		return
	}

	if result.Matched {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// ListPending 待配对申请列表
// GET /api/v1/swap-requests
func (h *SwapHandler) ListPending(c *gin.Context) {
	var req dto.SwapRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	list, total, err := h.swapSvc.ListPending(c.Request.Context(), &req)
	if err != nil {
		if !handleSwapError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
