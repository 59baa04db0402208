package handler

import (
	"github.com/gin-gonic/gin"

	"swap-corner/internal/dto"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
)

// SessionHandler 三步页面流程 HTTP 处理器
type SessionHandler struct {
	flowSvc service.FlowService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(flowSvc service.FlowService) *SessionHandler {
	return &SessionHandler{flowSvc: flowSvc}
}

// Create 新建会话
// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	sess, err := h.flowSvc.Create(c.Request.Context())
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.Created(c, sess)
}

// Get 查询会话
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.flowSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, sess)
}

// EnterIdentifier 提交学号
// POST /api/v1/sessions/:id/identifier
func (h *SessionHandler) EnterIdentifier(c *gin.Context) {
	var req dto.SessionIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.flowSvc.EnterIdentifier(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, sess)
}

// Submit 提交选课并配对
// POST /api/v1/sessions/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	var req dto.SessionSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.flowSvc.Submit(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, sess)
}

// StartOver 重新开始
// POST /api/v1/sessions/:id/start-over
func (h *SessionHandler) StartOver(c *gin.Context) {
	sess, err := h.flowSvc.StartOver(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, sess)
}

// ChangeSelection 从结果页返回修改选课
// POST /api/v1/sessions/:id/change-selection
func (h *SessionHandler) ChangeSelection(c *gin.Context) {
	sess, err := h.flowSvc.ChangeSelection(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleSessionError(c, err)
		return
	}
	response.OK(c, sess)
}
