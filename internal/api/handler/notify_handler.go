package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swap-corner/internal/dto"
	"swap-corner/internal/notify"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
	"swap-corner/pkg/rollnumber"
)

// NotifyHandler 配对通知函数 HTTP 处理器
type NotifyHandler struct {
	notificationSvc service.NotificationService
}

// NewNotifyHandler 创建 NotifyHandler
func NewNotifyHandler(notificationSvc service.NotificationService) *NotifyHandler {
	return &NotifyHandler{notificationSvc: notificationSvc}
}

// SendMatchEmail 给配对双方发送邮件
// POST /functions/v1/send-match-email
func (h *NotifyHandler) SendMatchEmail(c *gin.Context) {
	var req dto.SendMatchEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.notificationSvc.SendMatchEmails(c.Request.Context(), &req)
	switch {
	case err == nil:
		response.OK(c, resp)
	case errors.Is(err, service.ErrMissingRollNumbers):
		response.BadRequest(c, 23001, err.Error())
	case errors.Is(err, rollnumber.ErrInvalidFormat):
		response.ErrorWithDetails(c, http.StatusBadRequest, 23002, rollnumber.ErrInvalidFormat.Error(), err.Error())
	case errors.Is(err, notify.ErrNotificationFailed):
		c.JSON(http.StatusBadGateway, response.Response{
			Code:    23003,
			Message: notify.ErrNotificationFailed.Error(),
			Data:    resp,
		})
	default:
		response.InternalError(c)
	}
}
