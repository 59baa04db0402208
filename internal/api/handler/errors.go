package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swap-corner/internal/api/middleware"
	"swap-corner/internal/flow"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
)

// ── 换班模块业务码 ──

const (
	codeInvalidRollNumber = 20001
	codeIncompleteForm    = 20002
	codeSameCourse        = 20003
	codeUnknownCourse     = 20004
	codeInvalidSection    = 20005
	codeInvalidSemester   = 20006
	codeCrossDepartment   = 20007
	codeMatchBusy         = 20008
)

// ── 会话模块业务码 ──

const (
	codeSessionNotFound   = 21001
	codeInvalidTransition = 21002
	codeSessionBusy       = 21003
	codeInvalidIdentifier = 21004
)

// bindError 请求体绑定失败
func bindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
		return
	}
	response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
}

// handleSwapError 配对与表单校验错误映射；已写响应时返回 true
func handleSwapError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrInvalidRollNumber):
		response.BadRequest(c, codeInvalidRollNumber, err.Error())
	case errors.Is(err, service.ErrIncompleteForm):
		response.BadRequest(c, codeIncompleteForm, err.Error())
	case errors.Is(err, service.ErrSameCourse):
		response.UnprocessableEntity(c, codeSameCourse, err.Error())
	case errors.Is(err, service.ErrUnknownCourse):
		response.UnprocessableEntity(c, codeUnknownCourse, err.Error())
	case errors.Is(err, service.ErrInvalidSection):
		response.UnprocessableEntity(c, codeInvalidSection, err.Error())
	case errors.Is(err, service.ErrInvalidSemester):
		response.BadRequest(c, codeInvalidSemester, err.Error())
	case errors.Is(err, service.ErrCrossDepartment):
		response.UnprocessableEntity(c, codeCrossDepartment, err.Error())
	case errors.Is(err, service.ErrMatchBusy):
		response.Conflict(c, codeMatchBusy, service.ErrMatchBusy.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c, service.ErrStoreUnavailable.Error())
	default:
		return false
	}
	return true
}

// handleSessionError 会话错误映射，未识别的交给 handleSwapError
func handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, codeSessionNotFound, err.Error())
	case errors.Is(err, flow.ErrInvalidTransition):
		response.Conflict(c, codeInvalidTransition, err.Error())
	case errors.Is(err, flow.ErrBusy):
		response.Conflict(c, codeSessionBusy, err.Error())
	case errors.Is(err, flow.ErrInvalidIdentifier):
		response.BadRequest(c, codeInvalidIdentifier, err.Error())
	default:
		if !handleSwapError(c, err) {
			response.InternalError(c)
		}
	}
}
