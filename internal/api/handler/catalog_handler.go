package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"swap-corner/internal/dto"
	"swap-corner/internal/service"
	"swap-corner/pkg/response"
)

// CatalogHandler 课程目录与学号校验 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListCourses 课程搜索
// GET /api/v1/courses?q=&department=&limit=
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var req dto.CourseSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}
	response.OK(c, gin.H{"list": h.catalogSvc.Search(&req)})
}

// GetCourse 课程详情
// GET /api/v1/courses/:code
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalogSvc.GetCourse(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.NotFound(c, 22001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, course)
}

// ListSections 班级列表
// GET /api/v1/sections
func (h *CatalogHandler) ListSections(c *gin.Context) {
	response.OK(c, gin.H{"list": h.catalogSvc.Sections()})
}

// ListDepartments 院系列表
// GET /api/v1/departments
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	response.OK(c, gin.H{"list": h.catalogSvc.Departments()})
}

// ValidateRollNumber 学号格式校验
// POST /api/v1/roll-numbers/validate
func (h *CatalogHandler) ValidateRollNumber(c *gin.Context) {
	var req dto.RollNumberValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	response.OK(c, h.catalogSvc.ValidateRollNumber(req.RollNumber))
}
