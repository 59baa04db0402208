package service

import (
	"errors"
	"strings"

	"swap-corner/internal/catalog"
	"swap-corner/internal/dto"
	"swap-corner/pkg/rollnumber"
)

// ── 课程目录业务错误 ──

var ErrCourseNotFound = errors.New("课程不存在")

// CatalogService 课程目录查询与学号校验
type CatalogService interface {
	// Search 课程搜索；院系为空时不过滤，查询为空时返回最近的课程
	Search(req *dto.CourseSearchRequest) []dto.CourseResponse
	GetCourse(code string) (*dto.CourseResponse, error)
	Sections() []string
	Departments() []string
	// ValidateRollNumber 学号输入页的即时校验
	ValidateRollNumber(input string) *dto.RollNumberValidateResponse
}

type catalogService struct {
	catalog *catalog.Catalog
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(cat *catalog.Catalog) CatalogService {
	return &catalogService{catalog: cat}
}

func (s *catalogService) Search(req *dto.CourseSearchRequest) []dto.CourseResponse {
	limit := req.Limit
	if limit <= 0 {
		limit = catalog.DefaultSearchLimit
	}
	courses := s.catalog.Search(strings.TrimSpace(req.Query), strings.TrimSpace(req.Department), limit)

	result := make([]dto.CourseResponse, 0, len(courses))
	for _, c := range courses {
		result = append(result, toCourseResponse(c))
	}
	return result
}

func (s *catalogService) GetCourse(code string) (*dto.CourseResponse, error) {
	c, ok := s.catalog.Lookup(code)
	if !ok {
		return nil, ErrCourseNotFound
	}
	resp := toCourseResponse(c)
	return &resp, nil
}

func (s *catalogService) Sections() []string {
	return s.catalog.Sections()
}

func (s *catalogService) Departments() []string {
	return s.catalog.Departments()
}

func (s *catalogService) ValidateRollNumber(input string) *dto.RollNumberValidateResponse {
	roll := rollnumber.Normalize(input)
	resp := &dto.RollNumberValidateResponse{RollNumber: roll, Valid: rollnumber.Validate(roll)}
	if resp.Valid {
		resp.Email, _ = rollnumber.ToEmail(roll)
	}
	return resp
}

func toCourseResponse(c catalog.Course) dto.CourseResponse {
	return dto.CourseResponse{Code: c.Code, Name: c.Name, Department: c.Department}
}
