package dto

// ── 课程目录 DTO ──

// CourseSearchRequest 课程搜索参数
type CourseSearchRequest struct {
	Query      string `form:"q"`
	Department string `form:"department"`
	Limit      int    `form:"limit"      binding:"omitempty,min=1,max=100"`
}

// CourseResponse 课程信息
type CourseResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// RollNumberValidateRequest 学号校验请求
type RollNumberValidateRequest struct {
	RollNumber string `json:"roll_number"`
}

// RollNumberValidateResponse 学号校验结果
type RollNumberValidateResponse struct {
	RollNumber string `json:"roll_number"` // 规范化后的学号
	Valid      bool   `json:"valid"`
	Email      string `json:"email,omitempty"`
}
