package dto

// ── 页面会话 DTO ──

// SessionIdentifierRequest 会话中提交学号
type SessionIdentifierRequest struct {
	RollNumber string `json:"roll_number" binding:"required"`
}

// SessionSubmitRequest 会话中提交选课（完整性由业务层校验）
type SessionSubmitRequest struct {
	CurrentCourse  string `json:"current_course"`
	CurrentSection string `json:"current_section"`
	TargetCourse   string `json:"target_course"`
	TargetSection  string `json:"target_section"`
	Semester       int    `json:"semester"`
}

// SelectionResponse 会话中的选课表单
type SelectionResponse struct {
	CurrentCourse  string `json:"current_course"`
	CurrentSection string `json:"current_section"`
	TargetCourse   string `json:"target_course"`
	TargetSection  string `json:"target_section"`
	Semester       int    `json:"semester"`
}

// SessionResponse 会话快照
type SessionResponse struct {
	ID         string               `json:"id"`
	State      string               `json:"state"`
	RollNumber string               `json:"roll_number,omitempty"`
	Email      string               `json:"email,omitempty"`
	Selection  SelectionResponse    `json:"selection"`
	Result     *MatchResultResponse `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	UpdatedAt  string               `json:"updated_at"`
}
