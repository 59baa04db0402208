package dto

// ── 换班申请 DTO ──

// SubmitSwapRequest 提交换班申请，字段校验由 BuildRequest 完成以返回具体错误码
type SubmitSwapRequest struct {
	RollNumber     string `json:"roll_number"`
	CurrentCourse  string `json:"current_course"`
	CurrentSection string `json:"current_section"`
	TargetCourse   string `json:"target_course"`
	TargetSection  string `json:"target_section"`
	Semester       int    `json:"semester"`
}

// SwapRequestListRequest 待配对申请列表查询参数
type SwapRequestListRequest struct {
	PaginationRequest
	RollNumber string `form:"roll_number"`
	Semester   int    `form:"semester"   binding:"omitempty,min=1,max=9"`
	Department string `form:"department"`
}

// SwapRequestResponse 待配对申请
type SwapRequestResponse struct {
	ID            string `json:"id"`
	RollNumber    string `json:"roll_number"`
	CourseCurrent string `json:"course_current"`
	CourseTarget  string `json:"course_target"`
	Semester      int    `json:"semester"`
	Department    string `json:"department"`
	CreatedAt     string `json:"created_at"`
}

// 配对结果状态
const (
	MatchStatusMatched = "matched"
	MatchStatusPending = "pending"
)

// MatchResultResponse 提交后的配对结果
type MatchResultResponse struct {
	Status           string `json:"status"` // matched / pending
	Matched          bool   `json:"matched"`
	CounterpartRoll  string `json:"counterpart_roll,omitempty"`
	CounterpartEmail string `json:"counterpart_email,omitempty"`
	ComposeLink      string `json:"compose_link,omitempty"`
	CourseCurrent    string `json:"course_current"`
	CourseTarget     string `json:"course_target"`
	Message          string `json:"message"`
}
