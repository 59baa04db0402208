package dto

// ── 配对通知函数 DTO ──

// SendMatchEmailRequest 通知函数请求
type SendMatchEmailRequest struct {
	Roll1 string `json:"roll1"`
	Roll2 string `json:"roll2"`
}

// EmailResult 单个收件人的发送结果
type EmailResult struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
	Error   string `json:"error,omitempty"`
}

// SendMatchEmailResponse 通知函数响应
type SendMatchEmailResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Results map[string]EmailResult `json:"results"` // email1 / email2
}
