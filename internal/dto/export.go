package dto

// ── 导出 DTO ──

// ExportPendingRequest 导出待配对申请参数
type ExportPendingRequest struct {
	Semester   int    `form:"semester"   binding:"omitempty,min=1,max=9"`
	Department string `form:"department"`
}
