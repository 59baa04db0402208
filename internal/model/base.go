package model

import "time"

// 学期取值范围
const (
	MinSemester = 1
	MaxSemester = 9
)

// CreatedModel 仅含创建时间的审计字段（记录创建后不再更新）
type CreatedModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
