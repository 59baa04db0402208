package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SwapRequest 换班申请表，对应 swap_requests
//
// 生命周期：无配对时创建；被反向申请配对时删除；从不更新
type SwapRequest struct {
	ID            string `gorm:"type:uuid;primaryKey"                                     json:"id"`
	RollNumber    string `gorm:"type:varchar(8);not null;index:uq_swap_requests_pending,unique,priority:1"  json:"roll_number"`
	CourseCurrent string `gorm:"type:varchar(64);not null;index:uq_swap_requests_pending,unique,priority:2" json:"course_current"` // "CS2001 A"
	CourseTarget  string `gorm:"type:varchar(64);not null;index:uq_swap_requests_pending,unique,priority:3" json:"course_target"`
	Semester      int    `gorm:"type:smallint;not null;index:uq_swap_requests_pending,unique,priority:4"    json:"semester"`
	Department    string `gorm:"type:varchar(16);not null"                                json:"department"`
	CreatedModel
}

// TableName 指定表名
func (SwapRequest) TableName() string { return "swap_requests" }

// BeforeCreate 未指定主键时生成 UUID（PostgreSQL 端另有 gen_random_uuid() 默认值）
func (r *SwapRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsReverseOf 判断 r 是否为 other 的反向申请（同学期、同院系、课程互换、不同学生）
func (r *SwapRequest) IsReverseOf(other *SwapRequest) bool {
	return r.CourseCurrent == other.CourseTarget &&
		r.CourseTarget == other.CourseCurrent &&
		r.Semester == other.Semester &&
		r.Department == other.Department &&
		r.RollNumber != other.RollNumber
}
