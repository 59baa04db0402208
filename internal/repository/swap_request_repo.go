package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swap-corner/internal/model"
	pkgerrors "swap-corner/pkg/errors"
)

// SwapRequestFilter 待配对申请查询条件（零值字段不参与过滤）
type SwapRequestFilter struct {
	RollNumber string
	Semester   int
	Department string
}

// SwapRequestRepository 换班申请数据访问接口
type SwapRequestRepository interface {
	// ClaimReverse 在事务内锁定最早的反向候选（created_at、id 升序，先到先得）并删除
	// 无候选返回 gorm.ErrRecordNotFound；删除未命中返回 ErrCandidateGone
	ClaimReverse(ctx context.Context, req *model.SwapRequest) (*model.SwapRequest, error)
	// Create 插入新申请；同一学生的相同申请已存在时不插入，created=false
	Create(ctx context.Context, req *model.SwapRequest) (created bool, err error)
	// GetPending 按唯一键查询学生已提交的待配对申请
	GetPending(ctx context.Context, rollNumber, courseCurrent, courseTarget string, semester int) (*model.SwapRequest, error)
	// List 分页查询待配对申请
	List(ctx context.Context, filter *SwapRequestFilter, offset, limit int) ([]model.SwapRequest, int64, error)
}

// swapRequestRepo SwapRequestRepository 的 GORM 实现
type swapRequestRepo struct {
	db *gorm.DB
}

// NewSwapRequestRepo 创建 SwapRequestRepository 实例
func NewSwapRequestRepo(db *gorm.DB) SwapRequestRepository {
	return &swapRequestRepo{db: db}
}

// reverseQuery 反向候选条件：对方的 current 是我的 target，对方的 target 是我的 current
func reverseQuery(db *gorm.DB, req *model.SwapRequest) *gorm.DB {
	return db.Model(&model.SwapRequest{}).
		Where("course_current = ? AND course_target = ?", req.CourseTarget, req.CourseCurrent).
		Where("semester = ? AND department = ?", req.Semester, req.Department).
		Where("roll_number <> ?", req.RollNumber).
		Order("created_at ASC").
		Order("id ASC")
}

func (r *swapRequestRepo) ClaimReverse(ctx context.Context, req *model.SwapRequest) (*model.SwapRequest, error) {
	var claimed *model.SwapRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SKIP LOCKED：并发请求跳过已被锁定的候选，而不是排队等待同一行
		var candidates []model.SwapRequest
		if err := reverseQuery(tx, req).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Limit(1).
			Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return gorm.ErrRecordNotFound
		}

		result := tx.Where("id = ?", candidates[0].ID).Delete(&model.SwapRequest{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrCandidateGone
		}
		claimed = &candidates[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *swapRequestRepo) Create(ctx context.Context, req *model.SwapRequest) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(req)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *swapRequestRepo) GetPending(ctx context.Context, rollNumber, courseCurrent, courseTarget string, semester int) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("roll_number = ? AND course_current = ? AND course_target = ? AND semester = ?",
			rollNumber, courseCurrent, courseTarget, semester).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *swapRequestRepo) List(ctx context.Context, filter *SwapRequestFilter, offset, limit int) ([]model.SwapRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SwapRequest{})
	if filter != nil {
		if filter.RollNumber != "" {
			query = query.Where("roll_number = ?", filter.RollNumber)
		}
		if filter.Semester > 0 {
			query = query.Where("semester = ?", filter.Semester)
		}
		if filter.Department != "" {
			query = query.Where("department = ?", filter.Department)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.SwapRequest
	q := query.Order("created_at ASC").Order("id ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
