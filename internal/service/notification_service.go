package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swap-corner/internal/dto"
	"swap-corner/internal/notify"
)

// ── 配对通知业务错误 ──

var ErrMissingRollNumbers = errors.New("双方学号均为必填")

// NotificationService 配对通知函数：给双方各发一封配对邮件
//
// 同时实现 notify.Notifier，notifier.mode=local 时派发器直接调用本服务
type NotificationService interface {
	notify.Notifier
	SendMatchEmails(ctx context.Context, req *dto.SendMatchEmailRequest) (*dto.SendMatchEmailResponse, error)
}

type notificationService struct {
	mailer notify.Mailer
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(mailer notify.Mailer, logger *zap.Logger) NotificationService {
	return &notificationService{mailer: mailer, logger: logger}
}

// ────────────────────── SendMatchEmails ──────────────────────

func (s *notificationService) SendMatchEmails(ctx context.Context, req *dto.SendMatchEmailRequest) (*dto.SendMatchEmailResponse, error) {
	roll1 := strings.TrimSpace(req.Roll1)
	roll2 := strings.TrimSpace(req.Roll2)
	if roll1 == "" || roll2 == "" {
		return nil, ErrMissingRollNumbers
	}

	// 邮件正文互为对方，先全部构造完成再发送
	msg1, err := notify.MatchEmail(roll1, roll2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", roll1, err)
	}
	msg2, err := notify.MatchEmail(roll2, roll1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", roll2, err)
	}

	results := make([]dto.EmailResult, 2)
	var g errgroup.Group
	for i, msg := range []notify.Message{msg1, msg2} {
		g.Go(func() error {
			results[i] = dto.EmailResult{Email: msg.To, Success: true}
			if err := s.mailer.Send(ctx, msg); err != nil {
				s.logger.Error("配对邮件发送失败", zap.String("to", msg.To), zap.Error(err))
				results[i].Success = false
				results[i].Error = err.Error()
				return err
			}
			return nil
		})
	}
	sendErr := g.Wait()

	resp := &dto.SendMatchEmailResponse{
		Success: sendErr == nil,
		Message: "Match notifications sent successfully",
		Results: map[string]dto.EmailResult{
			"email1": results[0],
			"email2": results[1],
		},
	}
	if sendErr != nil {
		resp.Message = "Failed to send match notification"
		return resp, fmt.Errorf("%w: %v", notify.ErrNotificationFailed, sendErr)
	}
	return resp, nil
}

// NotifyMatch 实现 notify.Notifier
func (s *notificationService) NotifyMatch(ctx context.Context, roll1, roll2 string) error {
	_, err := s.SendMatchEmails(ctx, &dto.SendMatchEmailRequest{Roll1: roll1, Roll2: roll2})
	return err
}

// 编译期接口检查
var _ notify.Notifier = (*notificationService)(nil)
