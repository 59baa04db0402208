package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer 邮件投递接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer 仅将邮件写入日志，不做真实投递
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer 创建 LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send 记录邮件内容
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("发送配对邮件",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
