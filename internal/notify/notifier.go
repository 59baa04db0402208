// Package notify 配对通知：外部通知函数调用、异步派发、邮件模板与写信链接
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"swap-corner/config"
)

// ErrNotificationFailed 通知调用失败（仅记录日志，不影响配对结果）
var ErrNotificationFailed = errors.New("配对通知发送失败")

// Notifier 配对通知接口：一次调用携带双方学号，邮箱推导在通知方完成
type Notifier interface {
	NotifyMatch(ctx context.Context, roll1, roll2 string) error
}

// NotifierFunc 函数适配器
type NotifierFunc func(ctx context.Context, roll1, roll2 string) error

// NotifyMatch 实现 Notifier
func (f NotifierFunc) NotifyMatch(ctx context.Context, roll1, roll2 string) error {
	return f(ctx, roll1, roll2)
}

// MatchNotification 通知函数请求体
type MatchNotification struct {
	Roll1 string `json:"roll1"`
	Roll2 string `json:"roll2"`
}

// HTTPNotifier 通过 HTTP 调用外部通知函数
type HTTPNotifier struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPNotifier 创建 HTTPNotifier
func NewHTTPNotifier(cfg *config.NotifierConfig) *HTTPNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		url:    cfg.FunctionURL,
		apiKey: cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// CloseIdleConnections 关闭空闲连接，停机时调用
func (n *HTTPNotifier) CloseIdleConnections() {
	n.client.CloseIdleConnections()
}

// NotifyMatch POST {roll1, roll2}，非 2xx 视为失败
func (n *HTTPNotifier) NotifyMatch(ctx context.Context, roll1, roll2 string) error {
	body, err := json.Marshal(MatchNotification{Roll1: roll1, Roll2: roll2})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: 通知函数返回 HTTP %d", ErrNotificationFailed, resp.StatusCode)
	}
	return nil
}
