package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"swap-corner/internal/observability"
)

// Dispatcher 配对通知的异步派发器
//
// 配对结果确定后调用 Dispatch 即返回；通知在独立 goroutine 中执行，
// 失败只写日志与指标，不回传给调用方。Close 等待在途通知完成
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 创建派发器；timeout 为单次通知的超时
func NewDispatcher(n Notifier, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		notifier: n,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch 派发一次配对通知，立即返回
func (d *Dispatcher) Dispatch(roll1, roll2 string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("派发器已关闭，丢弃配对通知",
			zap.String("roll1", roll1),
			zap.String("roll2", roll2),
		)
		d.metrics.ObserveNotification(false)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.NotifyMatch(ctx, roll1, roll2); err != nil {
			d.logger.Error("配对通知发送失败",
				zap.String("roll1", roll1),
				zap.String("roll2", roll2),
				zap.Error(err),
			)
			d.metrics.ObserveNotification(false)
			return
		}
		d.logger.Info("配对通知已发送", zap.String("roll1", roll1), zap.String("roll2", roll2))
		d.metrics.ObserveNotification(true)
	}()
}

// Close 停止接收新通知并等待在途通知完成，ctx 到期时提前返回
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
