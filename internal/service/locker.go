package service

import (
	"context"
	"sync"
	"time"
)

// Locker 配对串行化锁：同一对课程的互补申请依次进入配对
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// LocalLocker 进程内锁，未配置 Redis 或 Redis 故障时使用
// 仅保证单实例内的串行化
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time // key → 过期时间
}

// NewLocalLocker 创建 LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time)}
}

// TryLock 非阻塞抢锁；过期的锁视为已释放
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, false, nil
	}
	expiresAt := now.Add(ttl)
	l.held[key] = expiresAt

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// 只释放自己持有的那把锁
		if exp, ok := l.held[key]; ok && exp.Equal(expiresAt) {
			delete(l.held, key)
		}
	}
	return release, true, nil
}
