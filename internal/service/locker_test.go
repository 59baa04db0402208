package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"swap-corner/internal/flow"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("首次抢锁应成功: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); ok {
		t.Error("锁被持有时不应再次获得")
	}
	if _, ok, _ := l.TryLock(ctx, "other", time.Minute); !ok {
		t.Error("不同键互不影响")
	}

	release()
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); !ok {
		t.Error("释放后应可重新获得")
	}
}

func TestLocalLocker_Expiry(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	staleRelease, _, _ := l.TryLock(ctx, "k", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok, _ := l.TryLock(ctx, "k", time.Minute)
	if !ok {
		t.Fatal("过期的锁应视为已释放")
	}
	// 旧持有者释放不应影响新持有者
	staleRelease()
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); ok {
		t.Error("旧持有者不应释放新持有者的锁")
	}
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore().(*memorySessionStore)
	ctx := context.Background()
	now := mockBaseTime
	store.now = func() time.Time { return now }

	sess := flow.New("s1", now)
	if err := store.Save(ctx, sess, time.Minute); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	got, err := store.Get(ctx, "s1")
	if err != nil || got.ID != "s1" {
		t.Fatalf("读取失败: %+v %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("过期会话应返回 ErrSessionNotFound，实际: %v", err)
	}

	_ = store.Save(ctx, sess, time.Minute)
	_ = store.Delete(ctx, "s1")
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("删除后应返回 ErrSessionNotFound，实际: %v", err)
	}
}
