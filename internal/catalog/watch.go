package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch 监听目录文件变更并热加载到 c，ctx 结束时停止
// 监听所在目录而非文件本身：编辑器常以"写临时文件再重命名"的方式保存
// 解析失败时保留旧目录，仅记录告警
func Watch(ctx context.Context, c *Catalog, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建目录监听器失败: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("解析目录路径失败: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("监听目录失败: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				next, err := LoadFile(abs)
				if err != nil {
					logger.Warn("课程目录热加载失败，保留旧目录", zap.String("path", abs), zap.Error(err))
					continue
				}
				c.Replace(next)
				logger.Info("课程目录已热加载", zap.String("path", abs), zap.Int("courses", len(next.Courses())))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("课程目录监听异常", zap.Error(err))
			}
		}
	}()

	return nil
}
