package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望 port=9090，实际=%d", cfg.Server.Port)
	}
	if cfg.Notifier.Mode != NotifierModeLocal {
		t.Errorf("期望 notifier.mode=local，实际=%s", cfg.Notifier.Mode)
	}
	if cfg.Notifier.Timeout != 10*time.Second {
		t.Errorf("期望 notifier.timeout=10s，实际=%s", cfg.Notifier.Timeout)
	}
	if cfg.Match.MaxClaimRetries != 3 {
		t.Errorf("期望 match.max_claim_retries=3，实际=%d", cfg.Match.MaxClaimRetries)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("期望 session.ttl=30m，实际=%s", cfg.Session.TTL)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("显式指定的配置文件不存在时应返回错误")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	t.Setenv("SWAP_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("期望环境变量覆盖 log.level=debug，实际=%s", cfg.Log.Level)
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Notifier: NotifierConfig{Mode: NotifierModeLocal},
		Match:    MatchConfig{LockTTL: 5 * time.Second, MaxClaimRetries: 3},
		Session:  SessionConfig{TTL: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"未知通知模式", func(c *Config) { c.Notifier.Mode = "smtp" }, true},
		{"http 模式缺少 URL", func(c *Config) { c.Notifier.Mode = NotifierModeHTTP }, true},
		{"http 模式带 URL", func(c *Config) {
			c.Notifier.Mode = NotifierModeHTTP
			c.Notifier.FunctionURL = "https://example.test/functions/v1/send-match-email"
		}, false},
		{"重试次数为 0", func(c *Config) { c.Match.MaxClaimRetries = 0 }, true},
		{"会话 TTL 为 0", func(c *Config) { c.Session.TTL = 0 }, true},
		{"watch 无 path", func(c *Config) { c.Catalog.Watch = true }, true},
		{"lock_ttl 为 0", func(c *Config) { c.Match.LockTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v，期望出错=%v", err, tt.wantErr)
			}
		})
	}
}
