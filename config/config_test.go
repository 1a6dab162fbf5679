package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	configContent := `
server:
  port: 9090
log:
  level: "debug"
  format: "json"
gemini:
  api_url: "https://gemini.test"
  api_key: "test-key"
  model: "gemini-test"
  poll_interval_sec: 2
  poll_timeout_sec: 30
smtp:
  host: "smtp.test"
  port: 2525
  username: "mailer"
  password: "secret"
  from: "noreply@test"
archive:
  enabled: true
  endpoint: "localhost:9000"
  bucket: "deeds"
store:
  path: "test.db"
session:
  max_sessions: 50
  ttl_hours: 6
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
  admin_password_hash: "$2a$10$abc"
payment:
  delay_ms: 250
  amount_paise: 4900
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	// Test loading config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.APIURL != "https://gemini.test" {
		t.Errorf("Expected gemini api_url https://gemini.test, got %s", cfg.Gemini.APIURL)
	}
	if cfg.Gemini.PollInterval() != 2*time.Second {
		t.Errorf("Expected poll interval 2s, got %v", cfg.Gemini.PollInterval())
	}
	if cfg.Gemini.PollTimeout() != 30*time.Second {
		t.Errorf("Expected poll timeout 30s, got %v", cfg.Gemini.PollTimeout())
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("Expected smtp port 2525, got %d", cfg.SMTP.Port)
	}
	if !cfg.Archive.Enabled {
		t.Error("Expected archive to be enabled")
	}
	if cfg.Store.Path != "test.db" {
		t.Errorf("Expected store path test.db, got %s", cfg.Store.Path)
	}
	if cfg.Session.MaxSessions != 50 {
		t.Errorf("Expected 50 max sessions, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token expire 48h, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Payment.AmountPaise != 4900 {
		t.Errorf("Expected amount 4900 paise, got %d", cfg.Payment.AmountPaise)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString("server:\n  port: 0\n"); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Gemini.APIURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("Unexpected default gemini api_url: %s", cfg.Gemini.APIURL)
	}
	if cfg.Gemini.PollIntervalSec != 1 {
		t.Errorf("Expected default poll interval 1s, got %d", cfg.Gemini.PollIntervalSec)
	}
	if cfg.Gemini.RetryDelaySec != 10 {
		t.Errorf("Expected default retry delay 10s, got %d", cfg.Gemini.RetryDelaySec)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("Expected default smtp port 587, got %d", cfg.SMTP.Port)
	}
	if cfg.Store.Path != "dastaavej.db" {
		t.Errorf("Expected default store path, got %s", cfg.Store.Path)
	}
	if cfg.Payment.DelayMs != 1000 {
		t.Errorf("Expected default payment delay 1000ms, got %d", cfg.Payment.DelayMs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}
