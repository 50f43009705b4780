// Package logging manages the application logger lifecycle: a bootstrap
// stderr logger available before configuration loads, upgraded afterwards
// to also write rotated JSON logs to a file.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation policy for the log file.
const (
	logMaxSizeMB  = 50
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// Manager handles logger lifecycle including bootstrap-to-full mode
// transitions. Components obtain a logger via Logger() and use it for all
// logging; the returned logger is stable across Upgrade calls.
type Manager struct {
	handler *SwappableHandler
	logger  *slog.Logger
	rotator *lumberjack.Logger
	level   *slog.LevelVar
	mu      sync.Mutex
}

// NewManager creates a logging manager in bootstrap mode.
// Bootstrap mode writes only to stderr using text format.
// Call Upgrade() after config is available to enable file logging.
func NewManager() *Manager {
	level := new(slog.LevelVar)
	level.Set(DefaultLevel)

	opts := &slog.HandlerOptions{Level: level}
	bootstrap := slog.NewTextHandler(os.Stderr, opts)

	handler := NewSwappableHandler(bootstrap)

	return &Manager{
		handler: handler,
		logger:  slog.New(handler),
		level:   level,
	}
}

// Logger returns the current logger instance.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade transitions from bootstrap mode (stderr-only) to full mode
// (stderr text + rotated JSON file). Call after the config subsystem is
// initialized. Returns an error if the log directory cannot be created.
func (m *Manager) Upgrade(logFilePath string, level slog.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}

	if m.rotator != nil {
		_ = m.rotator.Close()
	}
	m.rotator = rotator

	m.level.Set(level)

	opts := &slog.HandlerOptions{Level: m.level}

	fullHandler := slogmulti.Fanout(
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewJSONHandler(rotator, opts),
	)

	// Atomic swap; all future log calls use the new handler.
	m.handler.Swap(fullHandler)

	return nil
}

// SetLevel changes the log level at runtime.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Close cleanly shuts down the logger, closing the log file if open.
// Should be called during application shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rotator != nil {
		err := m.rotator.Close()
		m.rotator = nil
		return err
	}
	return nil
}
