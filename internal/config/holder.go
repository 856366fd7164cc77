package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Holder owns the live configuration and swaps it atomically on reload.
type Holder struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Config]

	// reloadMu serializes reloads; readers never block.
	reloadMu sync.Mutex
}

// NewHolder loads path (writing defaults first if missing) and returns a
// holder serving it.
func NewHolder(path string, logger *slog.Logger) (*Holder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		return nil, err
	}
	h := &Holder{path: path, logger: logger}
	h.current.Store(cfg)
	return h, nil
}

// Static returns a holder that always serves cfg. Reload is a no-op.
func Static(cfg *Config) *Holder {
	h := &Holder{logger: slog.Default()}
	h.current.Store(cfg)
	return h
}

// Current returns the live configuration. Callers must not modify it.
func (h *Holder) Current() *Config {
	return h.current.Load()
}

// Path returns the file the holder reloads from, or "" for a static holder.
func (h *Holder) Path() string {
	return h.path
}

// Reload re-reads the file. On error the previous configuration stays live.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}

	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	cfg, err := Load(h.path)
	if err != nil {
		h.logger.Error("config reload failed", "path", h.path, "error", err)
		return fmt.Errorf("reload config: %w", err)
	}
	h.current.Store(cfg)
	h.logger.Info("config reloaded", "path", h.path)
	return nil
}
