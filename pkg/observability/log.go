package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, errors at warn.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnInitStart(_ context.Context, width, height int) {
	h.logger.Debug("building permutation", "width", width, "height", height)
}

func (h *LogHooks) OnInitComplete(_ context.Context, width, height int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("permutation failed", "width", width, "height", height, "err", err)
		return
	}
	h.logger.Debug("permutation ready", "pixels", width*height, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnFrameStart(_ context.Context, kind string) {}

func (h *LogHooks) OnFrameComplete(_ context.Context, kind string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "kind", kind, "err", err)
		return
	}
	h.logger.Debug("rendered", "kind", kind, "took", d.Round(time.Microsecond))
}

func (h *LogHooks) OnExportStart(_ context.Context, format string, frames int) {
	h.logger.Debug("export started", "format", format, "frames", frames)
}

func (h *LogHooks) OnExportComplete(_ context.Context, format string, frames int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("export failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("export finished", "format", format, "frames", frames, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Info("request", "method", method, "route", route, "status", status, "took", d.Round(time.Microsecond))
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
