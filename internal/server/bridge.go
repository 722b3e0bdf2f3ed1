package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/orchestrator"
)

// LogBridge is a StateBridge that logs every tool call. Arguments are
// not logged; they can carry user content.
type LogBridge struct {
	log     *zap.Logger
	started map[string]time.Time
}

var _ orchestrator.StateBridge = (*LogBridge)(nil)

// NewLogBridge creates a bridge logging under the "tools" name.
func NewLogBridge(logger *zap.Logger) *LogBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogBridge{log: logger.Named("tools"), started: make(map[string]time.Time)}
}

// BeforeCall notes the start of a call. Calls are serialized by the
// orchestrator, so one start per tool name is enough.
func (b *LogBridge) BeforeCall(_ context.Context, tool string, args map[string]any) error {
	b.started[tool] = time.Now()
	b.log.Debug("tool call", zap.String("tool", tool), zap.Int("args", len(args)))
	return nil
}

// AfterCall logs how the call ended.
func (b *LogBridge) AfterCall(_ context.Context, tool string, _ map[string]any, res *orchestrator.Result) error {
	fields := []zap.Field{zap.String("tool", tool)}
	if start, ok := b.started[tool]; ok {
		fields = append(fields, zap.Duration("elapsed", time.Since(start)))
		delete(b.started, tool)
	}

	switch {
	case res == nil:
		b.log.Warn("tool call returned no result", fields...)
	case res.IsError:
		b.log.Info("tool call failed", append(fields, zap.String("error", res.Message))...)
	case res.RequiresApproval:
		b.log.Info("tool call needs approval", append(fields, zap.String("reason", res.Reason))...)
	default:
		b.log.Debug("tool call done", fields...)
	}
	return nil
}
