package core

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/docgate/docgate/internals/dispatch"
)

// NewAuditLogger writes permission decisions as JSON lines to path.
func NewAuditLogger(path string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func AuditSink(logger *zap.Logger) func(dispatch.AuditRecord) {
	return func(record dispatch.AuditRecord) {
		d := record.Decision
		fields := []zap.Field{
			zap.String("task_id", record.TaskID),
			zap.String("tool", record.Tool),
			zap.String("user", d.Subject),
			zap.String("resource", d.Resource),
			zap.String("action", d.Action),
			zap.Bool("allowed", d.Allowed),
		}
		if d.Allowed {
			logger.Info("permission granted", fields...)
			return
		}
		logger.Warn("permission denied", fields...)
	}
}
