package kit

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewLogger builds the production JSON logger tagged with service. level is a
// zap level name; empty means info.
func NewLogger(service, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": service}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
