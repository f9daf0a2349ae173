package memory

import (
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the memory package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the memory package's logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapModule(mod api.Module) zap.Field {
	return zap.String("module", mod.Name())
}

func zapRange(base, size uint32) zap.Field {
	return zap.Dict("range", zap.Uint32("base", base), zap.Uint32("size", size))
}
