package alloc

import (
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/logger"
)

// Runtime debug flag for allocation logging - controlled by MEMKIT_LOG_ALLOC env var.
var logAlloc atomic.Bool

func init() {
	if os.Getenv("MEMKIT_LOG_ALLOC") != "" {
		logAlloc.Store(true)
		logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug})
	}
}

// SetDebugLog toggles allocation logging at runtime. Output goes to
// internal/logger, which must itself be enabled.
func SetDebugLog(on bool) {
	logAlloc.Store(on)
}

func logDebug(msg string, args ...any) {
	if logAlloc.Load() {
		logger.Debug(msg, args...)
	}
}
