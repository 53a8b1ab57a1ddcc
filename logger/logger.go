package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

// Init builds the global sugared logger. Set PAGERACE_DEBUG for
// human-readable development output.
func Init() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("PAGERACE_DEBUG") != "" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries, for use on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
