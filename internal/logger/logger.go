package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with default configuration
func NewLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewProductionLogger creates a JSON logger writing to stderr so stdout stays free for command output
func NewProductionLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build production logger: %w", err)
	}
	return logger, nil
}

// NewDevelopmentLogger creates a new zap logger configured for development use
func NewDevelopmentLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build development logger: %w", err)
	}
	return logger, nil
}

// NewLoggerForConfig picks the development logger at debug level when debug is set,
// otherwise a production logger at info level
func NewLoggerForConfig(debug bool) (*zap.Logger, error) {
	if debug {
		return NewDevelopmentLogger()
	}
	return NewProductionLogger()
}

// Level reports the minimum enabled level of a logger
func Level(logger *zap.Logger) zapcore.Level {
	for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		if logger.Core().Enabled(lvl) {
			return lvl
		}
	}
	return zapcore.FatalLevel
}
