package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chaosdash/internal/config"
)

// New builds the process logger. A configured file gets JSON lines;
// otherwise console output goes to fallback. With neither the logger
// discards everything, which is what the TUI wants since it owns the
// terminal.
func New(cfg config.LogConfig, fallback io.Writer) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log.level: %w", err)
	}

	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.AddSync(f), level)
		logger := zap.New(core)
		return logger, func() error {
			logger.Sync()
			return f.Close()
		}, nil

	case fallback != nil:
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(fallback), level)
		logger := zap.New(core)
		return logger, func() error { return nil }, nil
	}

	return zap.NewNop(), func() error { return nil }, nil
}
