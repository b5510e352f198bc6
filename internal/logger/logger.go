package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L - глобальный логгер. До вызова Init пишет в stderr на уровне info
var L *zap.SugaredLogger

func init() {
	z, _ := zap.NewProduction()
	L = z.Sugar()
}

type Config struct {
	// debug, info, warn, error
	Level string
	// Путь к файлу. Если пустой, пишем только в консоль
	File string
	// Ротация файла, в мегабайтах, штуках и днях
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Init пересоздает глобальный логгер по конфигу
func Init(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}

		// Пишем одновременно в файл с ротацией и в консоль
		output = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    positiveOr(cfg.MaxSize, 64),
			MaxBackups: positiveOr(cfg.MaxBackups, 3),
			MaxAge:     positiveOr(cfg.MaxAge, 7),
			Compress:   true,
		})
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(output),
		level,
	)

	L = zap.New(core).Sugar()
	return nil
}

// Sync сбрасывает буферы, вызывать перед выходом
func Sync() {
	_ = L.Sync()
}

// Named возвращает дочерний логгер для компонента
func Named(name string) *zap.SugaredLogger {
	return L.Named(name)
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
