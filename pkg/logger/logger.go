package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

type Logger struct {
	mu    sync.Mutex
	level zap.AtomicLevel
	cfg   Config
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config controls the console encoder and the optional rotating log file.
type Config struct {
	Level      LogLevel
	Prefix     string
	JSON       bool
	Colorize   bool
	ShowCaller bool
	ShowTime   bool
	TimeFormat string
	Output     io.Writer

	// FilePath enables a lumberjack-rotated JSON log next to the console output.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Colorize:   true,
		ShowTime:   true,
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}

	l := &Logger{
		level: zap.NewAtomicLevelAt(cfg.Level.zapLevel()),
		cfg:   cfg,
	}
	l.build()
	return l
}

func (l *Logger) build() {
	cfg := l.cfg

	encCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if cfg.ShowTime {
		encCfg.TimeKey = "time"
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	}
	if cfg.Colorize && !cfg.JSON {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if !cfg.ShowCaller {
		encCfg.CallerKey = zapcore.OmitKey
	}

	var consoleEnc zapcore.Encoder
	if cfg.JSON {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	} else {
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(consoleEnc, zapcore.AddSync(cfg.Output), l.level)

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			fileEncCfg := encCfg
			fileEncCfg.TimeKey = "timestamp"
			fileEncCfg.EncodeTime = zapcore.RFC3339TimeEncoder
			fileEncCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			})
			core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncCfg), fileWriter, l.level))
		}
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.ShowCaller {
		opts = append(opts, zap.AddCaller())
	}
	l.base = zap.New(core, opts...)
	if cfg.Prefix != "" {
		l.base = l.base.Named(cfg.Prefix)
	}
	l.sugar = l.base.Sugar()
}

func GetLogger() *Logger {
	once.Do(func() {
		cfg := DefaultConfig()
		if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
			cfg.Level = ParseLevel(envLevel)
		}
		if envFile := os.Getenv("LOG_FILE"); envFile != "" {
			cfg.FilePath = envFile
		}
		defaultLogger = New(cfg)
	})
	return defaultLogger
}

// Configure replaces the default logger's configuration.
func Configure(cfg Config) *Logger {
	l := GetLogger()
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg.Output == nil {
		cfg.Output = l.cfg.Output
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = l.cfg.TimeFormat
	}
	l.cfg = cfg
	l.level.SetLevel(cfg.Level.zapLevel())
	l.build()
	return l
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Output = w
	l.build()
}

func (l *Logger) SetColorize(colorize bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.Colorize = colorize
	l.build()
}

func (l *Logger) SetShowCaller(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cfg.ShowCaller = show
	l.build()
}

// Zap exposes the underlying structured logger.
func (l *Logger) Zap() *zap.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.base
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &Logger{level: l.level, cfg: l.cfg}
	child.sugar = l.sugar.With(keysAndValues...)
	child.base = child.sugar.Desugar()
	return child
}

func (l *Logger) Sync() error {
	return l.sugared().Sync()
}

func (l *Logger) sugared() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

func (l *Logger) Debugf(format string, args ...any) {
	l.sugared().Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.sugared().Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugared().Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugared().Errorf(format, args...)
}

// Fatalf logs at FATAL level and exits the program.
func (l *Logger) Fatalf(format string, args ...any) {
	l.sugared().Fatalf(format, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.Debugf(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.Infof(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Warnf(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.Errorf(msg, args...) }
func (l *Logger) Fatal(msg string, args ...any) { l.Fatalf(msg, args...) }

// Package-level convenience functions using the default logger

func Debugf(format string, args ...any) {
	GetLogger().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	GetLogger().Fatalf(format, args...)
}

func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}
