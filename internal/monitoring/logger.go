package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level is a log severity. Higher is more severe.
type Level int

const (
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// zapLevel maps l onto the zap level of the same severity. CRITICAL is zap's
// DPanic, which only logs in a production logger.
func (l Level) zapLevel() zapcore.Level {
	switch {
	case l <= LevelDebug:
		return zapcore.DebugLevel
	case l <= LevelInfo:
		return zapcore.InfoLevel
	case l <= LevelWarning:
		return zapcore.WarnLevel
	case l <= LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.DPanicLevel
}

// ParseLevel accepts the level names case-insensitively ("warn" is WARNING).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Options configure the leveled logger. A record is written to a sink when
// its level is at least both Level and the sink's own level.
type Options struct {
	Level        Level
	ConsoleLevel Level
	FileLevel    Level
	// FilePath is the log file; empty disables the file sink.
	FilePath string
	// MaxFileMB rotates the file once it reaches this size. Zero means
	// DefaultMaxFileMB.
	MaxFileMB int
	// Console defaults to os.Stderr.
	Console io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultMaxFileMB is the rotation size of the log file.
const DefaultMaxFileMB = 5

// DefaultOptions log errors to the console and warnings to srukf.log.
func DefaultOptions() Options {
	return Options{
		Level:        LevelDebug,
		ConsoleLevel: LevelError,
		FileLevel:    LevelWarning,
		FilePath:     "srukf.log",
		MaxFileMB:    DefaultMaxFileMB,
	}
}

const loggerName = "srukf"

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
	file   *lumberjack.Logger
)

// levelNames prints zap levels with the names of Level.
func levelNames(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString(LevelDebug.String())
	case zapcore.InfoLevel:
		enc.AppendString(LevelInfo.String())
	case zapcore.WarnLevel:
		enc.AppendString(LevelWarning.String())
	case zapcore.ErrorLevel:
		enc.AppendString(LevelError.String())
	default:
		enc.AppendString(LevelCritical.String())
	}
}

func encoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeLevel:      levelNames,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " | ",
	})
}

// enabler passes records at or above both the package and the sink level.
func enabler(pkg, sink Level) zap.LevelEnablerFunc {
	p, s := pkg.zapLevel(), sink.zapLevel()
	return func(l zapcore.Level) bool { return l >= p && l >= s }
}

// clock adapts a time source to zapcore.Clock.
type clock func() time.Time

func (c clock) Now() time.Time                         { return c() }
func (c clock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Configure installs a zap logger with one core per sink and routes Logf
// through it at INFO. It closes any file opened by a previous call.
func Configure(o Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	console := o.Console
	if console == nil {
		console = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(encoder(), zapcore.Lock(zapcore.AddSync(console)), enabler(o.Level, o.ConsoleLevel)),
	}

	if o.FilePath != "" {
		if _, err := os.Stat(filepath.Dir(o.FilePath)); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		maxMB := o.MaxFileMB
		if maxMB <= 0 {
			maxMB = DefaultMaxFileMB
		}
		file = &lumberjack.Logger{Filename: o.FilePath, MaxSize: maxMB, MaxBackups: 1}
		cores = append(cores, zapcore.NewCore(encoder(), zapcore.AddSync(file), enabler(o.Level, o.FileLevel)))
	}

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	logger = zap.New(zapcore.NewTee(cores...), zap.WithClock(clock(now))).Named(loggerName).Sugar()
	Logf = Infof
	return nil
}

func closeLocked() error {
	_ = logger.Sync()
	logger = zap.NewNop().Sugar()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Close flushes and releases the log file, if any, and restores log.Printf
// as Logf.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	Logf = log.Printf
	return closeLocked()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, v ...interface{})    { current().Debugf(format, v...) }
func Infof(format string, v ...interface{})     { current().Infof(format, v...) }
func Warnf(format string, v ...interface{})     { current().Warnf(format, v...) }
func Errorf(format string, v ...interface{})    { current().Errorf(format, v...) }
func Criticalf(format string, v ...interface{}) { current().DPanicf(format, v...) }
