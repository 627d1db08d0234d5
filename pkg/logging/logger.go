// Package logging provides component loggers that share one log file per run.
//
// Every logger created in a process writes to
// ~/.titleforge/logs/<session-id>-titleforge.log through a tint handler. When
// the console is enabled (the --verbose flag), records are mirrored to it as
// coloured output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

const timeFormat = "2006-01-02 15:04:05.000"

// Logger is a component logger backed by log/slog.
type Logger struct {
	slog      *slog.Logger
	file      *os.File
	sessionID string
	component string
	logPath   string
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is resolved under the user's home unless already set.
	logDir   string
	initOnce sync.Once
	initErr  error

	level   = new(slog.LevelVar)
	console atomic.Pointer[slog.Handler]
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".titleforge", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

// NewLogger creates a logger for component.
//
// If the log file cannot be opened, a logger writing to stderr is returned
// together with the error so callers can report the fallback.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, sessID+"-titleforge.log")

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	fileHandler := tint.NewHandler(file, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		NoColor:    true,
	})

	return &Logger{
		slog:      slog.New(&teeHandler{primary: fileHandler}).With(slog.String("component", component)),
		file:      file,
		sessionID: sessID,
		component: component,
		logPath:   logPath,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	h := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		AddSource:  true,
	})
	l := &Logger{
		slog:      slog.New(h).With(slog.String("component", component)),
		sessionID: getSessionID(),
		component: component,
	}
	l.Warnf("failed to initialize file logging, falling back to stderr: %v", err)
	return l
}

// Printf logs at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logf(slog.LevelInfo, format, v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(slog.LevelDebug, format, v...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(slog.LevelInfo, format, v...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(slog.LevelWarn, format, v...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(slog.LevelError, format, v...)
}

func (l *Logger) logf(lvl slog.Level, format string, v ...interface{}) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, lvl) {
		return
	}
	l.slog.Log(ctx, lvl, fmt.Sprintf(format, v...))
}

// With returns a child logger that adds the given key/value pairs to every
// record. The child shares the parent's file; closing it is a no-op.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:      l.slog.With(args...),
		sessionID: l.sessionID,
		component: l.component,
		logPath:   l.logPath,
	}
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Writer returns the destination file, or stderr in fallback mode.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// SessionID returns the run's session ID.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the log file path, empty in fallback mode.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID.
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored.
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

// SetLevel sets the minimum level for every logger. Unknown names are
// rejected and leave the level unchanged.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelDebug, fmt.Errorf("unknown log level %q", name)
	}
}

// EnableConsole mirrors every logger to w. Passing nil turns the mirror off.
func EnableConsole(w io.Writer, color bool) {
	if w == nil {
		console.Store(nil)
		return
	}
	var h slog.Handler = tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !color,
	})
	console.Store(&h)
}
