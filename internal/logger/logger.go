package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"occurrences/internal/config"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      map[string]*lumberjack.Logger
	logDir     string
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) *Logger {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	l := &Logger{
		logDir: cfg.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}
	l.setupLoggers(cfg.LogMaxSizeMB)
	return l
}

// NewNop returns a Logger that drops everything. Used by tests and tools.
func NewNop() *Logger {
	nop := &log.Logger{Handler: discard.New(), Level: log.DebugLevel}
	return &Logger{
		infoLog:    nop,
		warningLog: nop,
		errorLog:   nop,
		files:      map[string]*lumberjack.Logger{},
	}
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers(maxSizeMB int) {
	l.infoLog = l.newLevelLogger(InfoFile, os.Stdout, maxSizeMB)
	l.warningLog = l.newLevelLogger(WarningFile, os.Stdout, maxSizeMB)
	l.errorLog = l.newLevelLogger(ErrorFile, os.Stderr, maxSizeMB)
}

func (l *Logger) newLevelLogger(filename string, console *os.File, maxSizeMB int) *log.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	l.files[filename] = file

	return &log.Logger{
		Handler: multi.New(text.New(console), jsonhandler.New(file)),
		Level:   log.InfoLevel,
	}
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Errorf(format, v...)
}

// Directory returns where the level files are written.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, ok := l.files[fileName]
	if !ok {
		return fmt.Errorf("unknown log file %q", fileName)
	}
	// lumberjack reopens the file on the next write.
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", fileName, err)
	}
	if err := os.Truncate(filepath.Join(l.logDir, fileName), 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}
	return nil
}
