package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// 日志级别
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger 简单的分级日志，stdout与文件双写
type Logger struct {
	mu    sync.Mutex
	level int
	out   *log.Logger
	file  *os.File
}

func parseLevel(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// NewLogger 创建日志实例，日志目录创建失败时仅输出到stdout
func NewLogger(logDir, logFile, logLevel string) *Logger {
	l := &Logger{level: parseLevel(logLevel)}

	writers := []io.Writer{os.Stdout}
	if logDir != "" && logFile != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(logDir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				l.file = f
				writers = append(writers, f)
			}
		}
	}
	l.out = log.New(io.MultiWriter(writers...), "", log.LstdFlags)
	return l
}

func (l *Logger) logf(level int, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, "DEBUG", format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, "INFO", format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarn, "WARN", format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LevelError, "ERROR", format, args...)
}

// Close 关闭日志文件
func (l *Logger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}
