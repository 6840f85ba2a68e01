package mlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// writerLogger 同步写入, 用于标准输出和测试捕获.
// 级别可在运行时调整, fatal之后调用exit.
type writerLogger struct {
	level atomic.Uint32
	out   *log.Logger
	exit  func(code int)
}

func newStdoutLogger(level Level) *writerLogger {
	return newWriterLogger(os.Stdout, level)
}

func newWriterLogger(w io.Writer, level Level) *writerLogger {
	l := &writerLogger{
		out:  log.New(w, "", log.Ldate|log.Lmicroseconds),
		exit: os.Exit,
	}
	l.level.Store(uint32(level))
	return l
}

// NewWriterLogger 同步写入w, 测试里用来捕获日志
func NewWriterLogger(w io.Writer, level Level) Logger {
	return newWriterLogger(w, level)
}

func (l *writerLogger) SetLevel(level Level) {
	l.level.Store(uint32(level))
}

func (l *writerLogger) enabled(level Level) bool {
	return Level(l.level.Load()) >= level
}

func (l *writerLogger) print(level Level, v []any) {
	if l.enabled(level) {
		l.out.Output(3, getLevelTag(level)+fmt.Sprint(v...))
	}
}

func (l *writerLogger) printf(level Level, format string, v []any) {
	if l.enabled(level) {
		l.out.Output(3, getLevelTag(level)+fmt.Sprintf(format, v...))
	}
}

func (l *writerLogger) Trace(v ...any)                  { l.print(TraceLevel, v) }
func (l *writerLogger) Tracef(format string, v ...any)  { l.printf(TraceLevel, format, v) }
func (l *writerLogger) Debug(v ...any)                  { l.print(DebugLevel, v) }
func (l *writerLogger) Debugf(format string, v ...any)  { l.printf(DebugLevel, format, v) }
func (l *writerLogger) Info(v ...any)                   { l.print(InfoLevel, v) }
func (l *writerLogger) Infof(format string, v ...any)   { l.printf(InfoLevel, format, v) }
func (l *writerLogger) Notice(v ...any)                 { l.print(NoticeLevel, v) }
func (l *writerLogger) Noticef(format string, v ...any) { l.printf(NoticeLevel, format, v) }
func (l *writerLogger) Warn(v ...any)                   { l.print(WarnLevel, v) }
func (l *writerLogger) Warnf(format string, v ...any)   { l.printf(WarnLevel, format, v) }
func (l *writerLogger) Error(v ...any)                  { l.print(ErrorLevel, v) }
func (l *writerLogger) Errorf(format string, v ...any)  { l.printf(ErrorLevel, format, v) }

func (l *writerLogger) Fatal(v ...any) {
	l.print(FatalLevel, v)
	l.exit(1)
}

func (l *writerLogger) Fatalf(format string, v ...any) {
	l.printf(FatalLevel, format, v)
	l.exit(1)
}
