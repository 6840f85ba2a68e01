package mlog

import (
	"context"
	"strings"
	"sync"
)

type Logger interface {
	Trace(v ...any)
	Debug(v ...any)
	Info(v ...any)
	Notice(v ...any)
	Warn(v ...any)
	Error(v ...any)
	Fatal(v ...any)

	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Noticef(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Fatalf(format string, v ...any)
}

var logger Logger

func SetLogger(l Logger) {
	logger = l
}

// Default 返回转发到进程级logger的Logger, 组件未指定logger时使用
func Default() Logger {
	return forwarder{}
}

// UseDefaultLogger 异步写文件, 按大小切割
func UseDefaultLogger(ctx context.Context, wg *sync.WaitGroup, path string, logName string, level Level, stdOut bool) error {
	l, err := newDefaultLogger(path, logName, level, stdOut)
	if err != nil {
		return err
	}
	l.Start(ctx, wg)
	SetLogger(l)
	return nil
}

func UseStdLogger(level Level) error {
	l := newStdoutLogger(level)
	SetLogger(l)
	return nil
}

func UseZapLogger(level Level, development bool) error {
	l, err := newZapLogger(level, development)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

type Level uint32

const (
	FatalLevel Level = iota
	ErrorLevel
	WarnLevel
	NoticeLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "fatal":
		return FatalLevel
	case "error":
		return ErrorLevel
	case "warn":
		return WarnLevel
	case "notice":
		return NoticeLevel
	case "info":
		return InfoLevel
	case "debug":
		return DebugLevel
	case "trace":
		return TraceLevel
	}
	return InfoLevel
}

func Trace(a ...any) {
	if logger == nil {
		return
	}
	logger.Trace(a...)
}

func Tracef(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Tracef(format, a...)
}

func Debug(a ...any) {
	if logger == nil {
		return
	}
	logger.Debug(a...)
}

func Debugf(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Debugf(format, a...)
}

func Info(a ...any) {
	if logger == nil {
		return
	}
	logger.Info(a...)
}

func Infof(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Infof(format, a...)
}

func Notice(a ...any) {
	if logger == nil {
		return
	}
	logger.Notice(a...)
}

func Noticef(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Noticef(format, a...)
}

func Warn(a ...any) {
	if logger == nil {
		return
	}
	logger.Warn(a...)
}

func Warnf(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Warnf(format, a...)
}

func Error(a ...any) {
	if logger == nil {
		return
	}
	logger.Error(a...)
}

func Errorf(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Errorf(format, a...)
}

func Fatal(a ...any) {
	if logger == nil {
		return
	}
	logger.Fatal(a...)
}

func Fatalf(format string, a ...any) {
	if logger == nil {
		return
	}
	logger.Fatalf(format, a...)
}

type forwarder struct{}

func (forwarder) Trace(v ...any) { Trace(v...) }
func (forwarder) Debug(v ...any) { Debug(v...) }
func (forwarder) Info(v ...any) { Info(v...) }
func (forwarder) Notice(v ...any) { Notice(v...) }
func (forwarder) Warn(v ...any) { Warn(v...) }
func (forwarder) Error(v ...any) { Error(v...) }
func (forwarder) Fatal(v ...any) { Fatal(v...) }
func (forwarder) Tracef(format string, v ...any) { Tracef(format, v...) }
func (forwarder) Debugf(format string, v ...any) { Debugf(format, v...) }
func (forwarder) Infof(format string, v ...any) { Infof(format, v...) }
func (forwarder) Noticef(format string, v ...any) { Noticef(format, v...) }
func (forwarder) Warnf(format string, v ...any) { Warnf(format, v...) }
func (forwarder) Errorf(format string, v ...any) { Errorf(format, v...) }
func (forwarder) Fatalf(format string, v ...any) { Fatalf(format, v...) }
