package mlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	level Level
	sl    *zap.SugaredLogger
}

func newZapLogger(level Level, development bool) (*zapLogger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &zapLogger{level: level, sl: l.Sugar()}, nil
}

// zap没有trace和notice, 分别降级到debug和info
func zapLevel(level Level) zapcore.Level {
	switch level {
	case FatalLevel:
		return zapcore.FatalLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case NoticeLevel, InfoLevel:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func (l *zapLogger) enabled(level Level) bool {
	return l.level >= level
}

func (l *zapLogger) Trace(v ...any) {
	if l.enabled(TraceLevel) {
		l.sl.Debug(v...)
	}
}

func (l *zapLogger) Tracef(format string, v ...any) {
	if l.enabled(TraceLevel) {
		l.sl.Debugf(format, v...)
	}
}

func (l *zapLogger) Debug(v ...any)                 { l.sl.Debug(v...) }
func (l *zapLogger) Debugf(format string, v ...any) { l.sl.Debugf(format, v...) }
func (l *zapLogger) Info(v ...any)                  { l.sl.Info(v...) }
func (l *zapLogger) Infof(format string, v ...any)  { l.sl.Infof(format, v...) }
func (l *zapLogger) Notice(v ...any)                { l.sl.Info(v...) }
func (l *zapLogger) Noticef(format string, v ...any) { l.sl.Infof(format, v...) }
func (l *zapLogger) Warn(v ...any)                  { l.sl.Warn(v...) }
func (l *zapLogger) Warnf(format string, v ...any)  { l.sl.Warnf(format, v...) }
func (l *zapLogger) Error(v ...any)                 { l.sl.Error(v...) }
func (l *zapLogger) Errorf(format string, v ...any) { l.sl.Errorf(format, v...) }
func (l *zapLogger) Fatal(v ...any)                 { l.sl.Fatal(v...) }
func (l *zapLogger) Fatalf(format string, v ...any) { l.sl.Fatalf(format, v...) }

func (l *zapLogger) Sync() error {
	return l.sl.Sync()
}
