package mlog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
)

type loggerImp struct {
	path   string
	file   *lumberjack.Logger
	ll     *log.Logger
	buff   chan string
	level  Level
	stdOut bool
}

func newDefaultLogger(logpath, logName string, level Level, stdOut bool) (*loggerImp, error) {
	// 默认使用当前路径
	if len(logpath) == 0 {
		logpath = "."
	}
	if err := os.MkdirAll(logpath, 0755); err != nil {
		return nil, err
	}
	// 切割交给lumberjack
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logpath, genLogName(logName)),
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		LocalTime:  true,
	}
	if stdOut {
		log.SetFlags(log.Ldate | log.Lmicroseconds)
	}
	return &loggerImp{
		path:   logpath,
		file:   rotator,
		ll:     log.New(rotator, "", log.Ldate|log.Lmicroseconds),
		buff:   make(chan string, 0x10000),
		level:  level,
		stdOut: stdOut,
	}, nil
}

func (me *loggerImp) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("log recover error %v\n", r)
			}
			me.file.Close()
			wg.Done()
		}()

		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case str := <-me.buff:
						me.output(str)
					default:
						return
					}
				}
			case str := <-me.buff:
				me.output(str)
			}
		}
	}()
}

func (me *loggerImp) output(str string) {
	if me.stdOut {
		log.Println(str)
	}
	me.ll.Println(str)
}

func (me *loggerImp) Trace(args ...interface{}) {
	me.Log(TraceLevel, args...)
}

func (me *loggerImp) Tracef(format string, args ...interface{}) {
	me.Logf(TraceLevel, format, args...)
}

func (me *loggerImp) Debug(args ...interface{}) {
	me.Log(DebugLevel, args...)
}

func (me *loggerImp) Debugf(format string, args ...interface{}) {
	me.Logf(DebugLevel, format, args...)
}

func (me *loggerImp) Info(args ...interface{}) {
	me.Log(InfoLevel, args...)
}

func (me *loggerImp) Infof(format string, args ...interface{}) {
	me.Logf(InfoLevel, format, args...)
}

func (me *loggerImp) Notice(args ...interface{}) {
	me.Log(NoticeLevel, args...)
}

func (me *loggerImp) Noticef(format string, args ...interface{}) {
	me.Logf(NoticeLevel, format, args...)
}

func (me *loggerImp) Warn(args ...interface{}) {
	me.Log(WarnLevel, args...)
}

func (me *loggerImp) Warnf(format string, args ...interface{}) {
	me.Logf(WarnLevel, format, args...)
}

func (me *loggerImp) Error(args ...interface{}) {
	me.Log(ErrorLevel, args...)
}

func (me *loggerImp) Errorf(format string, args ...interface{}) {
	me.Logf(ErrorLevel, format, args...)
}

func (me *loggerImp) Fatal(args ...interface{}) {
	if me.IsLevelEnabled(FatalLevel) {
		me.buff <- (getLevelTag(FatalLevel) + fmt.Sprint(args...))
		time.Sleep(time.Second)
		os.Exit(1)
	}
}

func (me *loggerImp) Fatalf(format string, args ...interface{}) {
	if me.IsLevelEnabled(FatalLevel) {
		me.buff <- (getLevelTag(FatalLevel) + fmt.Sprintf(format, args...))
		time.Sleep(time.Second)
		os.Exit(1)
	}
}

func (me *loggerImp) Log(level Level, args ...interface{}) {
	if me.IsLevelEnabled(level) {
		me.buff <- getLevelTag(level) + fmt.Sprint(args...)
	}
}

func (me *loggerImp) Logf(level Level, format string, args ...interface{}) {
	if me.IsLevelEnabled(level) {
		if len(format) == 0 {
			me.buff <- getLevelTag(level) + fmt.Sprint(args...)
		} else {
			me.buff <- getLevelTag(level) + fmt.Sprintf(format, args...)
		}
	}
}

func (me *loggerImp) IsLevelEnabled(level Level) bool {
	return me.level >= level
}

func getLevelTag(level Level) string {
	switch level {
	case FatalLevel:
		return "[fatal] "
	case ErrorLevel:
		return "[error] "
	case WarnLevel:
		return "[warn] "
	case NoticeLevel:
		return "[notice] "
	case InfoLevel:
		return "[info] "
	case DebugLevel:
		return "[debug] "
	case TraceLevel:
		return "[trace] "
	}
	return ""
}

func genLogName(logName string) string {
	if logName == "" {
		logName = "mlog"
	}
	return logName + ".log"
}
