package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type CodeError interface {
	error
	Code() int32
	Print(extras ...string) CodeError
	Printf(format string, args ...any) CodeError
	With(cause error) CodeError
	Is(error) bool
	Unwrap() error
}

type coder interface {
	Code() int32
}

func CreateCodeError(code int32, desc string) CodeError {
	return &codeError{
		Errno: code, //  错误码数字
		Desc:  desc, //  错误描述字符串, 如：SOCKET_READ、QUIT
	}
}

// WrapError 非CodeError转换为Unknown, 原错误作为cause保留
func WrapError(err error) CodeError {
	if err == nil {
		return nil
	}
	var x CodeError
	if errors.As(err, &x) {
		return x
	}
	return &codeError{Errno: ErrCode_Unknown, Desc: Unknown.Error(), cause: err}
}

// Wrap 给err增加一层上下文, 错误码沿用err的错误码
func Wrap(err error, format string, args ...any) CodeError {
	if err == nil {
		return nil
	}
	desc := format
	if len(args) > 0 {
		desc = fmt.Sprintf(format, args...)
	}
	return &codeError{
		Errno: Code(err),
		Desc:  desc,
		cause: err,
	}
}

// Code 取错误链上最外层的错误码
func Code(err error) int32 {
	if err == nil {
		return ErrCode_OK
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ErrCode_Unknown
}

// Chain 按包装顺序返回每一层的描述, 最外层在前, 最后一项是根因
func Chain(err error) []string {
	var layers []string
	for err != nil {
		ce, ok := err.(*codeError)
		if !ok {
			layers = append(layers, err.Error())
			break
		}
		layers = append(layers, ce.Desc)
		err = ce.cause
	}
	return layers
}

func IsQuit(err error) bool {
	return Code(err) == ErrCode_Quit
}

func IsTimeout(err error) bool {
	code := Code(err)
	return code == ErrCode_Timeout || code == ErrCode_SocketTimeout
}

type codeError struct {
	Errno int32
	Desc  string
	cause error
}

func (e *codeError) Code() int32 {
	return e.Errno
}

func (e *codeError) Error() string {
	if e.cause == nil {
		return e.Desc
	}
	return e.Desc + ": " + e.cause.Error()
}

func (e *codeError) String() string {
	return fmt.Sprintf("errno: %d, desc: %s", e.Errno, e.Error())
}

func (e *codeError) Unwrap() error {
	return e.cause
}

func (e *codeError) Print(extras ...string) CodeError {
	if len(extras) == 0 {
		return e
	}
	ns := len(e.Desc) + len(extras)
	for _, extra := range extras {
		ns += len(extra)
	}
	builder := strings.Builder{}
	builder.Grow(ns)
	builder.WriteString(e.Desc)
	for _, extra := range extras {
		builder.WriteByte(',')
		builder.WriteString(extra)
	}
	er := &codeError{
		Errno: e.Errno,
		Desc:  builder.String(),
		cause: e.cause,
	}
	return er
}

func (e *codeError) Printf(format string, args ...any) CodeError {
	if len(format) == 0 {
		return e
	}
	desc := fmt.Sprintf(e.Desc+","+format, args...)
	er := &codeError{
		Errno: e.Errno,
		Desc:  desc,
		cause: e.cause,
	}
	return er
}

func (e *codeError) With(cause error) CodeError {
	return &codeError{
		Errno: e.Errno,
		Desc:  e.Desc,
		cause: cause,
	}
}

func (e *codeError) Is(target error) bool {
	if x, ok := target.(coder); ok {
		return x.Code() == e.Errno
	}
	return false
}

// IntervalError tick的间隔不是精度的整数倍
type IntervalError struct {
	Interval   time.Duration
	Resolution time.Duration
}

func (e *IntervalError) Code() int32 {
	return ErrCode_HourglassResolution
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("%s,invalid interval=%dms, resolution=%dms",
		HourglassResolution.Error(), e.Interval.Milliseconds(), e.Resolution.Milliseconds())
}

func (e *IntervalError) Is(target error) bool {
	if x, ok := target.(coder); ok {
		return x.Code() == ErrCode_HourglassResolution
	}
	return false
}
