package errs

const (
	ErrCode_OK                  = 0
	ErrCode_Unknown             = 1
	ErrCode_Quit                = 2
	ErrCode_Timeout             = 3
	ErrCode_Notify              = 4
	ErrCode_CoroutineStarted    = 5
	ErrCode_HourglassResolution = 1040
	ErrCode_SocketRead          = 1007
	ErrCode_SocketWrite         = 1009
	ErrCode_SocketTimeout       = 1011
	ErrCode_SocketAccept        = 1013
	ErrCode_SocketBind          = 1015
	ErrCode_SocketSetOpt        = 1016
	ErrCode_IPInvalid           = 1020
)

var (
	Unknown             = CreateCodeError(ErrCode_Unknown, "UNKNOWN")
	Quit                = CreateCodeError(ErrCode_Quit, "QUIT")
	Timeout             = CreateCodeError(ErrCode_Timeout, "TIMEOUT")
	Notify              = CreateCodeError(ErrCode_Notify, "NOTIFY")
	CoroutineStarted    = CreateCodeError(ErrCode_CoroutineStarted, "COROUTINE_STARTED")
	HourglassResolution = CreateCodeError(ErrCode_HourglassResolution, "HOURGLASS_RESOLUTION")
	SocketRead          = CreateCodeError(ErrCode_SocketRead, "SOCKET_READ")
	SocketWrite         = CreateCodeError(ErrCode_SocketWrite, "SOCKET_WRITE")
	SocketTimeout       = CreateCodeError(ErrCode_SocketTimeout, "SOCKET_TIMEOUT")
	SocketAccept        = CreateCodeError(ErrCode_SocketAccept, "SOCKET_ACCEPT")
	SocketBind          = CreateCodeError(ErrCode_SocketBind, "SOCKET_BIND")
	SocketSetOpt        = CreateCodeError(ErrCode_SocketSetOpt, "SOCKET_SETOPT")
	IPInvalid           = CreateCodeError(ErrCode_IPInvalid, "IP_INVALID")
)
