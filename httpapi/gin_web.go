package httpapi

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/fixkme/evcore/mlog"
)

// 管理接口: 健康检查和统计
type Server struct {
	opt    *Options
	Addr   string
	Ln     net.Listener
	Router *gin.Engine
}

type Options struct {
	// 版本号，可以为空
	ApiVersion string
	// Middlewares 里可以添加鉴权的逻辑
	Middlewares []gin.HandlerFunc
	// 统计数据, 必须提供
	Stats func() any
	// 健康检查, 为空总是健康
	Health func() error
}

func NewWeb(network, addr string, opt *Options) (*Server, error) {
	if opt.Stats == nil {
		return nil, errors.New("stats handler is nil")
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}

	setMode()
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		opt:    opt,
		Addr:   ln.Addr().String(),
		Ln:     ln,
		Router: engine,
	}
	s.regWebRouter()
	return s, nil
}

func setMode() {
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func (s *Server) Start() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				mlog.Warnf("web recover error: %v.", r)
			}
		}()
		if err := s.Run(); err != nil && !errors.Is(err, net.ErrClosed) {
			mlog.Warnf("web run error: %v", err)
		}
	}()
}

func (s *Server) Run() (err error) {
	return s.Router.RunListener(s.Ln)
}

func (s *Server) Stop() {
	if err := s.Ln.Close(); err != nil {
		mlog.Warnf("web stop error %v", err)
	}
}

func (s *Server) regWebRouter() {
	v0 := s.Router.Group("/v0")
	v0.GET("/myip", s.clientIPHandler)
	v0.POST("/myip", s.clientIPHandler)

	groupName := "/api"
	if s.opt.ApiVersion != "" {
		groupName = fmt.Sprintf("/api/%s", s.opt.ApiVersion)
	}
	apiGroup := s.Router.Group(groupName)
	if len(s.opt.Middlewares) > 0 {
		apiGroup.Use(s.opt.Middlewares...)
	}
	apiGroup.GET("/healthz", s.healthHandler)
	apiGroup.GET("/stats", s.statsHandler)
}

func (s *Server) healthHandler(c *gin.Context) {
	if s.opt.Health != nil {
		if err := s.opt.Health(); err != nil {
			ResponseError(c, http.StatusServiceUnavailable, err)
			return
		}
	}
	ResponseSuccess(c, gin.H{"ok": true})
}

func (s *Server) statsHandler(c *gin.Context) {
	ResponseSuccess(c, s.opt.Stats())
}

type myIP struct {
	// IP 客户端连接IP
	IP string `json:"ip"`
}

// 回复客户端使用的IP
func (s *Server) clientIPHandler(c *gin.Context) {
	c.JSON(http.StatusOK, myIP{IP: c.ClientIP()})
}
