package server

import (
	"context"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/fixkme/evcore/config"
	"github.com/fixkme/evcore/discovery"
	"github.com/fixkme/evcore/httpapi"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/netx"
)

// AdminModule gin管理接口
type AdminModule struct {
	addr   string
	opt    *httpapi.Options
	router *httpapi.Server
}

func NewAdminModule(addr string, opt *httpapi.Options) *AdminModule {
	return &AdminModule{addr: addr, opt: opt}
}

func (m *AdminModule) OnInit() error {
	router, err := httpapi.NewWeb("tcp", m.addr, m.opt)
	if err != nil {
		return err
	}
	m.router = router
	return nil
}

func (m *AdminModule) Run() {
	if err := m.router.Run(); err != nil {
		mlog.Infof("admin api stopped: %v", err)
	}
}

func (m *AdminModule) Destroy() {
	if m.router != nil {
		m.router.Stop()
	}
}

func (m *AdminModule) Name() string {
	return "AdminApi"
}

// DiscoveryModule 把监听地址注册到etcd, 必须在Server之后初始化
type DiscoveryModule struct {
	conf   *config.EtcdConfig
	srv    *Server
	ctx    context.Context
	cancel context.CancelFunc
	sd     discovery.Discovery
	errc   <-chan error
}

func NewDiscoveryModule(conf *config.EtcdConfig, srv *Server) *DiscoveryModule {
	ctx, cancel := context.WithCancel(context.Background())
	return &DiscoveryModule{conf: conf, srv: srv, ctx: ctx, cancel: cancel}
}

func (m *DiscoveryModule) OnInit() error {
	sd, err := discovery.NewEtcdDiscovery(m.ctx, &discovery.EtcdOpt{
		Config: clientv3.Config{
			Endpoints:            strings.Split(m.conf.EtcdEndpoints, ","),
			DialTimeout:          5 * time.Second,
			DialKeepAliveTime:    5 * time.Second,
			DialKeepAliveTimeout: 3 * time.Second,
		},
		LeaseTTL:     m.conf.EtcdLeaseTTL,
		ServiceGroup: m.conf.EtcdGroup,
	})
	if err != nil {
		return err
	}
	m.sd = sd
	m.errc = sd.Start()

	ip := m.conf.AdvertiseIP
	if ip == "" {
		ip = netx.AnyAddressForListener()
	}
	if ap := m.srv.UDPAddr(); ap.IsValid() {
		name, err := sd.RegisterService("udp", netx.JoinHostPort(ip, int(ap.Port())))
		if err != nil {
			return err
		}
		mlog.Infof("registered %s", name)
	}
	if ap := m.srv.TCPAddr(); ap.IsValid() {
		name, err := sd.RegisterService("tcp", netx.JoinHostPort(ip, int(ap.Port())))
		if err != nil {
			return err
		}
		mlog.Infof("registered %s", name)
	}
	return nil
}

func (m *DiscoveryModule) Run() {
	select {
	case err := <-m.errc:
		if err != nil {
			mlog.Errorf("etcd discovery stopped: %v", err)
		}
	case <-m.ctx.Done():
	}
}

func (m *DiscoveryModule) Destroy() {
	if m.sd != nil {
		m.sd.Stop()
	}
	m.cancel()
}

func (m *DiscoveryModule) Name() string {
	return "Discovery"
}
