package app

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/fixkme/evcore/mlog"
)

// 节点全局状态
const (
	AppStateNone = iota // 未开始或已停止
	AppStateInit        // 正在初始化中
	AppStateRun         // 正在运行中
	AppStateStop        // 正在停止中
)

// 单例
var defaultApp = New()

type Module interface {
	OnInit() error // 初始化
	Destroy()      // 销毁
	Run()          // 启动
	Name() string  // 名字
}

// DefaultApp 默认单例
func DefaultApp() *App {
	return defaultApp
}

// App 中的 modules 在初始化之后不能变更
type App struct {
	mods  []Module
	state int32
	sig   chan os.Signal
	wg    sync.WaitGroup
}

func New() *App {
	return &App{sig: make(chan os.Signal, 1)}
}

func (app *App) setState(s int32) {
	atomic.StoreInt32(&app.state, s)
}

func (app *App) GetState() int32 {
	return atomic.LoadInt32(&app.state)
}

// Start 初始化并启动所有模块, 任一模块初始化失败时销毁已初始化的模块
func (app *App) Start(mods ...Module) error {
	// 单个app不能启动两次
	if app.GetState() != AppStateNone || len(app.mods) != 0 {
		return fmt.Errorf("app mods cannot start twice")
	}
	if len(mods) == 0 {
		return nil
	}
	mlog.Info("app starting up")
	app.setState(AppStateInit)
	for i, mi := range mods {
		if err := mi.OnInit(); err != nil {
			for j := i - 1; j >= 0; j-- {
				destroy(mods[j])
			}
			app.setState(AppStateNone)
			return fmt.Errorf("module %s init error: %w", mi.Name(), err)
		}
		app.mods = append(app.mods, mi)
	}
	for _, mi := range app.mods {
		app.wg.Add(1)
		go run(mi, &app.wg)
	}
	app.setState(AppStateRun)
	mlog.Info("app started")
	return nil
}

// Shutdown 逆序销毁模块并等待Run返回
func (app *App) Shutdown() {
	if app.GetState() != AppStateRun {
		return
	}
	mlog.Info("app stop begin")
	app.setState(AppStateStop)
	// 先进后出
	for i := len(app.mods) - 1; i >= 0; i-- {
		m := app.mods[i]
		mlog.Infof("app stop module %s", m.Name())
		destroy(m)
	}
	app.wg.Wait()
	app.mods = nil
	app.setState(AppStateNone)
	mlog.Info("app stopped")
}

func run(m Module, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("%s module run panic: %v\n%s", m.Name(), r, debug.Stack())
		}
	}()
	m.Run()
}

func destroy(m Module) {
	defer func() {
		if r := recover(); r != nil {
			mlog.Errorf("%s module destroy panic: %v\n%s", m.Name(), r, debug.Stack())
		}
	}()
	m.Destroy()
}

// Run 启动模块后阻塞, 直到收到退出信号或Stop
func (app *App) Run(mods ...Module) error {
	if err := app.Start(mods...); err != nil {
		return err
	}
	signal.Notify(app.sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(app.sig)
	for {
		sig := <-app.sig
		mlog.Infof("server closing down (signal: %v)", sig)
		if sig != syscall.SIGHUP {
			break
		}
	}
	app.Shutdown()
	return nil
}

// Stop 非阻塞, 可在模块内部调用
func (app *App) Stop() {
	select {
	case app.sig <- syscall.SIGTERM:
	default:
	}
}
