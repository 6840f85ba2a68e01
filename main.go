package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fixkme/evcore/app"
	"github.com/fixkme/evcore/clock"
	"github.com/fixkme/evcore/config"
	rdb "github.com/fixkme/evcore/db/redis"
	"github.com/fixkme/evcore/httpapi"
	"github.com/fixkme/evcore/mlog"
	"github.com/fixkme/evcore/server"
	"github.com/fixkme/evcore/stats"
)

func main() {
	configFile := flag.String("config", "", "config file path")
	flag.Parse()

	if err := config.LoadConfig(*configFile, nil); err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", *configFile, err)
		os.Exit(1)
	}
	conf := config.Config

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	if err := setupLogger(ctx, wg, &conf.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}
	clock.UpdateSystemTime()
	mlog.Infof("config: %s", conf.JsonFormat())

	counters := &stats.Counters{}
	var opts []server.Option
	if conf.RedisAddr != "" {
		db, err := rdb.NewFromConfig(&conf.RedisConfig)
		if err != nil {
			mlog.Errorf("redis %s: %v", conf.RedisAddr, err)
			os.Exit(1)
		}
		defer db.Stop()
		period := time.Duration(conf.HeartbeatInterval) * time.Millisecond
		opts = append(opts, server.WithSubscriber(stats.NewRedisReporter(db.GetCmdable(), conf.StatsKey, period, counters)))
	}
	opts = append(opts, server.WithFatalHandler(func(error) { app.DefaultApp().Stop() }))

	srv := server.New(conf, counters, opts...)
	mods := []app.Module{srv}
	if conf.EtcdEndpoints != "" {
		mods = append(mods, server.NewDiscoveryModule(&conf.EtcdConfig, srv))
	}
	if conf.ApiListenAddr != "" {
		mods = append(mods, server.NewAdminModule(conf.ApiListenAddr, &httpapi.Options{
			Stats:  func() any { return counters.Snapshot() },
			Health: srv.Health,
		}))
	}

	if err := app.DefaultApp().Run(mods...); err != nil {
		mlog.Errorf("app run: %v", err)
	}
	cancel()
	wg.Wait()
}

func setupLogger(ctx context.Context, wg *sync.WaitGroup, conf *config.LogConfig) error {
	level := mlog.ParseLevel(conf.LogLevel)
	switch conf.LogEngine {
	case "file":
		return mlog.UseDefaultLogger(ctx, wg, conf.LogPath, conf.LogName, level, conf.LogStdOut)
	case "zap":
		return mlog.UseZapLogger(level, false)
	default:
		return mlog.UseStdLogger(level)
	}
}
