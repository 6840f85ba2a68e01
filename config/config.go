package config

import (
	"encoding/json"
	"os"
	"strconv"
)

var Config *AppConfig

type AppConfig struct {
	ServerId      int    `json:"server_id"`
	AppVersion    string `json:"app_version"`
	LogConfig     `json:",inline"`
	ListenConfig  `json:",inline"`
	TimerConfig   `json:",inline"`
	EtcdConfig    `json:",inline"`
	RedisConfig   `json:",inline"`
	HttpApiConfig `json:",inline"`
	PoolConfig    `json:",inline"`
	IsDebug       bool `json:"is_debug"`
}

type LogConfig struct {
	LogPath   string `json:"log_path"`
	LogName   string `json:"log_name"`
	LogLevel  string `json:"log_level"`  // trace/debug/info/notice/warn/error/fatal
	LogStdOut bool   `json:"log_std_out"`
	LogEngine string `json:"log_engine"` // std/file/zap
}

type ListenConfig struct {
	UdpListen       string `json:"udp_listen"`        // ip:port, 只有端口时监听any地址
	UdpEngine       string `json:"udp_engine"`        // st/gnet
	UdpMulticore    bool   `json:"udp_multicore"`     // 仅gnet引擎有效
	UdpRecvInterval int    `json:"udp_recv_interval"` // 收包后睡眠 毫秒
	UdpSocketBuffer int    `json:"udp_socket_buffer"` // 收发缓冲期望值 字节
	TcpListen       string `json:"tcp_listen"`
}

type TimerConfig struct {
	HeartbeatResolution int `json:"heartbeat_resolution"` // 毫秒
	HeartbeatInterval   int `json:"heartbeat_interval"`   // 毫秒, 必须是精度的整数倍
	FastTimerInterval   int `json:"fast_timer_interval"`  // 毫秒
	PeerIdleTimeout     int `json:"peer_idle_timeout"`    // 毫秒
	NotifyCapacity      int `json:"notify_capacity"`      // 通知队列槽位
}

type EtcdConfig struct {
	EtcdEndpoints string `json:"etcd_endpoints"` // 多个地址用,隔开, 为空不注册
	EtcdLeaseTTL  int64  `json:"etcd_lease_ttl"` // 秒
	EtcdGroup     string `json:"etcd_group"`
	AdvertiseIP   string `json:"advertise_ip"` // 注册到etcd的对外ip
}

type RedisConfig struct {
	RedisMode       string `json:"redis_mode"`
	RedisAddr       string `json:"redis_addr"` // 多个地址用,隔开, 为空不上报
	RedisMasterName string `json:"redis_master_name"`
	RedisPassword   string `json:"redis_password"`
	RedisDB         int    `json:"redis_db"`
	StatsKey        string `json:"stats_key"`
}

type HttpApiConfig struct {
	ApiListenAddr string `json:"api_listen_addr"` // 为空不启动
}

type PoolConfig struct {
	PoolSize int `json:"pool_size"` // tcp连接处理协程池大小
}

func LoadConfig(configFile string, loadConfigFromEnv func(*AppConfig) error) error {
	Config = new(AppConfig)
	if len(configFile) != 0 {
		if err := loadConfigFromFile(configFile); err != nil {
			return err
		}
	}
	if loadConfigFromEnv != nil {
		if err := loadConfigFromEnv(Config); err != nil {
			return err
		}
	}
	Config.SetDefaults()
	return nil
}

func loadConfigFromFile(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &Config)
}

func (conf *AppConfig) SetDefaults() {
	if conf.LogName == "" {
		conf.LogName = "evcore"
	}
	if conf.LogLevel == "" {
		conf.LogLevel = "info"
	}
	if conf.LogEngine == "" {
		conf.LogEngine = "std"
	}
	if conf.UdpEngine == "" {
		conf.UdpEngine = "st"
	}
	if conf.UdpSocketBuffer == 0 {
		conf.UdpSocketBuffer = 10 * 1024 * 1024
	}
	if conf.HeartbeatResolution <= 0 {
		conf.HeartbeatResolution = 100
	}
	if conf.HeartbeatInterval <= 0 {
		conf.HeartbeatInterval = 10 * conf.HeartbeatResolution
	}
	if conf.FastTimerInterval <= 0 {
		conf.FastTimerInterval = 20
	}
	if conf.PeerIdleTimeout <= 0 {
		conf.PeerIdleTimeout = 30 * 1000
	}
	if conf.NotifyCapacity <= 0 {
		conf.NotifyCapacity = 1024
	}
	if conf.EtcdLeaseTTL <= 0 {
		conf.EtcdLeaseTTL = 10
	}
	if conf.EtcdGroup == "" {
		conf.EtcdGroup = "evcore"
	}
	if conf.StatsKey == "" {
		conf.StatsKey = "evcore:stats:" + strconv.Itoa(conf.ServerId)
	}
	if conf.PoolSize <= 0 {
		conf.PoolSize = 1024
	}
}

func (conf *AppConfig) JsonFormat() string {
	if conf == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
