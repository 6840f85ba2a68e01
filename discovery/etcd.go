package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/fixkme/evcore/mlog"
)

const (
	// etcd客户端申请有效期为该值的租约，当在该值时间内没有收到keepAlive包，租约将失效(相关的key会被删除)
	defaultTimeToLiveSeconds = 5

	// etcd put事件
	eventType_Put = 0

	// etcd delete事件
	eventType_Delete = 1
)

type EtcdOpt struct {
	clientv3.Config
	LeaseTTL     int64
	ServiceGroup string
}

type etcdImp struct {
	cli    *clientv3.Client
	prefix string
	cache  *serviceCache

	// 自己已注册的服务 key -> addr
	mx       sync.Mutex
	regServs map[string]string

	ctx      context.Context
	rch      clientv3.WatchChan
	leaseTTL int64
	log      mlog.Logger
}

// NewEtcdDiscovery 创建一个etcd实例
func NewEtcdDiscovery(ctx context.Context, opt *EtcdOpt) (Discovery, error) {
	cli, err := clientv3.New(opt.Config)
	if err != nil {
		return nil, err
	}
	if opt.LeaseTTL <= 0 {
		opt.LeaseTTL = defaultTimeToLiveSeconds
	}

	// 监视"service:"前缀的key
	prefix := servicePrefix(opt.ServiceGroup)
	rch := cli.Watch(ctx, prefix, clientv3.WithPrefix())
	if rch == nil {
		cli.Close()
		return nil, fmt.Errorf("watch etcd %v error", opt.Endpoints)
	}

	return &etcdImp{
		cli:      cli,
		prefix:   prefix,
		cache:    newServiceCache(),
		regServs: make(map[string]string),
		rch:      rch,
		ctx:      ctx,
		leaseTTL: opt.LeaseTTL,
		log:      mlog.Default(),
	}, nil
}

func servicePrefix(group string) string {
	return fmt.Sprintf("%s:service:", group)
}

func (e *etcdImp) Start() <-chan error {
	errChan := make(chan error, 1)
	go e.cacheExistedServices()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Errorf("etcd run recover error %v", r)
			}
		}()
		for {
			select {
			case <-e.ctx.Done():
				errChan <- nil
				return
			case watchRsp, ok := <-e.rch:
				if !ok {
					e.log.Info("etcd watch channel closed")
					errChan <- nil
					return
				}
				if err := watchRsp.Err(); err != nil {
					e.log.Warnf("etcd watch response error: %v", err)
					errChan <- err
					return
				}
				for _, evt := range watchRsp.Events {
					if evt != nil {
						e.onWatchEvent(int32(evt.Type), string(evt.Kv.Key), string(evt.Kv.Value))
					}
				}
			}
		}
	}()
	return errChan
}

// Stop 删除本节点注册的key并关闭连接
func (e *etcdImp) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	e.mx.Lock()
	for k := range e.regServs {
		e.cli.Delete(ctx, k) // 停止时，不关注error
	}
	e.regServs = make(map[string]string)
	e.mx.Unlock()

	if err := e.cli.Close(); err != nil {
		e.log.Warnf("etcd stop, Close error %v", err)
	}
}

func (e *etcdImp) RegisterService(serviceName string, addr string) (string, error) {
	serviceName = strings.ToLower(serviceName)
	nodeName := serviceName + ":" + uuid.New().String()
	key := e.prefix + nodeName
	if err := e.putServiceKey(key, addr); err != nil {
		return nodeName, err
	}
	return nodeName, nil
}

// 租约过期被删除的key会再次注册
func (e *etcdImp) putServiceKey(key string, addr string) error {
	resp, err := e.cli.Grant(e.ctx, e.leaseTTL)
	if err != nil {
		return err
	}
	e.log.Infof("etcd Grant lease ID: %X, TTL %d", resp.ID, e.leaseTTL)
	if _, err = e.cli.Put(e.ctx, key, addr, clientv3.WithLease(resp.ID)); err != nil {
		return err
	}
	e.log.Infof("etcd PUT %s %s", key, addr)
	e.mx.Lock()
	e.regServs[key] = addr
	e.mx.Unlock()

	ch, err := e.cli.KeepAlive(e.ctx, resp.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
		e.log.Infof("etcd key: %s KeepAlive channel closed", key)
	}()
	return nil
}

func (e *etcdImp) GetService(serviceName string) (string, error) {
	return e.cache.get(serviceName)
}

func (e *etcdImp) GetAllService(serviceName string) (map[string]string, error) {
	return e.cache.all(serviceName)
}

func (e *etcdImp) onWatchEvent(typ int32, key, value string) {
	e.log.Infof("etcd onWatchEvent type %d, key %s, value %s", typ, key, value)
	name, id, err := parseKey(e.prefix, key)
	if err != nil {
		e.log.Errorf("etcd onWatchEvent parseKey fail, key:%s, err:%v", key, err)
		return
	}

	switch typ {
	case eventType_Delete: // 为了不引入mvccpb
		if e.cache.del(name, id) {
			e.log.Infof("etcd onWatchEvent delete (%s,%s)", name, id)
		}
		// 删除的是本节点服务，重新注册此服务（被删除的原因，可能是keepalive超时了）
		e.mx.Lock()
		addr, ok := e.regServs[key]
		e.mx.Unlock()
		if ok {
			e.log.Infof("etcd OnWatchEvent register again, key:%s, addr:%s", key, addr)
			if err := e.putServiceKey(key, addr); err != nil {
				e.log.Errorf("etcd onWatchEvent putServiceKey err:%v", err)
			}
		}
	case eventType_Put:
		if e.cache.add(name, id, value) {
			e.log.Infof("etcd onWatchEvent addService, %s -> %s", key, value)
		}
	}
}

// 解析key(evcore:service:udp:b748593c-ec50-4b4c-8b4a-21705dd1789f)为 [udp，UUID]
func parseKey(prefix, key string) (name, id string, err error) {
	if !strings.HasPrefix(key, prefix) {
		err = errors.New("key not match prefix")
		return
	}
	keys := strings.Split(key[len(prefix):], ":")
	if len(keys) != 2 {
		err = errors.New("key not match format")
		return
	}
	name, id = keys[0], keys[1]
	return
}

// 将watch之前已经存在于etcd的service缓存下来
func (e *etcdImp) cacheExistedServices() {
	rsp, err := e.cli.Get(e.ctx, e.prefix, clientv3.WithPrefix())
	if err != nil {
		e.log.Warnf("cacheExistedServices Get error %v", err)
		return
	}
	for _, v := range rsp.Kvs {
		if v == nil {
			continue
		}
		key, value := string(v.Key), string(v.Value)
		if name, id, err := parseKey(e.prefix, key); err == nil {
			if e.cache.add(name, id, value) {
				e.log.Infof("cacheExistedServices addService, %s -> %s", key, value)
			}
		}
	}
}
