// Package discovery publishes this node's listener endpoints to etcd and
// keeps a local cache of every endpoint registered by the group.
package discovery

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	radix "github.com/armon/go-radix"
)

type Discovery interface {
	Start() <-chan error

	Stop()

	// RegisterService 返回 name:uuid 形式的节点名
	RegisterService(serviceName string, addr string) (string, error)

	GetService(serviceName string) (addr string, err error)

	GetAllService(serviceName string) (addrs map[string]string, err error)
}

var ErrServiceNotFound = errors.New("service not found")

// serviceCache 服务缓存, key为 name:uuid, value为地址
type serviceCache struct {
	mx   sync.RWMutex
	tree *radix.Tree
}

func newServiceCache() *serviceCache {
	return &serviceCache{tree: radix.New()}
}

func (c *serviceCache) add(name, id, addr string) bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	key := name + ":" + id
	if _, ok := c.tree.Get(key); ok {
		return false
	}
	c.tree.Insert(key, addr)
	return true
}

func (c *serviceCache) del(name, id string) bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	_, ok := c.tree.Delete(name + ":" + id)
	return ok
}

// get name可以带uuid, 不带时随机选择一个
func (c *serviceCache) get(serviceName string) (string, error) {
	serviceName = strings.ToLower(serviceName)
	c.mx.RLock()
	defer c.mx.RUnlock()
	if strings.Contains(serviceName, ":") {
		if v, ok := c.tree.Get(serviceName); ok {
			return v.(string), nil
		}
		return "", ErrServiceNotFound
	}
	var addrs []string
	c.tree.WalkPrefix(serviceName+":", func(_ string, v any) bool {
		addrs = append(addrs, v.(string))
		return false
	})
	if len(addrs) == 0 {
		return "", ErrServiceNotFound
	}
	return addrs[rand.Intn(len(addrs))], nil
}

// all 返回 uuid -> 地址
func (c *serviceCache) all(serviceName string) (map[string]string, error) {
	serviceName = strings.ToLower(serviceName)
	if i := strings.IndexByte(serviceName, ':'); i >= 0 {
		serviceName = serviceName[:i]
	}
	prefix := serviceName + ":"
	c.mx.RLock()
	defer c.mx.RUnlock()
	out := make(map[string]string)
	c.tree.WalkPrefix(prefix, func(k string, v any) bool {
		out[k[len(prefix):]] = v.(string)
		return false
	})
	if len(out) == 0 {
		return nil, ErrServiceNotFound
	}
	return out, nil
}

func (c *serviceCache) len() int {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.tree.Len()
}
