package config

import (
	"encoding/json"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/pkg/config/encoder"
	cjson "github.com/reddragonlabs/dragon-signal/pkg/config/encoder/json"
	ctoml "github.com/reddragonlabs/dragon-signal/pkg/config/encoder/toml"
	cyaml "github.com/reddragonlabs/dragon-signal/pkg/config/encoder/yaml"
	"github.com/reddragonlabs/dragon-signal/pkg/config/reader"
	rjson "github.com/reddragonlabs/dragon-signal/pkg/config/reader/json"
	"github.com/reddragonlabs/dragon-signal/pkg/config/source"
)

// Config 配置管理器：读取多个Source，按顺序合并成一棵配置树
type Config struct {
	mu       sync.RWMutex
	sources  []source.Source
	sets     []*source.ChangeSet
	vals     reader.Values
	encoders map[string]encoder.Encoder
	watchers []source.Watcher
}

var defaultManager = New()

func New() *Config {
	return &Config{
		encoders: map[string]encoder.Encoder{
			"json": cjson.NewJsonEncoder(),
			"yaml": cyaml.NewYamlEncoder(),
			"yml":  cyaml.NewYamlEncoder(),
			"toml": ctoml.NewTomlEncoder(),
		},
	}
}

// Load 读取所有Source并构建配置树，同时启动变更监听
func Load(sources ...source.Source) error {
	return defaultManager.Load(sources...)
}

// Scan 把整棵配置树反序列化到结构体
func Scan(v interface{}) error {
	return defaultManager.Scan(v)
}

// Get 按路径取配置值
func Get(path ...string) reader.Value {
	return defaultManager.Get(path...)
}

// Close 停止所有配置监听
func Close() error {
	return defaultManager.Close()
}

func (c *Config) Load(sources ...source.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range sources {
		cs, err := s.Read()
		if err != nil {
			return errors.Wrapf(err, "读取配置来源失败: %s", s.String())
		}
		c.sources = append(c.sources, s)
		c.sets = append(c.sets, cs)
	}

	if err := c.reload(); err != nil {
		return err
	}

	// 每个Source单独起一个监听协程，变更后整树重建
	for i, s := range c.sources[len(c.sources)-len(sources):] {
		w, err := s.Watch()
		if err != nil {
			// 来源不支持监听不视为错误
			continue
		}
		c.watchers = append(c.watchers, w)
		go c.watch(len(c.sets)-len(sources)+i, w)
	}

	return nil
}

func (c *Config) watch(idx int, w source.Watcher) {
	for {
		cs, err := w.Next()
		if err != nil {
			return
		}
		c.mu.Lock()
		c.sets[idx] = cs
		c.reload()
		c.mu.Unlock()
	}
}

// reload 合并所有快照；调用方需持有写锁
func (c *Config) reload() error {
	merged := make(map[string]interface{})

	for _, cs := range c.sets {
		enc, ok := c.encoders[cs.Format]
		if !ok {
			return errors.Errorf("不支持的配置格式: %s", cs.Format)
		}
		var m map[string]interface{}
		if err := enc.Decode(cs.Data, &m); err != nil {
			return errors.Wrapf(err, "解析配置失败: format=%s", cs.Format)
		}
		if err := mergo.Map(&merged, m, mergo.WithOverride); err != nil {
			return errors.Wrap(err, "合并配置失败")
		}
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	vals, err := rjson.NewValues(&source.ChangeSet{
		Data:      data,
		Format:    "json",
		Source:    "merged",
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	c.vals = vals
	return nil
}

func (c *Config) Scan(v interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals == nil {
		return errors.New("配置尚未加载")
	}
	return c.vals.Scan(v)
}

func (c *Config) Get(path ...string) reader.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Get(path...)
}

func (c *Config) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.watchers {
		w.Stop()
	}
	c.watchers = nil
	return nil
}
