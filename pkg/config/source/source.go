package source

import (
	"crypto/md5"
	"fmt"
	"time"
)

// Source 配置来源
type Source interface {
	Read() (*ChangeSet, error)
	Watch() (Watcher, error)
	String() string
}

// Watcher 监听配置变更
type Watcher interface {
	Next() (*ChangeSet, error)
	Stop() error
}

// ChangeSet 一次配置读取的快照
type ChangeSet struct {
	Data      []byte
	Checksum  string
	Format    string
	Source    string
	Timestamp time.Time
}

// Sum 计算快照校验和
func (c *ChangeSet) Sum() string {
	h := md5.New()
	h.Write(c.Data)
	return fmt.Sprintf("%x", h.Sum(nil))
}
