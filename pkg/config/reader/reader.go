package reader

import "time"

// Values 一棵配置树
type Values interface {
	Get(path ...string) Value
	Map() map[string]interface{}
	Scan(v interface{}) error
	Bytes() []byte
}

// Value 配置树中的单个取值
type Value interface {
	Bool(def bool) bool
	Int(def int) int
	Int64(def int64) int64
	String(def string) string
	Float64(def float64) float64
	Duration(def time.Duration) time.Duration
	StringSlice(def []string) []string
	StringMap(def map[string]string) map[string]string
	Scan(v interface{}) error
	Bytes() []byte
}
