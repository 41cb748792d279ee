package encoder

// Encoder 配置格式编解码器
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
	Decode(d []byte, v interface{}) error
	String() string
}
