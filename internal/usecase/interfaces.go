package usecase

import "context"

// Conn 抽象连接接口
type Conn interface {
	RemoteAddr() string
	Close() error
	Write([]byte) (int, error)
}

type DataProducer interface {
	// Produce 发送数据到指定 Topic
	Produce(ctx context.Context, topic string, key string, data interface{}) error
}

// Dispatcher 接收已解析的数据并异步投递
type Dispatcher interface {
	Dispatch(data interface{})
}
