package carframe

import (
	"errors"
)

// ErrTruncatedFrame 流结束时仍有不完整的帧
var ErrTruncatedFrame = errors.New("流结束时帧不完整")

// FrameScanner 为 bufio.Scanner 及连接缓冲区提供定长分帧。
// 总线报文没有起始符与长度字段, 帧边界完全由已知帧类型决定。
type FrameScanner struct {
	frameSize int
}

// NewFrameScanner 创建指定类型的分帧器
func NewFrameScanner(kind Kind) (*FrameScanner, error) {
	size := kind.Size()
	if size == 0 {
		return nil, ErrUnknownKind
	}
	return &FrameScanner{frameSize: size}, nil
}

// FrameSize 返回单帧字节数
func (fs *FrameScanner) FrameSize() int {
	return fs.frameSize
}

// SplitFunc 是 bufio.SplitFunc, 每次返回一个完整帧
func (fs *FrameScanner) SplitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if len(data) < fs.frameSize {
		if atEOF {
			return len(data), nil, ErrTruncatedFrame
		}
		// 需要更多数据
		return 0, nil, nil
	}

	return fs.frameSize, data[:fs.frameSize], nil
}
