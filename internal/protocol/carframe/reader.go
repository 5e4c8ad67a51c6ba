package carframe

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SentinelTrue 布尔字段的唯一真值 (0x7F)，其余任何字节均为 false
const SentinelTrue byte = 0x7F

// ErrUnderflow 当剩余字节不足以完成读取时返回
var ErrUnderflow = errors.New("缓冲区数据不足")

// UnderflowError 描述一次失败的读取: 在 Offset 处需要 Need 字节, 实际只剩 Have 字节
type UnderflowError struct {
	Offset int
	Need   int
	Have   int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%v: offset %d need %d have %d", ErrUnderflow, e.Offset, e.Need, e.Have)
}

func (e *UnderflowError) Is(target error) bool {
	return target == ErrUnderflow
}

// Reader 是字节切片上的只进游标。
// 读取失败时游标不移动。Reader 不是并发安全的。
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset 返回当前游标位置
func (r *Reader) Offset() int {
	return r.off
}

// Remaining 返回游标之后尚未读取的字节数
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Reset 将游标移回缓冲区起始位置
func (r *Reader) Reset() {
	r.off = 0
}

func (r *Reader) seek(off int) {
	r.off = off
}

// next 返回接下来 n 字节的视图并推进游标
func (r *Reader) next(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, &UnderflowError{Offset: r.off, Need: n, Have: r.Remaining()}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes 读取 n 字节并返回副本, 调用方不持有底层缓冲区的引用
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadSentinelBool 读取 1 字节, 当且仅当其值为 0x7F 时返回 true
func (r *Reader) ReadSentinelBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b == SentinelTrue, nil
}

// ReadUint16LE 读取 2 字节小端序无符号整数 (低字节在前)
func (r *Reader) ReadUint16LE() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}
