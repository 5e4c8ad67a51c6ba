package client

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// LoadHexFrames 读取抓包文件: 每行一帧十六进制, 忽略空行与 # 注释。
// 字节之间允许空格、冒号或下划线分隔。
func LoadHexFrames(r io.Reader) ([][]byte, error) {
	var frames [][]byte
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		frame, err := DecodeHex(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, frame)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// DecodeHex 解析带分隔符的十六进制字符串
func DecodeHex(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', '_', '|':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(cleaned)
}

// Replayer 按固定间隔将帧写入连接, 模拟总线网关
type Replayer struct {
	Interval time.Duration
	Loop     bool
}

// Replay 发送所有帧, 返回已发送的帧数
func (rp *Replayer) Replay(ctx context.Context, w io.Writer, frames [][]byte) (int, error) {
	if len(frames) == 0 {
		return 0, nil
	}
	sent := 0
	for {
		for _, f := range frames {
			if sent > 0 && rp.Interval > 0 {
				select {
				case <-ctx.Done():
					return sent, ctx.Err()
				case <-time.After(rp.Interval):
				}
			} else if err := ctx.Err(); err != nil {
				return sent, err
			}
			if _, err := w.Write(f); err != nil {
				return sent, fmt.Errorf("write frame %d: %w", sent+1, err)
			}
			sent++
		}
		if !rp.Loop {
			return sent, nil
		}
	}
}
