package server

import (
	"context"
	"fmt"

	"github.com/panjf2000/gnet/v2"
	"go.uber.org/zap"

	"comms-middleware/internal/config"
	"comms-middleware/internal/protocol/carframe"
	"comms-middleware/internal/usecase"
)

// FrameHandler 由 usecase 层实现
type FrameHandler interface {
	Kind() carframe.Kind
	OnConnect(conn usecase.Conn)
	OnDisconnect(addr string)
	HandleFrame(conn usecase.Conn, raw []byte) (carframe.Frame, error)
}

// connContext 保存每个连接的状态
type connContext struct {
	buffer  []byte
	scanner *carframe.FrameScanner
	addr    string
}

// GnetConnWrapper 可在事件循环之外使用 (例如空闲检测), 因此只调用 gnet 的并发安全方法
type GnetConnWrapper struct {
	conn gnet.Conn
	addr string
}

func (w *GnetConnWrapper) RemoteAddr() string {
	return w.addr
}

func (w *GnetConnWrapper) Close() error {
	return w.conn.CloseWithCallback(nil)
}

func (w *GnetConnWrapper) Write(b []byte) (n int, err error) {
	if err := w.conn.AsyncWrite(b, nil); err != nil {
		return 0, err
	}
	return len(b), nil
}

type TCPServer struct {
	gnet.BuiltinEventEngine

	addr      string
	multicore bool
	logger    *zap.Logger
	handler   FrameHandler
}

func NewTCPServer(cfg *config.Config, logger *zap.Logger, h FrameHandler) *TCPServer {
	return &TCPServer{
		addr:      fmt.Sprintf("tcp://%s:%d", cfg.Server.Host, cfg.Server.Port),
		multicore: cfg.Server.Multicore,
		logger:    logger,
		handler:   h,
	}
}

func (s *TCPServer) OnBoot(eng gnet.Engine) (action gnet.Action) {
	s.logger.Info("TCP Server is booting",
		zap.String("address", s.addr),
		zap.Stringer("kind", s.handler.Kind()))
	return
}

func (s *TCPServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	addr := c.RemoteAddr().String()
	s.logger.Info("New connection opened", zap.String("remote_addr", addr))

	scanner, err := carframe.NewFrameScanner(s.handler.Kind())
	if err != nil {
		s.logger.Error("Cannot create frame scanner", zap.Error(err))
		return nil, gnet.Close
	}

	// 初始化连接上下文
	ctx := &connContext{
		buffer:  make([]byte, 0, 4*scanner.FrameSize()),
		scanner: scanner,
		addr:    addr,
	}
	c.SetContext(ctx)
	s.handler.OnConnect(&GnetConnWrapper{conn: c, addr: addr})

	return
}

func (s *TCPServer) OnTraffic(c gnet.Conn) (action gnet.Action) {
	ctx, ok := c.Context().(*connContext)
	if !ok {
		return gnet.Close
	}

	// 读取新数据
	buf, err := c.Next(-1)
	if err != nil {
		s.logger.Warn("Read failed", zap.Error(err), zap.String("remote_addr", ctx.addr))
		return gnet.Close
	}
	if len(buf) == 0 {
		return
	}

	// 追加到连接缓冲区
	ctx.buffer = append(ctx.buffer, buf...)

	wrapper := &GnetConnWrapper{conn: c, addr: ctx.addr}
	ctx.buffer, err = drainFrames(ctx.buffer, ctx.scanner, func(frame []byte) {
		if _, err := s.handler.HandleFrame(wrapper, frame); err != nil {
			s.logger.Warn("Handle frame failed", zap.Error(err), zap.String("remote_addr", ctx.addr))
		}
	})
	if err != nil {
		s.logger.Error("Frame split error", zap.Error(err), zap.String("remote_addr", ctx.addr))
		return gnet.Close
	}

	return
}

func (s *TCPServer) OnClose(c gnet.Conn, err error) (action gnet.Action) {
	addr := c.RemoteAddr().String()
	if ctx, ok := c.Context().(*connContext); ok {
		addr = ctx.addr
		if len(ctx.buffer) > 0 {
			s.logger.Warn("Discarding incomplete frame", zap.String("remote_addr", addr), zap.Int("bytes", len(ctx.buffer)))
		}
	}
	s.logger.Info("Connection closed", zap.String("remote_addr", addr), zap.Error(err))
	s.handler.OnDisconnect(addr)
	return
}

func (s *TCPServer) OnShutdown(eng gnet.Engine) {
	s.logger.Info("TCP Server is shutting down")
}

// Start 阻塞运行事件循环直到 Stop 被调用
func (s *TCPServer) Start(ctx context.Context) error {
	s.logger.Info("Starting TCP Server", zap.String("addr", s.addr))
	return gnet.Run(s, s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithLogger(s.logger.Sugar()),
		gnet.WithReusePort(true),
	)
}

func (s *TCPServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping TCP Server...")
	return gnet.Stop(ctx, s.addr)
}

// drainFrames 依次切出缓冲区中所有完整帧交给 fn, 返回剩余的不完整数据。
// 剩余数据被移动到缓冲区起始位置以复用底层数组。
func drainFrames(buf []byte, scanner *carframe.FrameScanner, fn func(frame []byte)) ([]byte, error) {
	consumed := 0
	for consumed < len(buf) {
		advance, token, err := scanner.SplitFunc(buf[consumed:], false)
		if err != nil {
			return buf[:0], err
		}
		if advance == 0 {
			// 需要更多数据
			break
		}
		if token != nil {
			fn(token)
		}
		consumed += advance
	}

	if consumed == 0 {
		return buf, nil
	}
	n := copy(buf, buf[consumed:])
	return buf[:n], nil
}
