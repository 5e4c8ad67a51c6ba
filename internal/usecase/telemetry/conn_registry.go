package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"comms-middleware/internal/usecase"
)

// Session 代表一个总线网关连接
type Session struct {
	Addr        string
	Conn        usecase.Conn
	ConnectedAt time.Time

	lastActive atomic.Int64 // UnixNano
	frames     atomic.Uint64
}

// LastActiveTime 最后一次收到有效帧的时间
func (s *Session) LastActiveTime() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Frames 已解析的帧数
func (s *Session) Frames() uint64 {
	return s.frames.Load()
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
	s.frames.Add(1)
}

// ConnRegistry 管理在线连接, 按远端地址索引
type ConnRegistry struct {
	sessions sync.Map // map[string]*Session (addr -> Session)
	logger   *zap.Logger
	now      func() time.Time
}

// NewConnRegistry 创建一个新的连接注册表
func NewConnRegistry(logger *zap.Logger) *ConnRegistry {
	return &ConnRegistry{
		logger: logger,
		now:    time.Now,
	}
}

// Add 注册连接
func (r *ConnRegistry) Add(conn usecase.Conn) *Session {
	now := r.now()
	sess := &Session{
		Addr:        conn.RemoteAddr(),
		Conn:        conn,
		ConnectedAt: now,
	}
	sess.lastActive.Store(now.UnixNano())
	r.sessions.Store(sess.Addr, sess)
	r.logger.Info("[ConnRegistry] Session Added", zap.String("remote_addr", sess.Addr))
	return sess
}

// Remove 删除会话但不关闭连接 (连接已由对端或服务端关闭)
func (r *ConnRegistry) Remove(addr string) {
	if val, ok := r.sessions.LoadAndDelete(addr); ok {
		sess := val.(*Session)
		r.logger.Info("[ConnRegistry] Session Removed",
			zap.String("remote_addr", sess.Addr),
			zap.Uint64("frames", sess.Frames()))
	}
}

// Get 获取会话
func (r *ConnRegistry) Get(addr string) (*Session, bool) {
	val, ok := r.sessions.Load(addr)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// Touch 记录一帧并刷新活跃时间
func (r *ConnRegistry) Touch(addr string) {
	if sess, ok := r.Get(addr); ok {
		sess.touch(r.now())
	}
}

// Count 返回在线连接数
func (r *ConnRegistry) Count() int {
	n := 0
	r.sessions.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// CheckIdle 关闭超过 timeout 未发送有效帧的连接, 返回关闭的数量
func (r *ConnRegistry) CheckIdle(timeout time.Duration) int {
	now := r.now()
	closed := 0
	r.sessions.Range(func(key, value interface{}) bool {
		sess := value.(*Session)
		idle := now.Sub(sess.LastActiveTime())
		if idle > timeout {
			r.logger.Info("[ConnRegistry] Session Timeout",
				zap.String("remote_addr", sess.Addr),
				zap.Duration("inactive_duration", idle))
			r.sessions.Delete(key)
			_ = sess.Conn.Close()
			closed++
		}
		return true // 继续遍历
	})
	return closed
}
