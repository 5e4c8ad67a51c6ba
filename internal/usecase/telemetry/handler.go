package telemetry

import (
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"comms-middleware/internal/protocol/carframe"
	"comms-middleware/internal/usecase"
)

// Handler 解析总线帧并投递到分发器
type Handler struct {
	Registry   *ConnRegistry
	Dispatcher usecase.Dispatcher // nil 表示不投递
	kind       carframe.Kind
	vehicleID  string
	msgType    string
	logger     *zap.Logger
}

func NewHandler(kind carframe.Kind, vehicleID string, registry *ConnRegistry, dispatcher usecase.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Registry:   registry,
		Dispatcher: dispatcher,
		kind:       kind,
		vehicleID:  vehicleID,
		msgType:    strings.ToUpper(kind.String()),
		logger:     logger.With(zap.String("vehicle_id", vehicleID), zap.Stringer("kind", kind)),
	}
}

// Kind 返回该处理器解析的帧类型
func (h *Handler) Kind() carframe.Kind {
	return h.kind
}

// OnConnect 登记新连接
func (h *Handler) OnConnect(conn usecase.Conn) {
	h.Registry.Add(conn)
}

// OnDisconnect 注销连接
func (h *Handler) OnDisconnect(addr string) {
	h.Registry.Remove(addr)
}

// HandleFrame 处理单个完整帧
func (h *Handler) HandleFrame(conn usecase.Conn, raw []byte) (frame carframe.Frame, err error) {
	addr := conn.RemoteAddr()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in HandleFrame",
				zap.Any("recover", r),
				zap.String("remote_addr", addr),
				zap.String("stack", string(debug.Stack())))
			frame = nil
			err = fmt.Errorf("internal server error: %v", r)
		}
	}()

	frame, err = carframe.DecodeBytes(h.kind, raw)
	if err != nil {
		h.logger.Warn("Frame decode failed",
			zap.Error(err),
			zap.String("remote_addr", addr),
			zap.String("raw_hex", hex.EncodeToString(raw)))
		return nil, fmt.Errorf("帧解析失败: %w", err)
	}

	h.Registry.Touch(addr)
	h.logger.Debug("Frame decoded", zap.String("remote_addr", addr), zap.Any("frame", frame))

	if h.Dispatcher != nil {
		h.Dispatcher.Dispatch(usecase.NewMQPayload(h.msgType, h.vehicleID, addr, frame))
	}
	return frame, nil
}
