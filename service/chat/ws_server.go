package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"Upside/logger"
	online "Upside/service/storage"
	ids "Upside/tools/ids"

	"Upside/service/natsx"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const seenSyncTimeout = 5 * time.Second

// Server 实时网关：升级连接、绑定身份、read loop 按分发表处理事件。
type Server struct {
	coord    *Coordinator
	registry *ConnRegistry
	disp     *Dispatcher
}

func NewServer(store SeenStore) *Server {
	registry := NewConnRegistry()
	coord := NewCoordinator(NewDirectory(), registry, store)
	s := &Server{
		coord:    coord,
		registry: registry,
		disp:     NewDispatcher(),
	}
	s.registerHandlers()
	return s
}

func (s *Server) Coordinator() *Coordinator { return s.coord }
func (s *Server) Registry() *ConnRegistry   { return s.registry }

func (s *Server) registerHandlers() {
	s.disp.Register(EventMarkSeen, func(ctx context.Context, sess *Session, data map[string]any) error {
		p, err := ExtractSeenPayload(data)
		if err != nil {
			return err
		}
		// 落库带超时；连接断开不取消已提交的写
		c, cancel := context.WithTimeout(context.Background(), seenSyncTimeout)
		defer cancel()
		s.coord.MarkMessagesSeen(c, p)
		return nil
	})

	s.disp.Register(EventCall, func(ctx context.Context, sess *Session, data map[string]any) error {
		p, err := ExtractCallPayload(data)
		if err != nil {
			return err
		}
		s.coord.HandleCall(p)
		return nil
	})

	s.disp.Register(EventAnswerCall, func(ctx context.Context, sess *Session, data map[string]any) error {
		p, err := ExtractAnswerPayload(data)
		if err != nil {
			return err
		}
		s.coord.HandleAnswer(p)
		return nil
	})
}

// HandleWS ===== WebSocket 入口 =====
//
// 握手 query 携带 userId（该层不鉴权，REST 面负责真正的登录）。
// userId 缺席或为 "undefined" 时连接保留（能收广播），但不进在线目录。
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	userID := c.Query("userId")
	if userID == "undefined" {
		userID = ""
	}
	connID := ids.GenerateString()
	sess := &Session{UserID: userID, ConnID: connID}

	s.registry.Add(connID, ws)
	if userID != "" {
		s.coord.HandleConnect(userID, connID)
		online.MirrorOnline(c.Request.Context(), userID)
		natsx.PublishEvent(natsx.SubjectUserOnline, map[string]any{"userId": userID, "ts": time.Now().UnixMilli()})
	} else {
		// 无身份连接也要看到当前在线集合
		snapshot := s.coord.Directory().Snapshot()
		_ = s.registry.SendTo(connID, EventOnlineUsers, snapshot)
	}

	logger.Infof("[HandleWS] connected user=%s connID=%s", userID, connID)

	// ---- 读循环：只读，不写；写全部走每连接写泵 ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed connID=%s err=%v", connID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout connID=%s err=%v", connID, rerr)
			} else {
				logger.Infof("[WS] read err connID=%s err=%v", connID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrameJSON(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] ParseFrameJSON err connID=%s err=%v sample=%q", connID, perr, sample)
			continue
		}

		if err := s.disp.Dispatch(c.Request.Context(), sess, frame); err != nil {
			// 事件级错误不掐连接，只记日志（负载畸形等）
			logger.Infof("[WS] handle event=%s connID=%s err=%v", frame.Event, connID, err)
		}
	}

	// ---- 退出阶段：注销目录 + 在线广播 + 回收连接 ----
	s.registry.Remove(connID)
	if userID != "" {
		removed := s.coord.HandleDisconnect(userID, connID)
		if removed {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			online.MirrorOffline(ctx, userID)
			cancel()
			natsx.PublishEvent(natsx.SubjectUserOffline, map[string]any{"userId": userID, "ts": time.Now().UnixMilli()})
		}
	}
	logger.Infof("[HandleWS] disconnected user=%s connID=%s", userID, connID)
}
