package chat

import (
	"sync"
	"time"

	"Upside/logger"
	errs "Upside/tools/errs"

	"github.com/gorilla/websocket"
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
)

// Sender 把事件写到连接上。Coordinator 只依赖这个接口，
// 单测用内存实现替换。
type Sender interface {
	SendTo(connID, event string, data any) error
	Broadcast(event string, data any)
}

// wsClient 单条连接：gorilla 的 WriteMessage 不能并发调用，
// 每连接固定一个写协程 + 缓冲队列（写泵模型）。
type wsClient struct {
	connID string
	ws     *websocket.Conn

	sendCh    chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newWsClient(connID string, ws *websocket.Conn) *wsClient {
	c := &wsClient{
		connID: connID,
		ws:     ws,
		sendCh: make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data, ok := <-c.sendCh:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Infof("[WS] write failed connID=%s err=%v", c.connID, err)
				c.shutdown()
				return
			}
		}
	}
}

// enqueue 满了就丢（慢客户端不拖垮别人）
func (c *wsClient) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errs.New("connection closed", "connID", c.connID)
	case c.sendCh <- data:
		return nil
	default:
		return errs.New("send queue full", "connID", c.connID)
	}
}

func (c *wsClient) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// ConnRegistry connID -> 连接。目录存身份，这里存传输。
type ConnRegistry struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{clients: make(map[string]*wsClient)}
}

func (r *ConnRegistry) Add(connID string, ws *websocket.Conn) {
	cl := newWsClient(connID, ws)
	r.mu.Lock()
	old := r.clients[connID]
	r.clients[connID] = cl
	r.mu.Unlock()
	if old != nil {
		old.shutdown()
	}
}

func (r *ConnRegistry) Remove(connID string) {
	r.mu.Lock()
	cl := r.clients[connID]
	delete(r.clients, connID)
	r.mu.Unlock()
	if cl != nil {
		cl.shutdown()
	}
}

func (r *ConnRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SendTo 发单播事件帧。
func (r *ConnRegistry) SendTo(connID, event string, data any) error {
	r.mu.RLock()
	cl, ok := r.clients[connID]
	r.mu.RUnlock()
	if !ok {
		return errs.New("unknown connection", "connID", connID)
	}
	raw, err := MarshalFrame(event, data)
	if err != nil {
		return errs.Wrap(err)
	}
	return cl.enqueue(raw)
}

// Broadcast 向所有连接广播；单个失败只记日志。
func (r *ConnRegistry) Broadcast(event string, data any) {
	raw, err := MarshalFrame(event, data)
	if err != nil {
		logger.Errorf("[WS] marshal broadcast %s failed: %v", event, err)
		return
	}
	r.mu.RLock()
	targets := make([]*wsClient, 0, len(r.clients))
	for _, cl := range r.clients {
		targets = append(targets, cl)
	}
	r.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.enqueue(raw); err != nil {
			logger.Infof("[WS] broadcast %s to connID=%s dropped: %v", event, cl.connID, err)
		}
	}
}

// Close 关停全部连接（进程退出用）。
func (r *ConnRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cl := range r.clients {
		cl.shutdown()
	}
	r.clients = make(map[string]*wsClient)
}
