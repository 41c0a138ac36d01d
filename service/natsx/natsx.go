package natsx

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"Upside/logger"

	"github.com/nats-io/nats.go"
)

// 事件流：审计/离线分析消费方订阅这些 subject。
// 投递是 fire-and-forget，不影响在线转发语义。
const (
	SubjectUserOnline  = "upside.user.online"
	SubjectUserOffline = "upside.user.offline"
	SubjectMessageSent = "upside.message.sent"
)

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn
}

var (
	globalMu sync.RWMutex
	global   *NatsxClient
)

// Init 连接 NATS 并设置全局客户端；未配置 servers 时保持 nil（发布变 no-op）。
func Init(cfg NatsxConfig) error {
	if len(cfg.Servers) == 0 {
		return nil
	}
	c, err := NewNatsxClient(cfg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	global = c
	globalMu.Unlock()
	return nil
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig) (*NatsxClient, error) {
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, err
	}
	return &NatsxClient{cfg: cfg, nc: nc}, nil
}

func (c *NatsxClient) Publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.nc.Publish(subject, b)
}

// Close 优雅关闭
func (c *NatsxClient) Close() {
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}

// PublishEvent 全局发布；客户端缺席或出错时只记日志。
func PublishEvent(subject string, v any) {
	globalMu.RLock()
	c := global
	globalMu.RUnlock()
	if c == nil {
		return
	}
	if err := c.Publish(subject, v); err != nil {
		logger.Warnf("[natsx] publish %s failed: %v", subject, err)
	}
}

func CloseGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		global.Close()
		global = nil
	}
}
