package chat

import (
	"context"
	"fmt"
)

// Session 一条连接的会话上下文：连接时绑定的身份。
type Session struct {
	UserID string
	ConnID string
}

type HandlerFunc func(ctx context.Context, sess *Session, data map[string]any) error

// Dispatcher 显式分发表：事件名 -> 处理函数。
// 由每条连接的读循环按帧调用；控制流可直接观察，不依赖活的传输层。
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(event string, h HandlerFunc) { d.handlers[event] = h }

func (d *Dispatcher) Dispatch(ctx context.Context, sess *Session, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return fmt.Errorf("no handler for event=%q", f.Event)
	}
	return h(ctx, sess, f.Data)
}

func (d *Dispatcher) Has(event string) bool {
	_, ok := d.handlers[event]
	return ok
}
