package chat

import (
	"context"

	"Upside/logger"
)

// SeenStore 已读同步要落库的两步写（消息批量置已读 + 会话 lastMessage 置已读）。
// module/chat/service 提供 mongo 实现；单测用内存假实现。
type SeenStore interface {
	MarkChatSeen(ctx context.Context, chatID string) error
}

// Coordinator 实时协调器：目录、在线广播、消息转发、已读同步、呼叫信令。
// 持久化世界（REST 落库）与连接世界之间唯一的桥。
type Coordinator struct {
	dir    *Directory
	sender Sender
	store  SeenStore
}

func NewCoordinator(dir *Directory, sender Sender, store SeenStore) *Coordinator {
	return &Coordinator{dir: dir, sender: sender, store: store}
}

func (c *Coordinator) Directory() *Directory { return c.dir }

// HandleConnect 连接登记 + 全量在线广播。
// 返回被顶掉的旧连接ID（同一用户重复连接时）。
func (c *Coordinator) HandleConnect(userID, connID string) (evicted string, hadOld bool) {
	evicted, hadOld = c.dir.Register(userID, connID)
	if hadOld {
		logger.Infof("[coord] user=%s reconnected, evicted conn=%s", userID, evicted)
	}
	c.broadcastPresence()
	return evicted, hadOld
}

// HandleDisconnect compare-and-delete 注销 + 全量在线广播。
// 旧连接迟到的断开不会清掉该用户的新映射（此时也不重播在线集合变化）。
func (c *Coordinator) HandleDisconnect(userID, connID string) bool {
	removed := c.dir.Unregister(userID, connID)
	c.broadcastPresence()
	return removed
}

// 全量集合广播，O(在线人数)；没有增量 diff，小规模够用
func (c *Coordinator) broadcastPresence() {
	c.sender.Broadcast(EventOnlineUsers, c.dir.Snapshot())
}

// RelayNewMessage 把已落库的消息转给收件人的活跃连接。
// 收件人不在线：静默丢弃，REST 落库结果即是事实（尽力而为、至多一次）。
func (c *Coordinator) RelayNewMessage(recipientID string, message any) {
	connID, ok := c.dir.Lookup(recipientID)
	if !ok {
		return
	}
	if err := c.sender.SendTo(connID, EventNewMessage, message); err != nil {
		logger.Infof("[coord] newMessage to user=%s dropped: %v", recipientID, err)
	}
}

// MarkMessagesSeen 已读同步：两步落库（非事务），然后通知 payload 里
// userId 对应的连接。调用方传的是对端（发送者）的ID，原语义保留。
// 落库失败只记日志，客户端不收错误也不重试。
func (c *Coordinator) MarkMessagesSeen(ctx context.Context, p *SeenPayload) {
	if err := c.store.MarkChatSeen(ctx, p.ChatID); err != nil {
		logger.Errorf("[coord] mark seen chatId=%s failed: %v", p.ChatID, err)
		return
	}

	connID, ok := c.dir.Lookup(p.UserID)
	if !ok {
		return
	}
	if err := c.sender.SendTo(connID, EventSeenMessages, map[string]any{"chatId": p.ChatID}); err != nil {
		logger.Infof("[coord] seenMessages to user=%s dropped: %v", p.UserID, err)
	}
}

// HandleCall 呼叫邀请：被叫在线则转 incomingCall，否则静默丢弃。
// 无超时、无取消；拒接/超时由两端自行约定。
func (c *Coordinator) HandleCall(p *CallPayload) {
	connID, ok := c.dir.Lookup(p.CalleeID)
	if !ok {
		logger.Infof("[coord] call callee=%s offline, dropped", p.CalleeID)
		return
	}
	if err := c.sender.SendTo(connID, EventIncomingCall, p); err != nil {
		logger.Infof("[coord] incomingCall to user=%s dropped: %v", p.CalleeID, err)
	}
}

// HandleAnswer 应答：主叫仍在线则转 callAccepted；主叫已断开则静默失败。
func (c *Coordinator) HandleAnswer(p *AnswerPayload) {
	connID, ok := c.dir.Lookup(p.CallerID)
	if !ok {
		logger.Infof("[coord] answer caller=%s offline, dropped", p.CallerID)
		return
	}
	if err := c.sender.SendTo(connID, EventCallAccepted, p); err != nil {
		logger.Infof("[coord] callAccepted to user=%s dropped: %v", p.CallerID, err)
	}
}
