package model

import (
	"time"

	authmodel "Upside/module/auth/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CollectionChat    = "chats"
	CollectionMessage = "messages"
)

// 消息状态
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
)

// LastMessage 会话上冗余的最后一条消息
type LastMessage struct {
	Text   string             `bson:"text" json:"text"`
	Sender primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Seen   bool               `bson:"seen" json:"seen"`
}

// Chat 两人会话文档
type Chat struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Participants []primitive.ObjectID `bson:"participants" json:"-"`
	LastMessage  LastMessage          `bson:"last_message" json:"lastMessage"`
	IsDeleted    bool                 `bson:"is_deleted" json:"-"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}

// ChatView 会话列表视图：participants 替换成对端摘要，附未读数。
// 搜索接口里没聊过的用户也套这个形状，notChatted 置 true。
type ChatView struct {
	ID          string           `json:"_id,omitempty"`
	Participants []authmodel.Brief `json:"participants"`
	LastMessage LastMessage      `json:"lastMessage"`
	UnSeenCount int              `json:"unSeenCount"`
	NotChatted  bool             `json:"notChatted,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt,omitempty"`
}

// Message 消息文档
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chatId"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Text      string             `bson:"text,omitempty" json:"text,omitempty"`
	Img       string             `bson:"img,omitempty" json:"img,omitempty"`
	Status    string             `bson:"status" json:"status"`
	Seen      bool               `bson:"seen" json:"seen"`
	IsDeleted bool               `bson:"is_deleted" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
