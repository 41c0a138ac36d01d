package chat

import (
	"encoding/json"
	"fmt"

	decode "Upside/tools/decode"
)

// ===== 事件名 =====

// 客户端 -> 服务端
const (
	EventMarkSeen   = "markMessagesAsSeen"
	EventCall       = "call"
	EventAnswerCall = "answer_call"
)

// 服务端 -> 客户端
const (
	EventOnlineUsers  = "getOnlineUsers"
	EventNewMessage   = "newMessage"
	EventSeenMessages = "seenMessages"
	EventIncomingCall = "incomingCall"
	EventCallAccepted = "callAccepted"
)

// Frame 线上帧：{"event": "...", "data": {...}}
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

func ParseFrameJSON(raw []byte) (*Frame, error) {
	frame := &Frame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if frame.Event == "" {
		return nil, fmt.Errorf("frame missing event name")
	}
	return frame, nil
}

func MarshalFrame(event string, data any) ([]byte, error) {
	return json.Marshal(map[string]any{"event": event, "data": data})
}

// ===== 事件负载 =====

type SeenPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// CallPayload 呼叫邀请：展示字段原样透传给被叫。
// 服务端不核对 callerId 与连接身份，与既有客户端保持兼容。
type CallPayload struct {
	CallerID         string `json:"callerId"`
	CalleeID         string `json:"calleeId"`
	ChannelName      string `json:"channelName"`
	CallerName       string `json:"callerName,omitempty"`
	CallerUsername   string `json:"callerUsername,omitempty"`
	CallerProfilePic string `json:"callerProfilePic,omitempty"`
	CalleeName       string `json:"calleeName,omitempty"`
	CalleeUsername   string `json:"calleeUsername,omitempty"`
	CalleeProfilePic string `json:"calleeProfilePic,omitempty"`
	CallStatus       string `json:"callStatus,omitempty"`
}

type AnswerPayload struct {
	CallerID    string `json:"callerId"`
	CalleeID    string `json:"calleeId"`
	ChannelName string `json:"channelName"`
	CallStatus  string `json:"callStatus,omitempty"`
}

func ExtractSeenPayload(data map[string]any) (*SeenPayload, error) {
	return decode.Decode[SeenPayload](data)
}

func ExtractCallPayload(data map[string]any) (*CallPayload, error) {
	return decode.Decode[CallPayload](data)
}

func ExtractAnswerPayload(data map[string]any) (*AnswerPayload, error) {
	return decode.Decode[AnswerPayload](data)
}
