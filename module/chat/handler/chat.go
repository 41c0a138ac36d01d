package handler

import (
	midsec "Upside/middleware/security"
	chatsrv "Upside/module/chat/service"
	wschat "Upside/service/chat"
	"Upside/service/natsx"
	safe "Upside/tools/safe"
	errs "Upside/tools/errs"
	resp "Upside/tools/resp"

	"github.com/gin-gonic/gin"
)

// Handler 持有实时协调器：消息落库后由它转发给在线的收件人。
type Handler struct {
	coord *wschat.Coordinator
}

func New(coord *wschat.Coordinator) *Handler {
	return &Handler{coord: coord}
}

// RegisterRoutes /api/v1/chat，全部需要登录态
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(midsec.Middleware(midsec.DefaultOptions()))

	rg.POST("/messages", h.SendMessage)
	rg.GET("/getAllChats", h.GetAllChats)
	rg.GET("/search/:username", h.SearchChats)
	rg.GET("/:chatId/messages", h.GetChatMessages)
	rg.GET("/rtc-token", h.RTCToken)
}

type sendMessageReq struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Message     string `json:"message"`
	Img         string `json:"img"`
}

// SendMessage 落库成功就算发送成功；向在线收件人的实时转发不阻塞响应。
func (h *Handler) SendMessage(c *gin.Context) {
	req := &sendMessageReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	senderID := midsec.CurrentUserID(c)

	msg, _, err := chatsrv.SendMessage(c.Request.Context(), senderID, req.RecipientID, req.Message, req.Img)
	if err != nil {
		resp.Fail(c, err)
		return
	}

	recipientID := req.RecipientID
	safe.SafeGo(func() {
		h.coord.RelayNewMessage(recipientID, msg)
		natsx.PublishEvent(natsx.SubjectMessageSent, map[string]any{
			"chatId": msg.ChatID.Hex(),
			"sender": senderID,
		})
	})

	resp.OKMsg(c, "Message sent successfully", msg)
}

func (h *Handler) GetAllChats(c *gin.Context) {
	chats, err := chatsrv.GetUserChats(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Chats fetched successfully", gin.H{"chats": chats})
}

func (h *Handler) SearchChats(c *gin.Context) {
	chats, err := chatsrv.SearchChats(c.Request.Context(), midsec.CurrentUserID(c), c.Param("username"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Chats fetched successfully", gin.H{"chats": chats})
}

func (h *Handler) GetChatMessages(c *gin.Context) {
	msgs, err := chatsrv.GetChatMessages(c.Request.Context(), midsec.CurrentUserID(c), c.Param("chatId"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Messages fetched successfully", gin.H{"messages": msgs})
}

func (h *Handler) RTCToken(c *gin.Context) {
	token, err := chatsrv.GetRTCToken(c.Request.Context(), c.Query("uid"), c.Query("channelName"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Token fetched successfully", gin.H{"token": token})
}
