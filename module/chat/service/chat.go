package service

import (
	"context"
	"time"

	authmodel "Upside/module/auth/model"
	authsrv "Upside/module/auth/service"
	"Upside/module/chat/model"
	assets "Upside/service/assets"
	mgoSrv "Upside/service/mgo"
	errs "Upside/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func chatColl() *mongo.Collection {
	return mgoSrv.GetDB().Collection(model.CollectionChat)
}

func msgColl() *mongo.Collection {
	return mgoSrv.GetDB().Collection(model.CollectionMessage)
}

// SendMessage 发私信。没有会话就建一个，消息落库后更新会话冗余。
// 返回消息和会话，转发交给调用方。
func SendMessage(ctx context.Context, senderID, recipientID, text, img string) (*model.Message, *model.Chat, error) {
	if senderID == recipientID {
		return nil, nil, errs.ErrMessageToSelf.Wrap()
	}
	sOID, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, nil, errs.ErrArgs.WithDetail("bad sender id").Wrap()
	}
	rOID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return nil, nil, errs.ErrArgs.WithDetail("bad recipient id").Wrap()
	}

	now := time.Now()
	chat := &model.Chat{}
	err = chatColl().FindOne(ctx, bson.M{
		"participants": bson.M{"$all": []primitive.ObjectID{sOID, rOID}},
	}).Decode(chat)
	if err == mongo.ErrNoDocuments {
		chat = &model.Chat{
			ID:           primitive.NewObjectID(),
			Participants: []primitive.ObjectID{sOID, rOID},
			LastMessage:  model.LastMessage{Text: text, Sender: sOID},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := chatColl().InsertOne(ctx, chat); err != nil {
			return nil, nil, errs.WrapMsg(err, "create chat failed")
		}
	} else if err != nil {
		return nil, nil, errs.WrapMsg(err, "find chat failed")
	}

	if assets.ShouldUpload(img) {
		url, err := assets.Get().Upload(ctx, img)
		if err != nil {
			return nil, nil, errs.WrapMsg(err, "upload message image failed")
		}
		img = url
	}

	msg := &model.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chat.ID,
		Sender:    sOID,
		Text:      text,
		Img:       img,
		Status:    model.MessageStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := msgColl().InsertOne(ctx, msg); err != nil {
		return nil, nil, errs.WrapMsg(err, "insert message failed")
	}

	_, err = chatColl().UpdateOne(ctx, bson.M{"_id": chat.ID}, bson.M{"$set": bson.M{
		"last_message": model.LastMessage{Text: text, Sender: sOID},
		"updated_at":   now,
	}})
	if err != nil {
		return nil, nil, errs.WrapMsg(err, "update chat last message failed")
	}
	return msg, chat, nil
}

// GetChatMessages 必须是会话参与者；消息按时间正序。
func GetChatMessages(ctx context.Context, userID, chatID string) ([]*model.Message, error) {
	uOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	cOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, errs.ErrChatNotFound.Wrap()
	}

	chat := &model.Chat{}
	err = chatColl().FindOne(ctx, bson.M{
		"_id":          cOID,
		"participants": uOID,
		"is_deleted":   false,
	}).Decode(chat)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrChatNotFound.Wrap()
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find chat failed")
	}

	cur, err := msgColl().Find(ctx, bson.M{"chat_id": cOID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find messages failed")
	}
	defer cur.Close(ctx)

	msgs := []*model.Message{}
	for cur.Next(ctx) {
		m := &model.Message{}
		if err := cur.Decode(m); err != nil {
			return nil, errs.WrapMsg(err, "decode message failed")
		}
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate messages failed")
	}
	return msgs, nil
}

// GetUserChats 当前用户会话列表：最近更新在前，participants 只留对端摘要，
// 带每个会话的未读数（对方发的、未读的）。
func GetUserChats(ctx context.Context, userID string) ([]*model.ChatView, error) {
	uOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}

	cur, err := chatColl().Find(ctx,
		bson.M{"participants": uOID, "is_deleted": false},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find chats failed")
	}
	defer cur.Close(ctx)

	chats := []*model.Chat{}
	chatIDs := []primitive.ObjectID{}
	for cur.Next(ctx) {
		ch := &model.Chat{}
		if err := cur.Decode(ch); err != nil {
			return nil, errs.WrapMsg(err, "decode chat failed")
		}
		chats = append(chats, ch)
		chatIDs = append(chatIDs, ch.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate chats failed")
	}
	if len(chats) == 0 {
		return []*model.ChatView{}, nil
	}

	unseen, err := unseenCounts(ctx, chatIDs, uOID)
	if err != nil {
		return nil, err
	}

	views := make([]*model.ChatView, 0, len(chats))
	for _, ch := range chats {
		peers, err := peerBriefs(ctx, ch.Participants, uOID)
		if err != nil {
			return nil, err
		}
		views = append(views, &model.ChatView{
			ID:           ch.ID.Hex(),
			Participants: peers,
			LastMessage:  ch.LastMessage,
			UnSeenCount:  unseen[ch.ID],
			UpdatedAt:    ch.UpdatedAt,
		})
	}
	return views, nil
}

// SearchChats 按用户名找会话：命中的既有会话 + 还没聊过的用户占位。
func SearchChats(ctx context.Context, userID, username string) ([]*model.ChatView, error) {
	uOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}

	userCur, err := mgoSrv.GetDB().Collection(authmodel.CollectionUser).Find(ctx, bson.M{
		"_id":        bson.M{"$ne": uOID},
		"username":   bson.M{"$regex": username, "$options": "i"},
		"is_deleted": false,
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "search users failed")
	}
	defer userCur.Close(ctx)

	matched := []*authmodel.User{}
	matchedIDs := []primitive.ObjectID{}
	for userCur.Next(ctx) {
		u := &authmodel.User{}
		if err := userCur.Decode(u); err != nil {
			return nil, errs.WrapMsg(err, "decode user failed")
		}
		matched = append(matched, u)
		matchedIDs = append(matchedIDs, u.ID)
	}
	if err := userCur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate users failed")
	}
	if len(matched) == 0 {
		return []*model.ChatView{}, nil
	}

	chatCur, err := chatColl().Find(ctx, bson.M{"$and": []bson.M{
		{"participants": uOID},
		{"participants": bson.M{"$in": matchedIDs}},
		{"is_deleted": false},
	}}, options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find chats failed")
	}
	defer chatCur.Close(ctx)

	views := []*model.ChatView{}
	chatted := map[primitive.ObjectID]bool{}
	for chatCur.Next(ctx) {
		ch := &model.Chat{}
		if err := chatCur.Decode(ch); err != nil {
			return nil, errs.WrapMsg(err, "decode chat failed")
		}
		peers, err := peerBriefs(ctx, ch.Participants, uOID)
		if err != nil {
			return nil, err
		}
		for _, p := range peers {
			chatted[p.ID] = true
		}
		views = append(views, &model.ChatView{
			ID:           ch.ID.Hex(),
			Participants: peers,
			LastMessage:  ch.LastMessage,
			UpdatedAt:    ch.UpdatedAt,
		})
	}
	if err := chatCur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate chats failed")
	}

	// 没聊过的用户也给前端一条可点开的占位
	for _, u := range matched {
		if chatted[u.ID] {
			continue
		}
		views = append(views, &model.ChatView{
			Participants: []authmodel.Brief{u.Brief()},
			LastMessage:  model.LastMessage{},
			NotChatted:   true,
		})
	}
	return views, nil
}

// MarkChatSeen 已读同步的落库侧：消息批量置已读 + 会话冗余置已读。
// 两步写不带事务，重放无害。
func MarkChatSeen(ctx context.Context, chatID string) error {
	cOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return errs.ErrChatNotFound.Wrap()
	}
	if _, err := msgColl().UpdateMany(ctx,
		bson.M{"chat_id": cOID, "seen": false},
		bson.M{"$set": bson.M{"seen": true}}); err != nil {
		return errs.WrapMsg(err, "mark messages seen failed")
	}
	if _, err := chatColl().UpdateOne(ctx,
		bson.M{"_id": cOID},
		bson.M{"$set": bson.M{"last_message.seen": true}}); err != nil {
		return errs.WrapMsg(err, "mark chat last message seen failed")
	}
	return nil
}

// SeenStoreFunc 适配成 chat.SeenStore
type SeenStoreFunc func(ctx context.Context, chatID string) error

func (f SeenStoreFunc) MarkChatSeen(ctx context.Context, chatID string) error {
	return f(ctx, chatID)
}

func unseenCounts(ctx context.Context, chatIDs []primitive.ObjectID, self primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	cur, err := msgColl().Find(ctx, bson.M{
		"chat_id": bson.M{"$in": chatIDs},
		"sender":  bson.M{"$ne": self},
		"seen":    false,
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "find unseen messages failed")
	}
	defer cur.Close(ctx)

	msgs := []*model.Message{}
	for cur.Next(ctx) {
		m := &model.Message{}
		if err := cur.Decode(m); err != nil {
			return nil, errs.WrapMsg(err, "decode message failed")
		}
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate unseen messages failed")
	}
	return TallyUnseen(msgs, self), nil
}

// TallyUnseen 按会话统计未读：对方发的、seen=false 的消息数。
func TallyUnseen(msgs []*model.Message, self primitive.ObjectID) map[primitive.ObjectID]int {
	counts := map[primitive.ObjectID]int{}
	for _, m := range msgs {
		if m.Sender == self || m.Seen {
			continue
		}
		counts[m.ChatID]++
	}
	return counts
}

func peerBriefs(ctx context.Context, participants []primitive.ObjectID, self primitive.ObjectID) ([]authmodel.Brief, error) {
	briefs := []authmodel.Brief{}
	for _, pid := range participants {
		if pid == self {
			continue
		}
		u, err := authsrv.CheckUserExist(ctx, bson.M{"_id": pid})
		if err != nil {
			return nil, err
		}
		if u == nil {
			continue
		}
		briefs = append(briefs, u.Brief())
	}
	return briefs, nil
}
