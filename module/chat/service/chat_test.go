package service

import (
	"testing"

	"Upside/module/chat/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTallyUnseen(t *testing.T) {
	self := primitive.NewObjectID()
	peer := primitive.NewObjectID()
	chatA := primitive.NewObjectID()
	chatB := primitive.NewObjectID()

	msgs := []*model.Message{
		{ChatID: chatA, Sender: peer, Seen: false},
		{ChatID: chatA, Sender: peer, Seen: false},
		{ChatID: chatA, Sender: peer, Seen: true},  // 已读不计
		{ChatID: chatA, Sender: self, Seen: false}, // 自己发的不计
		{ChatID: chatB, Sender: peer, Seen: false},
	}

	counts := TallyUnseen(msgs, self)
	if counts[chatA] != 2 {
		t.Fatalf("chatA unseen = %d, want 2", counts[chatA])
	}
	if counts[chatB] != 1 {
		t.Fatalf("chatB unseen = %d, want 1", counts[chatB])
	}
	if len(counts) != 2 {
		t.Fatalf("tally has %d chats, want 2", len(counts))
	}
}

func TestTallyUnseenEmpty(t *testing.T) {
	self := primitive.NewObjectID()
	if counts := TallyUnseen(nil, self); len(counts) != 0 {
		t.Fatalf("empty input should yield empty tally, got %v", counts)
	}
}
