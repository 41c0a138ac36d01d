package service

import (
	"testing"

	"Upside/module/post/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestContainsAndRemoveID(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()
	ids := []primitive.ObjectID{a, b}

	if !ContainsID(ids, a) || !ContainsID(ids, b) {
		t.Fatalf("expected a and b present")
	}
	if ContainsID(ids, c) {
		t.Fatalf("c must not be present")
	}

	out := RemoveID([]primitive.ObjectID{a, b, a}, a)
	if len(out) != 1 || out[0] != b {
		t.Fatalf("remove a = %v, want only b", out)
	}
	// 不存在的ID删除是 no-op
	out = RemoveID([]primitive.ObjectID{b}, c)
	if len(out) != 1 || out[0] != b {
		t.Fatalf("removing absent id changed slice: %v", out)
	}
}

func TestVisibleCommentsFiltersAndReverses(t *testing.T) {
	u := primitive.NewObjectID()
	c1 := model.Comment{ID: primitive.NewObjectID(), UserID: u, Text: "first"}
	c2 := model.Comment{ID: primitive.NewObjectID(), UserID: u, Text: "deleted", IsDeleted: true}
	c3 := model.Comment{ID: primitive.NewObjectID(), UserID: u, Text: "latest"}

	p := &model.Post{Comments: []model.Comment{c1, c2, c3}}
	got := p.VisibleComments()

	if len(got) != 2 {
		t.Fatalf("visible comments = %d, want 2", len(got))
	}
	if got[0].Text != "latest" || got[1].Text != "first" {
		t.Fatalf("comments not newest-first: %q, %q", got[0].Text, got[1].Text)
	}
}
