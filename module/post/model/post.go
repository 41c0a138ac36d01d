package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionPost = "posts"

// Comment 帖子内嵌评论。删除是软删，点赞记用户ID集合。
type Comment struct {
	ID        primitive.ObjectID   `bson:"_id" json:"_id"`
	UserID    primitive.ObjectID   `bson:"user_id" json:"userId"`
	Text      string               `bson:"text" json:"text"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	IsDeleted bool                 `bson:"is_deleted" json:"-"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}

// Post 帖子文档
type Post struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PostedBy   primitive.ObjectID   `bson:"posted_by" json:"postedBy"`
	Text       string               `bson:"text,omitempty" json:"text,omitempty"`
	Img        string               `bson:"img,omitempty" json:"img,omitempty"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments   []Comment            `bson:"comments" json:"comments"`
	IsArchived bool                 `bson:"is_archived" json:"isArchived"`
	IsDeleted  bool                 `bson:"is_deleted" json:"-"`
	CreatedAt  time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updated_at" json:"updatedAt"`
}

// VisibleComments 过滤软删评论，最新在前
func (p *Post) VisibleComments() []Comment {
	out := make([]Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
