package service

import (
	"context"
	"time"

	authmodel "Upside/module/auth/model"
	authsrv "Upside/module/auth/service"
	"Upside/module/post/model"
	assets "Upside/service/assets"
	mgoSrv "Upside/service/mgo"
	errs "Upside/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func postColl() *mongo.Collection {
	return mgoSrv.GetDB().Collection(model.CollectionPost)
}

// Create 发帖；文字和图至少一样。图先过资源托管。
func Create(ctx context.Context, userID, text, img string) (*model.Post, error) {
	if text == "" && img == "" {
		return nil, errs.ErrArgs.WithDetail("please provide text or image").Wrap()
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	if assets.ShouldUpload(img) {
		url, err := assets.Get().Upload(ctx, img)
		if err != nil {
			return nil, errs.WrapMsg(err, "upload post image failed")
		}
		img = url
	}

	now := time.Now()
	post := &model.Post{
		ID:        primitive.NewObjectID(),
		PostedBy:  oid,
		Text:      text,
		Img:       img,
		Likes:     []primitive.ObjectID{},
		Comments:  []model.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := postColl().InsertOne(ctx, post); err != nil {
		return nil, errs.WrapMsg(err, "insert post failed")
	}
	return post, nil
}

func getByID(ctx context.Context, postID string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, errs.ErrPostNotFound.Wrap()
	}
	p := &model.Post{}
	err = postColl().FindOne(ctx, bson.M{"_id": oid, "is_deleted": false}).Decode(p)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrPostNotFound.Wrap()
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find post failed")
	}
	return p, nil
}

// Get 查单帖，评论过滤软删、最新在前
func Get(ctx context.Context, postID string) (*model.Post, error) {
	p, err := getByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	p.Comments = p.VisibleComments()
	return p, nil
}

// Update 编辑帖子文字/图，空值不动
func Update(ctx context.Context, postID, text, img string) (*model.Post, error) {
	p, err := getByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if text != "" {
		set["text"] = text
		p.Text = text
	}
	if img != "" {
		if assets.ShouldUpload(img) {
			url, err := assets.Get().Upload(ctx, img)
			if err != nil {
				return nil, errs.WrapMsg(err, "upload post image failed")
			}
			img = url
		}
		set["img"] = img
		p.Img = img
	}
	if _, err := postColl().UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set}); err != nil {
		return nil, errs.WrapMsg(err, "update post failed")
	}
	return p, nil
}

// Delete 软删
func Delete(ctx context.Context, postID string) error {
	p, err := getByID(ctx, postID)
	if err != nil {
		return err
	}
	_, err = postColl().UpdateOne(ctx, bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
	if err != nil {
		return errs.WrapMsg(err, "delete post failed")
	}
	return nil
}

// ListByUser 某用户的帖子，最新在前
func ListByUser(ctx context.Context, userID string, includeDeleted bool) ([]*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	filter := bson.M{"posted_by": oid}
	if !includeDeleted {
		filter["is_deleted"] = false
	}
	return listPosts(ctx, filter)
}

// Feed 关注流：关注列表里所有人的帖子，最新在前
func Feed(ctx context.Context, userID string) ([]*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	u, err := authsrv.CheckUserExist(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	following := u.Following
	if len(following) == 0 {
		return []*model.Post{}, nil
	}
	return listPosts(ctx, bson.M{"posted_by": bson.M{"$in": following}, "is_deleted": false})
}

func listPosts(ctx context.Context, filter bson.M) ([]*model.Post, error) {
	cur, err := postColl().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find posts failed")
	}
	defer cur.Close(ctx)

	posts := []*model.Post{}
	for cur.Next(ctx) {
		p := &model.Post{}
		if err := cur.Decode(p); err != nil {
			return nil, errs.WrapMsg(err, "decode post failed")
		}
		posts = append(posts, p)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate posts failed")
	}
	return posts, nil
}

// ToggleLike 点赞/取消。返回这次动作是否点赞。
func ToggleLike(ctx context.Context, postID, userID string) (liked bool, post *model.Post, err error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	p, err := getByID(ctx, postID)
	if err != nil {
		return false, nil, err
	}

	liked = !ContainsID(p.Likes, uid)
	var update bson.M
	if liked {
		update = bson.M{"$addToSet": bson.M{"likes": uid}}
		p.Likes = append(p.Likes, uid)
	} else {
		update = bson.M{"$pull": bson.M{"likes": uid}}
		p.Likes = RemoveID(p.Likes, uid)
	}
	if _, err := postColl().UpdateOne(ctx, bson.M{"_id": p.ID}, update); err != nil {
		return false, nil, errs.WrapMsg(err, "update likes failed")
	}
	return liked, p, nil
}

// AddComment 追加评论
func AddComment(ctx context.Context, postID, userID, text string) (*model.Post, error) {
	if text == "" {
		return nil, errs.ErrArgs.WithDetail("comment text required").Wrap()
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	p, err := getByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		Text:      text,
		Likes:     []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}
	if _, err := postColl().UpdateOne(ctx, bson.M{"_id": p.ID},
		bson.M{"$push": bson.M{"comments": comment}}); err != nil {
		return nil, errs.WrapMsg(err, "push comment failed")
	}
	p.Comments = append(p.Comments, comment)
	return p, nil
}

// DeleteComment 只有评论作者本人能删；软删。
func DeleteComment(ctx context.Context, postID, commentID, userID string) error {
	cid, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return errs.ErrCommentNotFND.Wrap()
	}
	p, err := getByID(ctx, postID)
	if err != nil {
		return err
	}

	var target *model.Comment
	for i := range p.Comments {
		if p.Comments[i].ID == cid && !p.Comments[i].IsDeleted {
			target = &p.Comments[i]
			break
		}
	}
	if target == nil {
		return errs.ErrCommentNotFND.Wrap()
	}
	if target.UserID.Hex() != userID {
		return errs.ErrNotCommentOwn.Wrap()
	}

	_, err = postColl().UpdateOne(ctx,
		bson.M{"_id": p.ID, "comments._id": cid},
		bson.M{"$set": bson.M{"comments.$.is_deleted": true}})
	if err != nil {
		return errs.WrapMsg(err, "delete comment failed")
	}
	return nil
}

// ToggleCommentLike 评论点赞/取消
func ToggleCommentLike(ctx context.Context, postID, commentID, userID string) (liked bool, err error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	cid, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return false, errs.ErrCommentNotFND.Wrap()
	}
	p, err := getByID(ctx, postID)
	if err != nil {
		return false, err
	}

	var target *model.Comment
	for i := range p.Comments {
		if p.Comments[i].ID == cid && !p.Comments[i].IsDeleted {
			target = &p.Comments[i]
			break
		}
	}
	if target == nil {
		return false, errs.ErrCommentNotFND.Wrap()
	}

	liked = !ContainsID(target.Likes, uid)
	var update bson.M
	if liked {
		update = bson.M{"$addToSet": bson.M{"comments.$.likes": uid}}
	} else {
		update = bson.M{"$pull": bson.M{"comments.$.likes": uid}}
	}
	_, err = postColl().UpdateOne(ctx, bson.M{"_id": p.ID, "comments._id": cid}, update)
	if err != nil {
		return false, errs.WrapMsg(err, "update comment likes failed")
	}
	return liked, nil
}

// PosterBrief 发帖人摘要，贴子列表 populate 用
func PosterBrief(ctx context.Context, userID primitive.ObjectID) (*authmodel.Brief, error) {
	u, err := authsrv.CheckUserExist(ctx, bson.M{"_id": userID})
	if err != nil || u == nil {
		return nil, err
	}
	b := u.Brief()
	return &b, nil
}

// ===== 纯集合操作 =====

func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
