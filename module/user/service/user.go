package service

import (
	"context"

	"Upside/module/auth/model"
	authsrv "Upside/module/auth/service"
	assets "Upside/service/assets"
	mgoSrv "Upside/service/mgo"
	errs "Upside/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func userColl() *mongo.Collection {
	return mgoSrv.GetDB().Collection(model.CollectionUser)
}

// ToggleFollow 关注/取关开关。返回这次动作是否是关注。
// 两个用户分两次写，不走事务；中途失败最多漏一半，下次点击可修复。
func ToggleFollow(ctx context.Context, currentID, targetID string) (followed bool, err error) {
	if currentID == targetID {
		return false, errs.ErrFollowSelf.Wrap()
	}
	curOID, err := primitive.ObjectIDFromHex(currentID)
	if err != nil {
		return false, errs.ErrArgs.WithDetail("bad current user id").Wrap()
	}
	tgtOID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return false, errs.ErrArgs.WithDetail("bad target user id").Wrap()
	}

	current, err := authsrv.CheckUserExist(ctx, bson.M{"_id": curOID})
	if err != nil {
		return false, err
	}
	target, err := authsrv.CheckUserExist(ctx, bson.M{"_id": tgtOID})
	if err != nil {
		return false, err
	}
	if current == nil || target == nil {
		return false, errs.ErrUserNotFound.Wrap()
	}

	isFollowing := false
	for _, id := range current.Following {
		if id == tgtOID {
			isFollowing = true
			break
		}
	}

	var curUpdate, tgtUpdate bson.M
	if isFollowing {
		curUpdate = bson.M{"$pull": bson.M{"following": tgtOID}}
		tgtUpdate = bson.M{"$pull": bson.M{"followers": curOID}}
	} else {
		curUpdate = bson.M{"$addToSet": bson.M{"following": tgtOID}}
		tgtUpdate = bson.M{"$addToSet": bson.M{"followers": curOID}}
	}

	if _, err := userColl().UpdateOne(ctx, bson.M{"_id": curOID}, curUpdate); err != nil {
		return false, errs.WrapMsg(err, "update following failed")
	}
	if _, err := userColl().UpdateOne(ctx, bson.M{"_id": tgtOID}, tgtUpdate); err != nil {
		return false, errs.WrapMsg(err, "update followers failed")
	}
	return !isFollowing, nil
}

// Suggested 推荐还没关注的人：排除自己、已关注、停用和已删号，最多10个。
func Suggested(ctx context.Context, currentID string) ([]*model.User, error) {
	curOID, err := primitive.ObjectIDFromHex(currentID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	current, err := authsrv.CheckUserExist(ctx, bson.M{"_id": curOID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}

	exclude := append([]primitive.ObjectID{curOID}, current.Following...)
	cur, err := userColl().Find(ctx, bson.M{
		"_id":            bson.M{"$nin": exclude},
		"is_deactivated": false,
		"is_deleted":     false,
	}, options.Find().SetLimit(10).SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find suggested users failed")
	}
	defer cur.Close(ctx)

	return decodeSanitized(ctx, cur)
}

// GetByIDOrUsername 参数像 ObjectID 就按 _id 查，否则按用户名查。
func GetByIDOrUsername(ctx context.Context, idOrUsername string) (*model.User, error) {
	filter := bson.M{"username": idOrUsername, "is_deleted": false}
	if oid, err := primitive.ObjectIDFromHex(idOrUsername); err == nil {
		filter = bson.M{"_id": oid, "is_deleted": false}
	}
	u, err := authsrv.CheckUserExist(ctx, filter)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	return u.Sanitize(), nil
}

// SearchByUsername 用户名模糊搜索（大小写不敏感），排除自己。
func SearchByUsername(ctx context.Context, currentID, username string) ([]*model.User, error) {
	filter := bson.M{
		"username":   bson.M{"$regex": username, "$options": "i"},
		"is_deleted": false,
	}
	if oid, err := primitive.ObjectIDFromHex(currentID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	cur, err := userColl().Find(ctx, filter)
	if err != nil {
		return nil, errs.WrapMsg(err, "search users failed")
	}
	defer cur.Close(ctx)

	return decodeSanitized(ctx, cur)
}

// UpdateReq 资料更新入参，全部可选，空值不动
type UpdateReq struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

// UpdateProfile 更新资料。传了新头像先走资源托管，旧头像顺手清理。
func UpdateProfile(ctx context.Context, currentID string, req *UpdateReq) (*model.User, error) {
	curOID, err := primitive.ObjectIDFromHex(currentID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	user, err := authsrv.CheckUserExist(ctx, bson.M{"_id": curOID})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Username != "" {
		set["username"] = req.Username
	}
	if req.Email != "" {
		set["email"] = req.Email
	}
	if req.Bio != "" {
		set["bio"] = req.Bio
	}
	if req.ProfilePic != "" && assets.ShouldUpload(req.ProfilePic) {
		up := assets.Get()
		if user.ProfilePic != "" {
			_ = up.Destroy(ctx, user.ProfilePic)
		}
		url, err := up.Upload(ctx, req.ProfilePic)
		if err != nil {
			return nil, errs.WrapMsg(err, "upload profile pic failed")
		}
		set["profile_pic"] = url
	} else if req.ProfilePic != "" {
		set["profile_pic"] = req.ProfilePic
	}

	if len(set) > 0 {
		if _, err := userColl().UpdateOne(ctx, bson.M{"_id": curOID}, bson.M{"$set": set}); err != nil {
			return nil, errs.WrapMsg(err, "update profile failed")
		}
	}

	updated, err := authsrv.CheckUserExist(ctx, bson.M{"_id": curOID})
	if err != nil {
		return nil, err
	}
	return updated.Sanitize(), nil
}

// Deactivate 停用账号；下次登录自动恢复。
func Deactivate(ctx context.Context, currentID string) error {
	curOID, err := primitive.ObjectIDFromHex(currentID)
	if err != nil {
		return errs.ErrArgs.WithDetail("bad user id").Wrap()
	}
	res, err := userColl().UpdateOne(ctx,
		bson.M{"_id": curOID},
		bson.M{"$set": bson.M{"is_deactivated": true}})
	if err != nil {
		return errs.WrapMsg(err, "deactivate user failed")
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound.Wrap()
	}
	return nil
}

func decodeSanitized(ctx context.Context, cur *mongo.Cursor) ([]*model.User, error) {
	users := []*model.User{}
	for cur.Next(ctx) {
		u := &model.User{}
		if err := cur.Decode(u); err != nil {
			return nil, errs.WrapMsg(err, "decode user failed")
		}
		users = append(users, u.Sanitize())
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate users failed")
	}
	return users, nil
}
