package service

import (
	"context"
	"time"

	"Upside/logger"
	"Upside/module/auth/model"
	config "Upside/global/config"
	mgoSrv "Upside/service/mgo"
	storage "Upside/service/storage"
	errs "Upside/tools/errs"
	sec "Upside/tools/security"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func userColl() *mongo.Collection {
	return mgoSrv.GetDB().Collection(model.CollectionUser)
}

// SignupReq 注册入参
type SignupReq struct {
	Name         string `json:"name" binding:"required"`
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email"`
	Password     string `json:"password" binding:"required,min=8"`
	CountryCode  string `json:"country_code"`
	MobileNumber string `json:"mobile_number"`
}

// CheckUserExist 按条件查一个用户；没有返回 nil, nil
func CheckUserExist(ctx context.Context, filter bson.M) (*model.User, error) {
	u := &model.User{}
	err := userColl().FindOne(ctx, filter).Decode(u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user failed")
	}
	return u, nil
}

// Signup 用户名或邮箱占用则拒绝；成功后直接下发登录态。
func Signup(ctx context.Context, req *SignupReq, origin string) (*model.User, string, error) {
	or := []bson.M{{"username": req.Username}}
	if req.Email != "" {
		or = append(or, bson.M{"email": req.Email})
	}
	exist, err := CheckUserExist(ctx, bson.M{"$or": or})
	if err != nil {
		return nil, "", err
	}
	if exist != nil {
		return nil, "", errs.ErrUserExist.Wrap()
	}

	hashed, err := sec.HashPassword(req.Password)
	if err != nil {
		return nil, "", errs.WrapMsg(err, "hash password failed")
	}

	now := time.Now()
	u := &model.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Password:     hashed,
		CountryCode:  req.CountryCode,
		MobileNumber: req.MobileNumber,
		Followers:    []primitive.ObjectID{},
		Following:    []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.CountryCode == "" {
		u.CountryCode = "+91"
	}
	if _, err := userColl().InsertOne(ctx, u); err != nil {
		return nil, "", errs.WrapMsg(err, "insert user failed")
	}

	token, err := issueSession(ctx, u.ID.Hex(), origin)
	if err != nil {
		return nil, "", err
	}
	return u.Sanitize(), token, nil
}

// Login 用户名/邮箱/手机号任意一个 + 密码。
// 账号处于停用态时本次登录自动恢复。
func Login(ctx context.Context, account, password, origin string) (*model.User, string, error) {
	u, err := CheckUserExist(ctx, bson.M{"$or": []bson.M{
		{"username": account},
		{"email": account},
		{"mobile_number": account},
	}})
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", errs.ErrBadCredential.Wrap()
	}

	if err := sec.ComparePassword(password, u.Password); err != nil {
		return nil, "", errs.ErrWrongPassword.Wrap()
	}

	if u.IsDeactivated {
		_, err := userColl().UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{"$set": bson.M{"is_deactivated": false}})
		if err != nil {
			return nil, "", errs.WrapMsg(err, "reactivate user failed")
		}
		u.IsDeactivated = false
	}

	token, err := issueSession(ctx, u.ID.Hex(), origin)
	if err != nil {
		return nil, "", err
	}
	return u.Sanitize(), token, nil
}

// VerifyAuth 校验通过后回查用户；用户没了视作登录态失效。
func VerifyAuth(ctx context.Context, userID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrTokenInvalid.Wrap()
	}
	u, err := CheckUserExist(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUserNotFound.Wrap()
	}
	return u.Sanitize(), nil
}

// Logout 删 redis 会话；redis 不可用时只靠 cookie 过期。
func Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := storage.DeleteSession(ctx, sec.HashToken(token)); err != nil {
		logger.Warnf("[auth] delete session failed: %v", err)
	}
}

func issueSession(ctx context.Context, userID, origin string) (string, error) {
	if origin == "" {
		origin = "dev"
	}
	token, hash, expireAt, err := sec.Generate(sec.DefaultOptions(config.GetJwtSecret()), userID, origin)
	if err != nil {
		return "", errs.WrapMsg(err, "generate token failed")
	}
	if err := storage.SaveSession(ctx, storage.UserSession{
		UserID:    userID,
		Origin:    origin,
		TokenHash: hash,
		LoginAt:   time.Now(),
		ExpireAt:  expireAt,
	}); err != nil {
		logger.Warnf("[auth] save session failed: %v", err)
	}
	return token, nil
}
