package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionUser = "users"

// 设备类型
const (
	DeviceIOS     = "IOS"
	DeviceAndroid = "ANDROID"
	DeviceWeb     = "WEB"
)

// FcmToken 推送 token，按设备登记
type FcmToken struct {
	DeviceID string    `bson:"device_id,omitempty" json:"deviceId,omitempty"`
	Token    string    `bson:"token" json:"token"`
	Device   string    `bson:"device" json:"device"`
	AddedOn  time.Time `bson:"added_on" json:"addedOn"`
}

// User 用户文档。密码只进库，响应前必须 Sanitize。
type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name          string               `bson:"name" json:"name"`
	Username      string               `bson:"username" json:"username"`
	Email         string               `bson:"email,omitempty" json:"email,omitempty"`
	Password      string               `bson:"password,omitempty" json:"password,omitempty"`
	CountryCode   string               `bson:"country_code,omitempty" json:"country_code,omitempty"`
	MobileNumber  string               `bson:"mobile_number,omitempty" json:"mobile_number,omitempty"`
	ProfilePic    string               `bson:"profile_pic" json:"profilePic"`
	Followers     []primitive.ObjectID `bson:"followers" json:"followers"`
	Following     []primitive.ObjectID `bson:"following" json:"following"`
	Bio           string               `bson:"bio" json:"bio"`
	IsDeactivated bool                 `bson:"is_deactivated" json:"isDeactivated"`
	IsDeleted     bool                 `bson:"is_deleted" json:"-"`
	FcmTokens     []FcmToken           `bson:"fcm_tokens,omitempty" json:"fcmTokens,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Sanitize 去掉不可外发字段后返回副本
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	return &cp
}

// Brief 参与者摘要，会话列表、帖子 populate 用
type Brief struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Username     string             `bson:"username" json:"username"`
	ProfilePic   string             `bson:"profile_pic" json:"profilePic"`
	MobileNumber string             `bson:"mobile_number,omitempty" json:"mobile_number,omitempty"`
}

func (u *User) Brief() Brief {
	return Brief{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		ProfilePic:   u.ProfilePic,
		MobileNumber: u.MobileNumber,
	}
}
