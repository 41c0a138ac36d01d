package storage

import (
	"context"
	"encoding/json"
	"time"

	errs "Upside/tools/errs"

	"github.com/redis/go-redis/v9"
)

// ===== 登录会话 =====
//
// 登录成功后按 token hash 存一条会话记录，TTL 与令牌一致；
// 注销删除记录。auth 中间件可据此做令牌吊销检查。

type UserSession struct {
	UserID    string    `json:"userId"`
	Origin    string    `json:"origin"`
	TokenHash string    `json:"tokenHash"`
	LoginAt   time.Time `json:"loginAt"`
	ExpireAt  time.Time `json:"expireAt"`
}

func sessionKey(tokenHash string) string { return "upside:session:" + tokenHash }

func SaveSession(ctx context.Context, s UserSession) error {
	cli, ok := TryGetRedis()
	if !ok {
		return nil // 未配置 redis 时跳过会话登记
	}
	ttl := time.Until(s.ExpireAt)
	if ttl <= 0 {
		return errs.New("session already expired", "userId", s.UserID)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return errs.Wrap(err)
	}
	return cli.Set(ctx, sessionKey(s.TokenHash), b, ttl).Err()
}

// GetSession 查会话；不存在返回 (nil,nil)
func GetSession(ctx context.Context, tokenHash string) (*UserSession, error) {
	cli, ok := TryGetRedis()
	if !ok {
		return nil, nil
	}
	raw, err := cli.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	var s UserSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errs.Wrap(err)
	}
	return &s, nil
}

func DeleteSession(ctx context.Context, tokenHash string) error {
	cli, ok := TryGetRedis()
	if !ok {
		return nil
	}
	return cli.Del(ctx, sessionKey(tokenHash)).Err()
}

// ===== 在线镜像 =====
//
// 内存目录是在线状态的事实来源（单进程）；这里只是把在线集合
// 镜像到 redis，给 REST 查询和外部消费方看，允许轻微滞后。

const onlineSetKey = "upside:online"

func MirrorOnline(ctx context.Context, userID string) {
	if cli, ok := TryGetRedis(); ok {
		_ = cli.SAdd(ctx, onlineSetKey, userID).Err()
	}
}

func MirrorOffline(ctx context.Context, userID string) {
	if cli, ok := TryGetRedis(); ok {
		_ = cli.SRem(ctx, onlineSetKey, userID).Err()
	}
}

func OnlineSnapshot(ctx context.Context) ([]string, error) {
	cli, ok := TryGetRedis()
	if !ok {
		return nil, nil
	}
	return cli.SMembers(ctx, onlineSetKey).Result()
}
