package storage

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config 用于初始化 Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

var (
	redisOnce sync.Once
	rdb       *redis.Client
)

// InitRedis 初始化 Redis 客户端（单例）
func InitRedis(c Config) error {
	var initErr error
	redisOnce.Do(func() {
		cli := redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			PoolSize: c.PoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := cli.Ping(ctx).Err(); err != nil {
			initErr = err
			return
		}

		rdb = cli
	})
	return initErr
}

// GetRedis 获取 Redis Client
func GetRedis() *redis.Client {
	if rdb == nil {
		panic("Redis not initialized, call InitRedis first")
	}
	return rdb
}

// TryGetRedis 未初始化时返回 (nil,false)，调用方自行降级
func TryGetRedis() (*redis.Client, bool) {
	if rdb == nil {
		return nil, false
	}
	return rdb, true
}

// CloseRedis 关闭连接
func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
