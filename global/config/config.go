package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	mongoutil "Upside/data/database/mgo/mongoutil"
	"Upside/logger"
	mgoSrv "Upside/service/mgo"
	"Upside/service/natsx"
	storage "Upside/service/storage"
	ids "Upside/tools/ids"
)

const defaultJwtSecret = "K7tqzV3m9fXbP2w+Hs0nYd6Lr8j/1aGcE5uQ4oZiT0k="

var Global = AppConfig{
	NodeId:       "upside_1",
	Port:         8000,
	CookieName:   "user-cookie",
	CookieMaxAge: 10 * 24 * 60 * 60, // 10天，与 token 有效期一致
	CookieSecure: false,

	MongoUri:      "mongodb://localhost:27017",
	MongoDatabase: "upside",

	RedisAddr: "127.0.0.1:6379",
	RedisDB:   0,
}

// ===== 环境变量读取 =====

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Warnf("环境变量 %s=%q 不是整数，使用默认值 %d", key, v, def)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// LoadFromEnv 用环境变量覆盖默认配置，进程启动时调用一次。
func LoadFromEnv() {
	Global.NodeId = envStr("UPSIDE_NODE_ID", Global.NodeId)
	Global.Port = envInt("UPSIDE_PORT", Global.Port)
	Global.CookieSecure = envBool("UPSIDE_COOKIE_SECURE", Global.CookieSecure)

	Global.MongoUri = envStr("UPSIDE_MONGO_URI", Global.MongoUri)
	Global.MongoDatabase = envStr("UPSIDE_MONGO_DB", Global.MongoDatabase)
	Global.MongoUser = envStr("UPSIDE_MONGO_USER", Global.MongoUser)
	Global.MongoPassword = envStr("UPSIDE_MONGO_PASSWORD", Global.MongoPassword)

	Global.RedisAddr = envStr("UPSIDE_REDIS_ADDR", Global.RedisAddr)
	Global.RedisPassword = envStr("UPSIDE_REDIS_PASSWORD", Global.RedisPassword)
	Global.RedisDB = envInt("UPSIDE_REDIS_DB", Global.RedisDB)

	Global.NatsServers = envStr("UPSIDE_NATS_SERVERS", Global.NatsServers)

	Global.RTCAppID = envStr("UPSIDE_RTC_APP_ID", Global.RTCAppID)
	Global.RTCAppCert = envStr("UPSIDE_RTC_APP_CERT", Global.RTCAppCert)
}

// ===== 各组件初始化 =====

func ConfigAll(ctx context.Context) {
	LoadFromEnv()
	ConfigIds()
	ConfigRedis()
	ConfigMgo(ctx)
	ConfigNats()
}

func ConfigIds() {
	logger.Infof("配置id生成")
	ids.SetNodeID(nodeNumericID())
}

// nodeNumericID 从 NodeId 尾部数字求机器位，取不到就用 1
func nodeNumericID() int64 {
	s := Global.NodeId
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 1
	}
	n, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil {
		return 1
	}
	return n % 1024
}

func GetJwtSecret() []byte {
	return []byte(envStr("UPSIDE_JWT_SECRET", defaultJwtSecret))
}

func ConfigRedis() {
	cfg := storage.Config{
		Addr:     Global.RedisAddr,
		Password: Global.RedisPassword,
		DB:       Global.RedisDB,
	}
	if err := storage.InitRedis(cfg); err != nil {
		// redis 只承载会话镜像，连不上降级为无会话校验
		logger.Warnf("redis 初始化失败，按降级模式继续: %v", err)
	}
}

func ConfigMgo(ctx context.Context) {
	cfg := &mongoutil.Config{
		Uri:         Global.MongoUri,
		Database:    Global.MongoDatabase,
		Username:    Global.MongoUser,
		Password:    Global.MongoPassword,
		MaxPoolSize: 20,
	}
	mgoSrv.StartAsync(ctx, cfg)
}

func ConfigNats() {
	if Global.NatsServers == "" {
		logger.Infof("未配置 NATS，事件流关闭")
		return
	}
	cfg := natsx.NatsxConfig{
		Servers:       strings.Split(Global.NatsServers, ","),
		Name:          "upside-" + Global.NodeId,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
	if err := natsx.Init(cfg); err != nil {
		logger.Warnf("NATS 初始化失败，事件流关闭: %v", err)
	}
}
