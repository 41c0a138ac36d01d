package config

// AppConfig 进程级配置。单节点部署，全部来自环境变量 + 默认值。
type AppConfig struct {
	NodeId       string // 节点ID（雪花ID的机器位）
	Port         int    // http 启动端口
	CookieName   string // 登录态 cookie 名
	CookieMaxAge int    // cookie 有效期（秒）
	CookieSecure bool   // 仅 https 下发 cookie

	MongoUri      string
	MongoDatabase string
	MongoUser     string
	MongoPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NatsServers string // 逗号分隔；为空则不接事件流

	RTCAppID   string // 实时音视频 token 的 app id
	RTCAppCert string // 实时音视频 token 的签发密钥
}
