package security

import (
	"strings"

	config "Upside/global/config"
	storage "Upside/service/storage"
	errs "Upside/tools/errs"
	resp "Upside/tools/resp"
	sec "Upside/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续 handler 统一用这俩 key 读取
const (
	CtxUserIDKey = "userId"        // string
	CtxTokenKey  = "authorization" // string
)

type Options struct {
	CookieName   string // 默认读 config.Global.CookieName
	EnableBearer bool   // 兼容 Authorization: Bearer xxx
	CheckSession bool   // redis 可用时校验会话是否仍然有效（登出即失效）
}

func DefaultOptions() *Options {
	return &Options{
		CookieName:   config.Global.CookieName,
		EnableBearer: true,
		CheckSession: true,
	}
}

// Middleware 登录态校验：cookie 优先，其次 Bearer 头。
// 校验通过后把 userId 写入 context；失败统一 401。
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := extractToken(c, opts)
		if token == "" {
			resp.Abort(c, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(sec.DefaultOptions(config.GetJwtSecret()), token)
		if err != nil {
			resp.Abort(c, errs.ErrTokenInvalid)
			return
		}
		userID := claims.UserID()
		if userID == "" {
			resp.Abort(c, errs.ErrTokenInvalid)
			return
		}

		// 登出会删 redis 会话；redis 不可用时退化为纯 JWT 校验
		if _, ok := storage.TryGetRedis(); ok && opts.CheckSession {
			s, err := storage.GetSession(c.Request.Context(), sec.HashToken(token))
			if err == nil && s == nil {
				resp.Abort(c, errs.ErrTokenExpired)
				return
			}
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxTokenKey, token)
		c.Next()
	}
}

func extractToken(c *gin.Context, opts *Options) string {
	if cookie, err := c.Cookie(opts.CookieName); err == nil && cookie != "" {
		return cookie
	}
	if !opts.EnableBearer {
		return ""
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return authz
}

// CurrentUserID 从 context 取登录用户ID；未经过鉴权中间件时为空串。
func CurrentUserID(c *gin.Context) string {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
