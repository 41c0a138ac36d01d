package handler

import (
	"net/http"

	config "Upside/global/config"
	"Upside/logger"
	authsrv "Upside/module/auth/service"
	midsec "Upside/middleware/security"
	errs "Upside/tools/errs"
	resp "Upside/tools/resp"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes /api/v1/auth
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", Signup)
	rg.POST("/login", Login)

	authed := rg.Group("", midsec.Middleware(midsec.DefaultOptions()))
	authed.GET("/verify-auth", VerifyAuth)
	authed.POST("/logout", Logout)
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Signup(c *gin.Context) {
	req := &authsrv.SignupReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}

	user, token, err := authsrv.Signup(c.Request.Context(), req, c.GetHeader("Origin"))
	if err != nil {
		logger.Warnf("[auth] signup username=%s failed: %v", req.Username, err)
		resp.Fail(c, err)
		return
	}

	setAuthCookie(c, token)
	resp.OKMsg(c, "User registered successfully.", user)
}

func Login(c *gin.Context) {
	req := &loginReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}

	user, token, err := authsrv.Login(c.Request.Context(), req.Username, req.Password, c.GetHeader("Origin"))
	if err != nil {
		logger.Warnf("[auth] login account=%s failed: %v", req.Username, err)
		resp.Fail(c, err)
		return
	}

	setAuthCookie(c, token)
	resp.OKMsg(c, "Login Success", user)
}

func VerifyAuth(c *gin.Context) {
	user, err := authsrv.VerifyAuth(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		clearAuthCookie(c)
		resp.Fail(c, err)
		return
	}
	resp.OK(c, user)
}

func Logout(c *gin.Context) {
	if v, ok := c.Get(midsec.CtxTokenKey); ok {
		if token, _ := v.(string); token != "" {
			authsrv.Logout(c.Request.Context(), token)
		}
	}
	clearAuthCookie(c)
	resp.OKMsg(c, "Logged out successfully", nil)
}

func setAuthCookie(c *gin.Context, token string) {
	cfg := config.Global
	c.SetSameSite(http.SameSiteNoneMode) // 跨域前端带 cookie
	c.SetCookie(cfg.CookieName, token, cfg.CookieMaxAge, "/", "", cfg.CookieSecure, true)
}

func clearAuthCookie(c *gin.Context) {
	cfg := config.Global
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
