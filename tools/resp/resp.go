package resp

import (
	"errors"
	"net/http"

	errs "Upside/tools/errs"

	"github.com/gin-gonic/gin"
)

// 统一响应体：{status, message, data}
type Body struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Status: "success", Data: data})
}

func OKMsg(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Status: "success", Message: message, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{Status: "success", Data: data})
}

// Fail 按 CodeError 的业务码映射 http 状态；非 CodeError 一律 500。
func Fail(c *gin.Context, err error) {
	var ce errs.CodeError
	if errors.As(err, &ce) {
		c.JSON(httpStatus(ce.Code), Body{Status: "fail", Message: ce.Msg})
		return
	}
	c.JSON(http.StatusInternalServerError, Body{Status: "fail", Message: "internal error"})
}

func Abort(c *gin.Context, ce errs.CodeError) {
	c.AbortWithStatusJSON(httpStatus(ce.Code), Body{Status: "fail", Message: ce.Msg})
}

func httpStatus(code int) int {
	switch code {
	case errs.ErrArgs.Code:
		return http.StatusBadRequest
	case errs.ErrTokenInvalid.Code, errs.ErrTokenExpired.Code, errs.ErrBadCredential.Code, errs.ErrWrongPassword.Code:
		return http.StatusUnauthorized
	case errs.ErrNotCommentOwn.Code, errs.ErrFollowSelf.Code, errs.ErrMessageToSelf.Code:
		return http.StatusForbidden
	case errs.ErrUserNotFound.Code, errs.ErrPostNotFound.Code, errs.ErrCommentNotFND.Code, errs.ErrChatNotFound.Code, errs.ErrRecordNotFND.Code:
		return http.StatusNotFound
	case errs.ErrUserExist.Code:
		return http.StatusConflict
	case errs.ErrRTCUnavailable.Code:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
