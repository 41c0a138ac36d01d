package handler

import (
	midsec "Upside/middleware/security"
	usersrv "Upside/module/user/service"
	errs "Upside/tools/errs"
	resp "Upside/tools/resp"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes /api/v1/user，全部需要登录态
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(midsec.Middleware(midsec.DefaultOptions()))

	rg.GET("/follow/:id", FollowUnfollow)
	rg.GET("/suggested", Suggested)
	rg.GET("/search/:username", SearchByUsername)
	rg.GET("/:id", GetByIDOrUsername)

	rg.PUT("/", UpdateProfile)
	rg.PUT("/deactivate", Deactivate)
}

func FollowUnfollow(c *gin.Context) {
	followed, err := usersrv.ToggleFollow(c.Request.Context(), midsec.CurrentUserID(c), c.Param("id"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	msg := "Unfollowed successfully"
	if followed {
		msg = "Followed successfully"
	}
	resp.OKMsg(c, msg, gin.H{})
}

func Suggested(c *gin.Context) {
	users, err := usersrv.Suggested(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Users fetched successfully.", users)
}

func GetByIDOrUsername(c *gin.Context) {
	user, err := usersrv.GetByIDOrUsername(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "User details fetched successfully.", user)
}

func SearchByUsername(c *gin.Context) {
	users, err := usersrv.SearchByUsername(c.Request.Context(), midsec.CurrentUserID(c), c.Param("username"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Users fetched successfully.", users)
}

func UpdateProfile(c *gin.Context) {
	req := &usersrv.UpdateReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	user, err := usersrv.UpdateProfile(c.Request.Context(), midsec.CurrentUserID(c), req)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Profile updated successfully", user)
}

func Deactivate(c *gin.Context) {
	if err := usersrv.Deactivate(c.Request.Context(), midsec.CurrentUserID(c)); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Account deactivated successfully", gin.H{})
}
