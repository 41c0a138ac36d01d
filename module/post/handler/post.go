package handler

import (
	midsec "Upside/middleware/security"
	postsrv "Upside/module/post/service"
	errs "Upside/tools/errs"
	resp "Upside/tools/resp"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes /api/v1/post，全部需要登录态
func RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(midsec.Middleware(midsec.DefaultOptions()))

	rg.POST("/", Create)
	rg.PUT("/", Update)
	rg.DELETE("/:id", Delete)
	rg.GET("/all", MyPosts)
	rg.GET("/all/:userId", UserPosts)
	rg.GET("/feed", Feed)
	rg.GET("/:id", Get)
	rg.PUT("/like", LikeUnlike)
	rg.PUT("/comment", Comment)
	rg.DELETE("/comment", DeleteComment)
	rg.PUT("/comment/like", LikeUnlikeComment)
}

type createReq struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

type updateReq struct {
	ID   string `json:"_id" binding:"required"`
	Text string `json:"text"`
	Img  string `json:"img"`
}

type likeReq struct {
	PostID string `json:"postId" binding:"required"`
}

type commentReq struct {
	PostID string `json:"postId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type commentRefReq struct {
	PostID    string `json:"postId" binding:"required"`
	CommentID string `json:"commentId" binding:"required"`
}

func Create(c *gin.Context) {
	req := &createReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	post, err := postsrv.Create(c.Request.Context(), midsec.CurrentUserID(c), req.Text, req.Img)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Post added successfully", post)
}

func Update(c *gin.Context) {
	req := &updateReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	post, err := postsrv.Update(c.Request.Context(), req.ID, req.Text, req.Img)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Post edited successfully", post)
}

func Delete(c *gin.Context) {
	if err := postsrv.Delete(c.Request.Context(), c.Param("id")); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Post deleted successfully", gin.H{})
}

func Get(c *gin.Context) {
	post, err := postsrv.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Post fetched successfully", gin.H{"post": post})
}

func MyPosts(c *gin.Context) {
	posts, err := postsrv.ListByUser(c.Request.Context(), midsec.CurrentUserID(c), true)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Posts fetched successfully", gin.H{"posts": posts})
}

func UserPosts(c *gin.Context) {
	posts, err := postsrv.ListByUser(c.Request.Context(), c.Param("userId"), false)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Posts fetched successfully", gin.H{"posts": posts})
}

func Feed(c *gin.Context) {
	posts, err := postsrv.Feed(c.Request.Context(), midsec.CurrentUserID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Feed posts fetched successfully", gin.H{"feedPosts": posts})
}

func LikeUnlike(c *gin.Context) {
	req := &likeReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	liked, post, err := postsrv.ToggleLike(c.Request.Context(), req.PostID, midsec.CurrentUserID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	msg := "Unliked successfully"
	if liked {
		msg = "Liked successfully"
	}
	resp.OKMsg(c, msg, post)
}

func Comment(c *gin.Context) {
	req := &commentReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	post, err := postsrv.AddComment(c.Request.Context(), req.PostID, midsec.CurrentUserID(c), req.Text)
	if err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Comment added successfully", post)
}

func DeleteComment(c *gin.Context) {
	req := &commentRefReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	if err := postsrv.DeleteComment(c.Request.Context(), req.PostID, req.CommentID, midsec.CurrentUserID(c)); err != nil {
		resp.Fail(c, err)
		return
	}
	resp.OKMsg(c, "Comment deleted successfully", gin.H{})
}

func LikeUnlikeComment(c *gin.Context) {
	req := &commentRefReq{}
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c, errs.ErrArgs.WithDetail(err.Error()).Wrap())
		return
	}
	liked, err := postsrv.ToggleCommentLike(c.Request.Context(), req.PostID, req.CommentID, midsec.CurrentUserID(c))
	if err != nil {
		resp.Fail(c, err)
		return
	}
	msg := "Comment unliked successfully"
	if liked {
		msg = "Comment liked successfully"
	}
	resp.OKMsg(c, msg, gin.H{})
}
