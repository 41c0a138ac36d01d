package errs

// 错误码分段：1xxx 通用 / 2xxx 鉴权 / 3xxx 用户 / 4xxx 帖子 / 5xxx 聊天
var (
	ErrInternal     = NewCodeError(1000, "internal server error")
	ErrArgs         = NewCodeError(1001, "invalid request args")
	ErrRecordNotFND = NewCodeError(1002, "record not found")

	ErrTokenInvalid  = NewCodeError(2000, "not authorized")
	ErrTokenExpired  = NewCodeError(2001, "token expired")
	ErrUserExist     = NewCodeError(2002, "user already exist")
	ErrBadCredential = NewCodeError(2003, "invalid credentials")
	ErrWrongPassword = NewCodeError(2004, "incorrect password")

	ErrUserNotFound   = NewCodeError(3000, "user not found")
	ErrFollowSelf     = NewCodeError(3001, "you can not follow yourself")
	ErrPostNotFound   = NewCodeError(4000, "post not found")
	ErrCommentNotFND  = NewCodeError(4001, "comment not found")
	ErrNotCommentOwn  = NewCodeError(4002, "you are not authorized to delete this comment")
	ErrChatNotFound   = NewCodeError(5000, "invalid chat id")
	ErrMessageToSelf  = NewCodeError(5001, "you can't send message to yourself")
	ErrRTCUnavailable = NewCodeError(5002, "rtc token service unavailable")
)
