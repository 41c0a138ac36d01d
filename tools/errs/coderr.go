package errs

import (
	"fmt"
	"strconv"
	"strings"

	pkgerr "github.com/pkg/errors"
)

type CodeErrorI interface {
	ECode() int
	EMsg() string
	WithDetail(detail string) CodeError
	error
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

// CodeError 业务错误：code + msg + detail。
// handler 层直接把它序列化成响应体 {code,msg,detail}。
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e CodeError) ECode() int   { return e.Code }
func (e CodeError) EMsg() string { return e.Msg }

func (e CodeError) WithDetail(detail string) CodeError {
	var d string
	if e.Detail == "" {
		d = detail
	} else {
		d = e.Detail + ", " + detail
	}
	return CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

// Wrap 附带调用栈（排障用；响应体不含栈）
func (e CodeError) Wrap() error {
	return pkgerr.WithStack(e)
}

func (e CodeError) WrapMsg(msg string, kv ...any) error {
	retErr := e
	if msg != "" || len(kv) > 0 {
		detail := toString(msg, kv)
		if retErr.Detail == "" {
			retErr.Detail = detail
		} else {
			retErr.Detail += ", " + detail
		}
	}
	return pkgerr.WithStack(retErr)
}

func (e CodeError) Is(err error) bool {
	var codeErr CodeError
	if !pkgerr.As(err, &codeErr) {
		return false
	}
	return e.Code == codeErr.Code
}

const initialCapacity = 3

func (e CodeError) Error() string {
	v := make([]string, 0, initialCapacity)
	v = append(v, strconv.Itoa(e.Code), e.Msg)

	if e.Detail != "" {
		v = append(v, e.Detail)
	}

	return strings.Join(v, " ")
}

// Unwrap 剥到最里层
func Unwrap(err error) error {
	for err != nil {
		unwrap, ok := err.(interface {
			error
			Unwrap() error
		})
		if !ok {
			break
		}
		inner := unwrap.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
	return err
}

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return pkgerr.WithStack(err)
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return pkgerr.Wrap(err, toString(msg, kv))
}

func New(msg string, kv ...any) error {
	return pkgerr.New(toString(msg, kv))
}

func toString(msg string, kv []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(", ")
		sb.WriteString(toKey(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(toKey(kv[i+1]))
		}
	}
	return sb.String()
}

func toKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprint(v)
	}
}
