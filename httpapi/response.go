package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixkme/evcore/errs"
)

// ResponseResult 管理接口统一的返回格式
type ResponseResult struct {
	Status int32    `json:"status"`           // errs错误码, 0为成功
	Error  string   `json:"error"`            // 完整错误描述, 成功时为空
	Causes []string `json:"causes,omitempty"` // 错误链, 最外层在前, 最后一项是根因
	Data   any      `json:"data"`             // 为nil时返回{}
	Links  links    `json:"_links"`
}

type links struct {
	Self struct {
		Href string `json:"href"`
	} `json:"self"`
}

func Response(c *gin.Context, httpStatus int, r *ResponseResult) {
	if r.Data == nil {
		r.Data = gin.H{}
	}
	r.Links.Self.Href = c.Request.RequestURI
	c.JSON(httpStatus, r)
}

func ResponseError(c *gin.Context, httpStatus int, err error) {
	code, desc, causes := parserError(err)
	Response(c, httpStatus, &ResponseResult{Status: code, Error: desc, Causes: causes})
}

func ResponseSuccess(c *gin.Context, data any) {
	Response(c, http.StatusOK, &ResponseResult{Data: data})
}

// parserError 拆出错误码和每一层Wrap的上下文, 例如 udp -> handle packet -> SOCKET_READ
func parserError(err error) (code int32, desc string, causes []string) {
	if err == nil {
		return errs.ErrCode_OK, "", nil
	}
	return errs.Code(err), err.Error(), errs.Chain(err)
}
