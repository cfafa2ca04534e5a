// Package handler HTTP处理器
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// pathID 解析路径中的正整数ID，失败时已写入错误响应
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithDetail("%s必须是正整数", name))
		return 0, false
	}
	return uint(id), true
}

// bindJSON 绑定请求体，失败时已写入错误响应
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithDetail("%v", err))
		return false
	}
	return true
}

// queryInt 可选的整数查询参数
func queryInt(c *gin.Context, name string) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		response.Error(c, apperrors.ErrInvalidParams.WithDetail("%s必须是整数", name))
		return 0, false
	}
	return n, true
}

// requireOwner 读者只能访问自己的数据
func requireOwner(c *gin.Context, patronID uint) bool {
	if !middleware.MustGetActor(c).Owns(patronID) {
		response.Error(c, apperrors.ErrForbidden.WithDetail("只能访问本人的数据"))
		return false
	}
	return true
}
