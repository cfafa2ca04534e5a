package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// Revoker Token吊销（Redis黑名单实现）
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthHandler Token管理
// Token由外部身份系统签发，这里只提供吊销
type AuthHandler struct {
	revoker Revoker
}

// NewAuthHandler 创建Token处理器
func NewAuthHandler(revoker Revoker) *AuthHandler {
	return &AuthHandler{revoker: revoker}
}

// Revoke 吊销当前Token
// @Summary      吊销当前Token
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/auth/revoke [post]
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok || claims.ID == "" {
		response.Error(c, apperrors.ErrInvalidToken)
		return
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, claims.Remaining()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
