package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/library/internal/domain/member"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/response"
)

const (
	actorKey  = "actor"
	claimsKey = "claims"
)

// Revocations 已吊销Token查询（Redis黑名单实现）
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 解析Bearer Token得到member.Actor写入Context，后续按能力判断权限
type AuthMiddleware struct {
	jwtManager  *jwt.Manager
	revocations Revocations
}

// NewAuthMiddleware 创建认证中间件，revocations为nil时不检查黑名单
func NewAuthMiddleware(jwtManager *jwt.Manager, revocations Revocations) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, revocations: revocations}
}

// RequireAuth 要求携带有效Token
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperrors.ErrUnauthorized)
			return
		}

		// 格式：Authorization: Bearer <token>
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, apperrors.ErrInvalidToken)
			return
		}

		claims, err := m.jwtManager.Parse(parts[1])
		if err != nil {
			abort(c, err)
			return
		}

		if m.revocations != nil && claims.ID != "" {
			revoked, err := m.revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				abort(c, err)
				return
			}
			if revoked {
				abort(c, apperrors.ErrTokenExpired)
				return
			}
		}

		kind, err := member.ParseKind(claims.Role)
		if err != nil {
			abort(c, apperrors.ErrInvalidToken)
			return
		}
		id, err := claims.MemberID()
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(actorKey, member.NewActor(kind, id))
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireCapability 要求当前参与者具备能力
// 必须放在RequireAuth之后
func RequireCapability(capability member.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abort(c, apperrors.ErrUnauthorized)
			return
		}
		if !actor.Can(capability) {
			abort(c, apperrors.ErrForbidden.WithDetail("缺少%s权限", capability))
			return
		}
		c.Next()
	}
}

// GetActor 当前参与者
func GetActor(c *gin.Context) (member.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return member.Actor{}, false
	}
	actor, ok := v.(member.Actor)
	return actor, ok
}

// MustGetActor 当前参与者，用于RequireAuth之后的Handler
func MustGetActor(c *gin.Context) member.Actor {
	actor, ok := GetActor(c)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}

// GetClaims 当前Token的Claims
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
