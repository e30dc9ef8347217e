package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
)

// ContextUserID is the gin context key holding the authenticated owner
const ContextUserID = "user_id"

// JWTAuth rejects requests without a valid bearer token and records the
// owner id on both the gin and the request context.
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			response.AbortWithCode(c, apperrors.ErrUnauthorized, err.Error())
			return
		}

		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			code := apperrors.ErrAuthInvalidToken
			if errors.Is(err, auth.ErrTokenExpired) {
				code = apperrors.ErrAuthTokenExpired
			}
			response.AbortWithCode(c, code)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Request = c.Request.WithContext(logger.WithOwnerID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// GetUserID returns the authenticated owner id
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

// CORS answers preflight requests and reflects the caller's origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, X-Request-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
