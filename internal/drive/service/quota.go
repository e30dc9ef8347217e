package service

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth/middleware"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// QuotaPrecheck answers 413 before the body is read when the declared
// Content-Length alone would push the owner past the limit. The use case
// still admits on the decoded part sizes.
func QuotaPrecheck(users *userbiz.UserUseCase, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := middleware.GetUserID(c)
		if !ok || c.Request.ContentLength <= 0 {
			c.Next()
			return
		}

		limit, used, err := users.Quota(c.Request.Context(), owner)
		if err != nil {
			log.WithContext(c.Request.Context()).Warn("quota precheck skipped", zap.Error(err))
			c.Next()
			return
		}

		if used+c.Request.ContentLength > limit {
			metrics.RecordQuotaExceeded("upload")
			log.WithContext(c.Request.Context()).Info("upload rejected by quota precheck",
				zap.Int64("used", used),
				zap.Int64("bytes", c.Request.ContentLength),
				zap.Int64("limit", limit))
			response.AbortWithCode(c, apperrors.ErrQuotaExceeded)
			return
		}
		c.Next()
	}
}
