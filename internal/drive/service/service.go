// Package service exposes the drive over HTTP.
package service

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth/middleware"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// DriveService serves folders, files and listings for the authenticated owner
type DriveService struct {
	folders *biz.FolderUseCase
	files   *biz.FileUseCase
	listing *biz.ListingUseCase
	users   *userbiz.UserUseCase
	logger  *logger.Logger
}

func NewDriveService(folders *biz.FolderUseCase, files *biz.FileUseCase, listing *biz.ListingUseCase, users *userbiz.UserUseCase, log *logger.Logger) *DriveService {
	return &DriveService{
		folders: folders,
		files:   files,
		listing: listing,
		users:   users,
		logger:  log.Named("drive.http"),
	}
}

// RegisterRoutes mounts the drive on an authenticated group
func (s *DriveService) RegisterRoutes(r *gin.RouterGroup) {
	folders := r.Group("/folders")
	{
		folders.POST("", s.CreateFolder)
		folders.GET("", s.ListFolders)
		folders.GET("/:id/contents", s.FolderContents)
		folders.PATCH("/:id/name", s.RenameFolder)
		folders.PATCH("/:id/favorite", s.SetFolderFavorite)
		folders.PATCH("/:id/privacy", s.SetFolderPrivacy)
		folders.POST("/:id/copy", s.CopyFolder)
		folders.DELETE("/:id", s.DeleteFolder)
	}

	files := r.Group("/files")
	{
		files.POST("", QuotaPrecheck(s.users, s.logger), s.Upload)
		files.GET("/type/:kind", s.FilesByKind)
		files.PATCH("/:id/name", s.RenameFile)
		files.PATCH("/:id/favorite", s.SetFileFavorite)
		files.PATCH("/:id/privacy", s.SetFilePrivacy)
		files.POST("/:id/copy", s.CopyFile)
		files.DELETE("/:id", s.DeleteFile)
		files.GET("/:id/download", s.Download)
		files.GET("/:id/preview", s.Preview)
	}

	items := r.Group("/items")
	{
		items.GET("/recent", s.Recent)
		items.GET("/favorites", s.Favorites)
		items.GET("/by-date", s.ByDate)
	}

	r.GET("/storage/summary", s.StorageSummary)
}

// ownerID reads the authenticated owner; it aborts with 401 when absent
func ownerID(c *gin.Context) (string, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok || id == "" {
		response.Unauthorized(c, "unauthorized")
		return "", false
	}
	return id, true
}

// privateScope parses the required private query parameter
func privateScope(c *gin.Context) (bool, bool) {
	v, ok := c.GetQuery("private")
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrInvalidPrivateFlag, "private query parameter is required")
		return false, false
	}
	private, err := strconv.ParseBool(v)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidPrivateFlag)
		return false, false
	}
	return private, true
}

// handleError maps domain errors onto response codes. Unknown errors are
// logged and answered with 500.
func (s *DriveService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrFolderNotFound):
		response.ErrorWithCode(c, apperrors.ErrFolderNotFound)
	case errors.Is(err, biz.ErrFileNotFound), errors.Is(err, biz.ErrBlobNotFound):
		response.ErrorWithCode(c, apperrors.ErrFileNotFound)
	case errors.Is(err, biz.ErrUserNotFound):
		response.ErrorWithCode(c, apperrors.ErrOwnerNotFound)
	case errors.Is(err, biz.ErrDuplicateName):
		response.ErrorWithCode(c, apperrors.ErrDuplicateName, err.Error())
	case errors.Is(err, biz.ErrPrivacyConflict):
		response.ErrorWithCode(c, apperrors.ErrPrivacyConflict, err.Error())
	case errors.Is(err, biz.ErrQuotaExceeded):
		response.ErrorWithCode(c, apperrors.ErrQuotaExceeded)
	case errors.Is(err, biz.ErrInvalidFileType):
		response.ErrorWithCode(c, apperrors.ErrInvalidFileType, err.Error())
	case errors.Is(err, biz.ErrNoFiles):
		response.ErrorWithCode(c, apperrors.ErrNoFiles)
	case errors.Is(err, biz.ErrTooManyFiles):
		response.ErrorWithCode(c, apperrors.ErrTooManyFiles, err.Error())
	case errors.Is(err, biz.ErrTreeTooDeep):
		response.ErrorWithCode(c, apperrors.ErrTreeTooDeep)
	case errors.Is(err, biz.ErrNameRequired),
		errors.Is(err, biz.ErrCopyIntoSelf),
		errors.Is(err, biz.ErrNameAttemptsUsed),
		errors.Is(err, biz.ErrInvalidFileKind),
		errors.Is(err, userbiz.ErrInvalidOwnerID):
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
	default:
		s.logger.WithContext(c.Request.Context()).Error("drive request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrInternalServer)
	}
}
