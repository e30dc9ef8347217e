package service

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
)

// CreateFolder POST /folders
func (s *DriveService) CreateFolder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	folder, err := s.folders.CreateFolder(c.Request.Context(), owner, req.Name, emptyToNil(req.ParentID))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Created(c, toFolderResponse(folder))
}

// ListFolders GET /folders?private=
func (s *DriveService) ListFolders(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	private, ok := privateScope(c)
	if !ok {
		return
	}

	folders, err := s.listing.Folders(c.Request.Context(), owner, private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFolderResponses(folders))
}

// FolderContents GET /folders/:id/contents?private=
func (s *DriveService) FolderContents(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	private, ok := privateScope(c)
	if !ok {
		return
	}

	items, err := s.listing.FolderContents(c.Request.Context(), owner, c.Param("id"), private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toItemResponses(items))
}

// RenameFolder PATCH /folders/:id/name
func (s *DriveService) RenameFolder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	folder, err := s.folders.RenameFolder(c.Request.Context(), owner, c.Param("id"), req.Name)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFolderResponse(folder))
}

// SetFolderFavorite PATCH /folders/:id/favorite
func (s *DriveService) SetFolderFavorite(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "isFavorite is required")
		return
	}

	folder, err := s.folders.SetFavorite(c.Request.Context(), owner, c.Param("id"), *req.IsFavorite)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFolderResponse(folder))
}

// SetFolderPrivacy PATCH /folders/:id/privacy, cascades over the subtree
func (s *DriveService) SetFolderPrivacy(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req PrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "private is required")
		return
	}

	folder, err := s.folders.SetPrivacy(c.Request.Context(), owner, c.Param("id"), *req.Private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFolderResponse(folder))
}

// CopyFolder POST /folders/:id/copy
func (s *DriveService) CopyFolder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req CopyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	folder, err := s.folders.CopyFolder(c.Request.Context(), owner, c.Param("id"), emptyToNil(req.DestinationID))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Created(c, toFolderResponse(folder))
}

// DeleteFolder DELETE /folders/:id
func (s *DriveService) DeleteFolder(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := s.folders.DeleteFolder(c.Request.Context(), owner, c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "folder deleted", nil)
}

func emptyToNil(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

// bindOptionalJSON accepts an empty body as the zero request
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}
