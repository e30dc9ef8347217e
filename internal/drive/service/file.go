package service

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/metrics"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
)

// multipart parts above this are spilled to temp files
const uploadMemory = 32 << 20

// Upload POST /files, multipart files[] plus an optional folderId
func (s *DriveService) Upload(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(uploadMemory); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "multipart form expected")
		return
	}
	form := c.Request.MultipartForm
	defer form.RemoveAll()

	headers := append(form.File["files[]"], form.File["files"]...)
	if len(headers) == 0 {
		response.ErrorWithCode(c, apperrors.ErrNoFiles)
		return
	}
	if limit := s.files.Options().MaxUploadFiles; len(headers) > limit {
		response.ErrorWithCode(c, apperrors.ErrTooManyFiles, fmt.Sprintf("at most %d files", limit))
		return
	}

	uploads := make([]biz.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			response.ErrorWithCode(c, apperrors.ErrInvalidParams, "unreadable file part")
			return
		}
		defer f.Close()

		contentType, err := detectContentType(h, f)
		if err != nil {
			s.handleError(c, err)
			return
		}
		uploads = append(uploads, biz.Upload{
			FileName:    h.Filename,
			ContentType: contentType,
			Size:        h.Size,
			Content:     f,
		})
	}

	var folderID *string
	if v := c.Request.FormValue("folderId"); v != "" {
		folderID = &v
	}

	created, err := s.files.Upload(c.Request.Context(), owner, folderID, uploads)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Created(c, toFileResponses(created))
}

// detectContentType trusts the declared part type unless it is missing or
// generic, in which case the content is sniffed and rewound.
func detectContentType(h *multipart.FileHeader, f multipart.File) (string, error) {
	declared := strings.TrimSpace(h.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return baseType(declared), nil
	}

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("sniff %q: %w", h.Filename, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %q: %w", h.Filename, err)
	}
	return baseType(detected.String()), nil
}

func baseType(contentType string) string {
	if t, _, err := mime.ParseMediaType(contentType); err == nil {
		return t
	}
	return strings.ToLower(contentType)
}

// RenameFile PATCH /files/:id/name; the extension is kept
func (s *DriveService) RenameFile(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	file, err := s.files.RenameFile(c.Request.Context(), owner, c.Param("id"), req.Name)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFileResponse(file))
}

// SetFileFavorite PATCH /files/:id/favorite
func (s *DriveService) SetFileFavorite(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "isFavorite is required")
		return
	}

	file, err := s.files.SetFavorite(c.Request.Context(), owner, c.Param("id"), *req.IsFavorite)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFileResponse(file))
}

// SetFilePrivacy PATCH /files/:id/privacy
func (s *DriveService) SetFilePrivacy(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req PrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "private is required")
		return
	}

	file, err := s.files.SetPrivacy(c.Request.Context(), owner, c.Param("id"), *req.Private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFileResponse(file))
}

// CopyFile POST /files/:id/copy
func (s *DriveService) CopyFile(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req CopyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	file, err := s.files.CopyFile(c.Request.Context(), owner, c.Param("id"), emptyToNil(req.DestinationID))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Created(c, toFileResponse(file))
}

// DeleteFile DELETE /files/:id
func (s *DriveService) DeleteFile(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	if err := s.files.DeleteFile(c.Request.Context(), owner, c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}
	response.SuccessWithMessage(c, "file deleted", nil)
}

// Download GET /files/:id/download
func (s *DriveService) Download(c *gin.Context) {
	s.stream(c, "attachment")
}

// Preview GET /files/:id/preview
func (s *DriveService) Preview(c *gin.Context) {
	s.stream(c, "inline")
}

func (s *DriveService) stream(c *gin.Context, disposition string) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	d, err := s.files.Open(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	defer d.Content.Close()

	c.DataFromReader(http.StatusOK, d.Size, d.ContentType, d.Content, map[string]string{
		"Content-Disposition": mime.FormatMediaType(disposition, map[string]string{"filename": d.FileName}),
	})

	written := int64(c.Writer.Size())
	metrics.RecordDownload(written)
	if written < d.Size {
		// headers are gone, the client sees a short body
		s.logger.WithContext(c.Request.Context()).Warn("file stream truncated",
			zap.String("file_id", d.File.ID),
			zap.String("blob_id", d.File.BlobRef),
			zap.Int64("written", written),
			zap.Int64("bytes", d.Size))
	}
}
