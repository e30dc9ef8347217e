package service

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/response"
)

const dateLayout = "2006-01-02"

// Recent GET /items/recent?private=
func (s *DriveService) Recent(c *gin.Context) {
	s.listItems(c, s.listing.Recent)
}

// Favorites GET /items/favorites?private=
func (s *DriveService) Favorites(c *gin.Context) {
	s.listItems(c, s.listing.Favorites)
}

// ByDate GET /items/by-date?date=YYYY-MM-DD&private=
func (s *DriveService) ByDate(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "date must be YYYY-MM-DD")
		return
	}
	s.listItems(c, func(ctx context.Context, owner string, private bool) ([]biz.Item, error) {
		return s.listing.ByDate(ctx, owner, date, private)
	})
}

func (s *DriveService) listItems(c *gin.Context, list func(ctx context.Context, owner string, private bool) ([]biz.Item, error)) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	private, ok := privateScope(c)
	if !ok {
		return
	}

	items, err := list(c.Request.Context(), owner, private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toItemResponses(items))
}

// FilesByKind GET /files/type/:kind?private=
func (s *DriveService) FilesByKind(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	kind, err := biz.ParseFileKind(c.Param("kind"))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "kind must be notes, pdf or images")
		return
	}
	private, ok := privateScope(c)
	if !ok {
		return
	}

	files, err := s.listing.ByKind(c.Request.Context(), owner, kind, private)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toFileResponses(files))
}

// StorageSummary GET /storage/summary
func (s *DriveService) StorageSummary(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	summary, err := s.listing.StorageSummary(c.Request.Context(), owner)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, summary)
}
