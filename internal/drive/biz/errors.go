package biz

import (
	"errors"

	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// Lookup errors
var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrBlobNotFound   = errors.New("blob not found")
)

// Validation errors
var (
	ErrNameRequired     = errors.New("name is required")
	ErrNoFiles          = errors.New("no files uploaded")
	ErrTooManyFiles     = errors.New("too many files in one upload")
	ErrInvalidFileType  = errors.New("unsupported file type")
	ErrInvalidFileKind  = errors.New("unknown file kind")
	ErrTreeTooDeep      = errors.New("folder tree exceeds maximum depth")
	ErrCopyIntoSelf     = errors.New("cannot copy a folder into its own subtree")
	ErrNameAttemptsUsed = errors.New("no free name within attempt limit")
)

// Conflict errors
var (
	ErrDuplicateName   = errors.New("an item with this name already exists")
	ErrPrivacyConflict = errors.New("privacy of item and destination must match")
)

// Quota errors are shared with the ledger store.
var (
	ErrQuotaExceeded = userbiz.ErrQuotaExceeded
	ErrUserNotFound  = userbiz.ErrUserNotFound
)
