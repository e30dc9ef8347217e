package errors

import (
	"fmt"
	"net/http"
)

// Code couples a business error code with its HTTP status and default message
type Code struct {
	Code    int
	Status  int
	Message string
}

const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthInvalidToken = 2006
	ErrAuthTokenExpired = 2007

	// Drive errors (6000-6999)
	ErrFolderNotFound     = 6000
	ErrFileNotFound       = 6001
	ErrDuplicateName      = 6002
	ErrPrivacyConflict    = 6003
	ErrQuotaExceeded      = 6004
	ErrInvalidFileType    = 6005
	ErrNoFiles            = 6006
	ErrTooManyFiles       = 6007
	ErrTreeTooDeep        = 6008
	ErrBlobStorageFailed  = 6009
	ErrOwnerNotFound      = 6010
	ErrInvalidPrivateFlag = 6011
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrAuthInvalidToken: {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired: {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},

	ErrFolderNotFound:     {ErrFolderNotFound, http.StatusNotFound, "Folder not found"},
	ErrFileNotFound:       {ErrFileNotFound, http.StatusNotFound, "File not found"},
	ErrDuplicateName:      {ErrDuplicateName, http.StatusBadRequest, "An item with this name already exists"},
	ErrPrivacyConflict:    {ErrPrivacyConflict, http.StatusBadRequest, "Privacy of source and destination must match"},
	ErrQuotaExceeded:      {ErrQuotaExceeded, http.StatusRequestEntityTooLarge, "Storage quota exceeded"},
	ErrInvalidFileType:    {ErrInvalidFileType, http.StatusBadRequest, "Unsupported file type"},
	ErrNoFiles:            {ErrNoFiles, http.StatusBadRequest, "No files uploaded"},
	ErrTooManyFiles:       {ErrTooManyFiles, http.StatusBadRequest, "Too many files in one upload"},
	ErrTreeTooDeep:        {ErrTreeTooDeep, http.StatusBadRequest, "Folder tree is too deep"},
	ErrBlobStorageFailed:  {ErrBlobStorageFailed, http.StatusInternalServerError, "Blob storage operation failed"},
	ErrOwnerNotFound:      {ErrOwnerNotFound, http.StatusNotFound, "User not found"},
	ErrInvalidPrivateFlag: {ErrInvalidPrivateFlag, http.StatusBadRequest, "Private flag must be a boolean"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns the HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the default message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError reports whether code maps to a 4xx status
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with optional details
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
