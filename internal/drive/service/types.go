package service

import (
	"time"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
)

// CreateFolderRequest creates a folder; a missing parentId means the root
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type FavoriteRequest struct {
	IsFavorite *bool `json:"isFavorite" binding:"required"`
}

type PrivacyRequest struct {
	Private *bool `json:"private" binding:"required"`
}

// CopyRequest duplicates an item; a missing destinationId means the root
type CopyRequest struct {
	DestinationID *string `json:"destinationId"`
}

type FolderResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentID   *string   `json:"parentId"`
	Size       int64     `json:"size"`
	IsFavorite bool      `json:"isFavorite"`
	Private    bool      `json:"private"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type FileResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	FolderID   *string   `json:"folderId"`
	IsFavorite bool      `json:"isFavorite"`
	Private    bool      `json:"private"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ItemResponse carries exactly one of Folder or File, tagged by Type
type ItemResponse struct {
	Type   biz.ItemKind    `json:"type"`
	Folder *FolderResponse `json:"folder,omitempty"`
	File   *FileResponse   `json:"file,omitempty"`
}

func toFolderResponse(f *biz.Folder) *FolderResponse {
	return &FolderResponse{
		ID:         f.ID,
		Name:       f.Name,
		ParentID:   f.ParentID,
		Size:       f.Size,
		IsFavorite: f.IsFavorite,
		Private:    f.Private,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func toFileResponse(f *biz.File) *FileResponse {
	return &FileResponse{
		ID:         f.ID,
		FileName:   f.FileName,
		FileType:   f.FileType,
		FileSize:   f.FileSize,
		FolderID:   f.FolderID,
		IsFavorite: f.IsFavorite,
		Private:    f.Private,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func toFolderResponses(folders []*biz.Folder) []*FolderResponse {
	out := make([]*FolderResponse, len(folders))
	for i, f := range folders {
		out[i] = toFolderResponse(f)
	}
	return out
}

func toFileResponses(files []*biz.File) []*FileResponse {
	out := make([]*FileResponse, len(files))
	for i, f := range files {
		out[i] = toFileResponse(f)
	}
	return out
}

func toItemResponses(items []biz.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i].Type = item.Kind
		if item.Kind == biz.KindFolder {
			out[i].Folder = toFolderResponse(item.Folder)
		} else {
			out[i].File = toFileResponse(item.File)
		}
	}
	return out
}
