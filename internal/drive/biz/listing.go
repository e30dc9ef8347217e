package biz

import (
	"context"
	"time"

	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// RecentLimit caps the recent items view
const RecentLimit = 10

// ListingUseCase serves the read-only views. Every view is scoped to one
// owner and one privacy value.
type ListingUseCase struct {
	folders FolderRepo
	files   FileRepo
	users   *userbiz.UserUseCase
}

func NewListingUseCase(folders FolderRepo, files FileRepo, users *userbiz.UserUseCase) *ListingUseCase {
	return &ListingUseCase{folders: folders, files: files, users: users}
}

// Folders lists every folder of the owner, newest first
func (uc *ListingUseCase) Folders(ctx context.Context, ownerID string, private bool) ([]*Folder, error) {
	return uc.folders.List(ctx, ItemQuery{OwnerID: ownerID, Private: &private})
}

// FolderContents lists the direct children of folderID
func (uc *ListingUseCase) FolderContents(ctx context.Context, ownerID, folderID string, private bool) ([]Item, error) {
	if _, err := uc.folders.Get(ctx, ownerID, folderID); err != nil {
		return nil, err
	}
	folders, err := uc.folders.ListByParent(ctx, ownerID, &folderID, &private)
	if err != nil {
		return nil, err
	}
	files, err := uc.files.ListByFolder(ctx, ownerID, &folderID, &private)
	if err != nil {
		return nil, err
	}
	return MergeItems(folders, files, 0), nil
}

// Recent returns the most recently updated files and folders
func (uc *ListingUseCase) Recent(ctx context.Context, ownerID string, private bool) ([]Item, error) {
	return uc.merged(ctx, ItemQuery{OwnerID: ownerID, Private: &private, Limit: RecentLimit})
}

func (uc *ListingUseCase) Favorites(ctx context.Context, ownerID string, private bool) ([]Item, error) {
	favorite := true
	return uc.merged(ctx, ItemQuery{OwnerID: ownerID, Private: &private, Favorite: &favorite})
}

// ByDate returns items updated on the UTC calendar day of date
func (uc *ListingUseCase) ByDate(ctx context.Context, ownerID string, date time.Time, private bool) ([]Item, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	return uc.merged(ctx, ItemQuery{OwnerID: ownerID, Private: &private, UpdatedFrom: &from, UpdatedTo: &to})
}

// ByKind lists files of one kind, newest first
func (uc *ListingUseCase) ByKind(ctx context.Context, ownerID string, kind FileKind, private bool) ([]*File, error) {
	q := FileQuery{ItemQuery: ItemQuery{OwnerID: ownerID, Private: &private}}
	switch kind {
	case FileKindNotes:
		q.FileTypes = []string{MIMEDocx}
	case FileKindPDF:
		q.FileTypes = []string{MIMEPDF}
	case FileKindImages:
		q.TypePrefix = mimeImage
	default:
		return nil, ErrInvalidFileKind
	}
	return uc.files.List(ctx, q)
}

// StorageSummary reports quota, usage and the per-kind breakdown
func (uc *ListingUseCase) StorageSummary(ctx context.Context, ownerID string) (*StorageSummary, error) {
	limit, used, err := uc.users.Quota(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	usage, err := uc.files.UsageByType(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	order := []FileKind{FileKindNotes, FileKindPDF, FileKindImages, FileKindOther}
	byKind := make(map[FileKind]*KindUsage, len(order))
	breakdown := make([]KindUsage, len(order))
	for i, k := range order {
		breakdown[i].Kind = k
		byKind[k] = &breakdown[i]
	}
	for _, u := range usage {
		k := byKind[KindOf(u.FileType)]
		k.Bytes += u.Bytes
		k.Count += u.Count
	}

	available := limit - used
	if available < 0 {
		available = 0
	}
	return &StorageSummary{
		TotalQuota: limit,
		Used:       used,
		Available:  available,
		Breakdown:  breakdown,
	}, nil
}

func (uc *ListingUseCase) merged(ctx context.Context, q ItemQuery) ([]Item, error) {
	folders, err := uc.folders.List(ctx, q)
	if err != nil {
		return nil, err
	}
	files, err := uc.files.List(ctx, FileQuery{ItemQuery: q})
	if err != nil {
		return nil, err
	}
	return MergeItems(folders, files, q.Limit), nil
}
